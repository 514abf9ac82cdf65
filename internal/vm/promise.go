package vm

import "github.com/ecmago/ecmago/internal/value"

// promiseData is a Promise object's Data(): a simplified
// [[PromiseState]]/[[PromiseResult]] pair. This engine only ever
// constructs a Promise already settled — as the wrapper VM.Call puts
// around an async function's return value once its body (including
// every awaited step) has finished running — so there is no separate
// "pending" state or reaction list to track (see DESIGN.md's "Async
// functions" entry).
type promiseData struct {
	fulfilled bool
	result    value.Value
}

// buildPromiseProto builds the one shared prototype every Promise
// object points to, the same "one shared prototype, methods installed
// once" shape buildGeneratorProto uses for generator objects.
func (vm *VM) buildPromiseProto() *value.Object {
	proto := value.NewObject(vm.objectProto)
	install := func(name string, arity int, fn func(value.Value, []value.Value) (value.Value, error)) {
		proto.Set(value.StringKey(vm.interner.Intern(name)), vm.newNativeMethod(name, arity, fn))
	}
	install("then", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		return vm.promiseThen(this, argOrUndefined(args, 0), argOrUndefined(args, 1))
	})
	install("catch", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return vm.promiseThen(this, value.Undefined(), argOrUndefined(args, 0))
	})
	return proto
}

// newSettledPromise builds a Promise object already settled to result
// (fulfilled) or reason (rejected).
func (vm *VM) newSettledPromise(result value.Value, fulfilled bool) value.Value {
	obj := value.NewObjectOfKind(vm.promiseProto, value.KindObjectPromise)
	obj.SetData(&promiseData{fulfilled: fulfilled, result: result})
	vm.Heap.Alloc(obj)
	return value.ObjectVal(obj)
}

// promiseThen implements Promise.prototype.then/catch. Since every
// Promise this engine produces is already settled by the time script
// code can observe it, there is no PromiseReactionJob to enqueue onto
// a job queue (internal/jobs, which VM has no handle to — the queue
// lives a layer up, in engine.Context): the matching handler runs
// immediately, and whatever it returns (or throws) becomes the
// already-settled Promise `.then` itself returns, so chains keep
// working the way `p.then(a).then(b)` needs.
func (vm *VM) promiseThen(this value.Value, onFulfilled, onRejected value.Value) (value.Value, error) {
	if !this.IsObject() {
		return value.Undefined(), vm.throwTypeError("Promise.prototype.then called on a non-object")
	}
	pd, ok := this.AsObject().Data().(*promiseData)
	if !ok {
		return value.Undefined(), vm.throwTypeError("Promise.prototype.then called on a non-Promise")
	}
	handler := onRejected
	if pd.fulfilled {
		handler = onFulfilled
	}
	if !handler.IsObject() || !handler.AsObject().IsCallable() {
		// No matching handler: the settlement propagates unchanged.
		return vm.newSettledPromise(pd.result, pd.fulfilled), nil
	}
	result, err := vm.Call(handler, value.Undefined(), []value.Value{pd.result})
	if err != nil {
		if te, ok := err.(*ThrownError); ok {
			return vm.newSettledPromise(te.Value, false), nil
		}
		return value.Undefined(), err
	}
	return vm.newSettledPromise(result, true), nil
}

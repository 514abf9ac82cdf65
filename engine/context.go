package engine

import (
	"context"
	"time"

	"github.com/ecmago/ecmago/internal/builtins"
	"github.com/ecmago/ecmago/internal/compiler"
	"github.com/ecmago/ecmago/internal/jobs"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/value"
	"github.com/ecmago/ecmago/internal/vm"
	"github.com/ecmago/ecmago/internal/xlog"
)

// Context is one JavaScript realm: its own global object, prototype
// chain, symbol interner and job queue (spec.md §6). It is the unit of
// isolation this engine offers — two Contexts share no state, mirroring
// how the teacher's own node wraps one chain/state database per
// instance rather than a shared global.
type Context struct {
	opts     Options
	vm       *vm.VM
	interner *sym.Interner
	jobs     JobExecutor
	loader   ModuleLoader

	modules map[string]*Module // cache of already loaded/linked modules, keyed by the specifier string as written (the referrer is not part of the key)
}

// NewContext builds a fresh realm: a new VM with the standard built-ins
// installed (internal/builtins.Install) and either opts.JobExecutor or
// internal/jobs' own Queue backing RunJobs/RunJobsAsync.
func NewContext(opts Options) *Context {
	interner := sym.New()
	v := vm.New(interner)
	builtins.Install(v)

	if opts.Trace {
		tracer := xlog.Root().With("component", "vm")
		v.Tracer = func(pc int, ins compiler.Instruction) {
			tracer.Debug("exec", "pc", pc, "op", ins.Op, "operand", ins.Operand)
		}
	}

	je := opts.JobExecutor
	if je == nil {
		je = jobs.NewQueue()
	}

	return &Context{
		opts:     opts,
		vm:       v,
		interner: interner,
		jobs:     je,
		modules:  make(map[string]*Module),
	}
}

// SetModuleLoader installs the loader Module.LoadLinkEvaluate consults
// to resolve an import specifier to source text. Without one, any
// script or module containing an import declaration fails to link
// (spec.md §4.8 — no filesystem strategy ships by default).
func (c *Context) SetModuleLoader(l ModuleLoader) {
	c.loader = l
}

// GlobalObject exposes the realm's global object as a Value, the
// handle a host embedding the engine uses to install its own native
// functions (e.g. a `console.log` binding) before evaluating a script.
func (c *Context) GlobalObject() Value {
	return value.ObjectVal(c.vm.GlobalObject())
}

// NewFunction builds a native (Go-backed) callable Value, the handle a
// host uses to expose its own API to embedded script the way
// internal/builtins installs Array.prototype.map et al. — same
// underlying vm.NewNativeFunction seam, just reachable without the host
// importing internal/vm itself.
func (c *Context) NewFunction(name string, arity int, fn func(this Value, args []Value) (Value, error)) Value {
	return c.vm.NewNativeFunction(name, arity, fn)
}

// DefineGlobal installs a Value directly as a property of the global
// object under name — the usual way a host exposes a native function or
// constant to every script/module this Context evaluates (e.g.
// `ctx.DefineGlobal("version", engine.Value(...))` before running
// anything).
func (c *Context) DefineGlobal(name string, v Value) {
	c.vm.GlobalObject().Set(c.vm.StringKey(name), v)
}

// NewObject builds a fresh, empty plain object in this realm — the
// handle a host uses to build up a small native API surface (e.g. a
// "console" namespace holding a log function) before installing it with
// DefineGlobal.
func (c *Context) NewObject() Value {
	return value.ObjectVal(c.vm.NewPlainObject())
}

// StringKey interns name and returns the property key a caller uses
// with Value.AsObject().Set to define a property directly, without
// importing internal/value itself.
func (c *Context) StringKey(name string) value.PropertyKey {
	return c.vm.StringKey(name)
}

// ToDisplayString renders v the way an uncaught exception or a
// console.log call would — ToString for everything but Symbol, which
// has no implicit string coercion. Intended for host-side printing, not
// for a script's own String(v) semantics (internal/builtins' own
// coercions cover that).
func (c *Context) ToDisplayString(v Value) string {
	return c.vm.ToJsString(v).String()
}

// RunJobs synchronously drains the job queue — every settled promise
// reaction and generic job, then every timeout whose due time has
// already passed — per spec.md §5's ordering rule. It does not wait
// for a future timeout to become due; use RunJobsAsync for that.
func (c *Context) RunJobs() {
	for c.jobs.RunOnce() {
	}
}

// RunJobsAsync drains the queue the same way RunJobs does, but also
// sleeps until the next timeout becomes due (or ctx is cancelled)
// instead of returning as soon as nothing is immediately runnable —
// the shape a host's own long-lived event loop drives the realm with.
func (c *Context) RunJobsAsync(ctx context.Context) error {
	for {
		for c.jobs.RunOnce() {
		}
		due, ok := c.jobs.NextDeadline()
		if !ok {
			return nil
		}
		d := time.Until(due)
		if d < 0 {
			d = 0
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

package engine

// Promise is the host-facing handle Module.LoadLinkEvaluate returns.
// This engine links and evaluates a module graph synchronously (no
// asynchronous fetch exists without a filesystem/network loader wired,
// and that integration is itself a non-goal — spec.md §1), so a
// Promise returned here is always already settled by the time the
// caller sees it; it exists so the API shape matches the host contract
// a real top-level `await import(...)` would need once dynamic import
// is wired (see DESIGN.md).
type Promise struct {
	value Value
	err   error
}

// Settled always reports true for this engine's Promises: see the type
// doc comment.
func (p *Promise) Settled() bool { return true }

// Result returns the module's completion value, or the link/evaluate
// error that rejected it.
func (p *Promise) Result() (Value, error) {
	return p.value, p.err
}

// Then invokes onFulfilled or onRejected immediately, matching the
// "already settled" contract above rather than deferring through the
// job queue the way a real native Promise's reactions would.
func (p *Promise) Then(onFulfilled func(Value), onRejected func(error)) {
	if p.err != nil {
		if onRejected != nil {
			onRejected(p.err)
		}
		return
	}
	if onFulfilled != nil {
		onFulfilled(p.value)
	}
}

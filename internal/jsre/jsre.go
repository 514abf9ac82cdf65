// Package jsre is a small scripted-embedding helper, adapted from the
// teacher's own internal/jsre/console bridge: a thin wrapper around one
// engine.Context that adds the handful of host conveniences a REPL or
// test harness wants (running a file off disk, a console.log sink, and
// a loadScript helper a running script can call to pull in another file
// from the same asset directory) without pulling those conveniences
// into the engine package itself, which stays free of any filesystem or
// io.Writer dependency.
package jsre

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ecmago/ecmago/engine"
)

// JSRE bundles one realm with the asset directory its scripts load
// relative to and the writer its console.log binding prints to, the
// same three pieces of state the teacher's own JSRE carries (assetPath,
// an embedded runtime, and an output writer).
type JSRE struct {
	ctx       *engine.Context
	assetPath string
	output    io.Writer
}

// New builds a JSRE rooted at assetPath (used to resolve Exec and
// loadScript's relative paths) printing console.log output to output.
// assetPath may be "" for a JSRE that never calls Exec/loadScript.
func New(assetPath string, output io.Writer) *JSRE {
	re := &JSRE{
		ctx:       engine.NewContext(engine.Options{}),
		assetPath: assetPath,
		output:    output,
	}
	re.installGlobals()
	return re
}

// Context exposes the underlying realm for a caller that needs the full
// engine.Context API (SetModuleLoader, GlobalObject, ...) this thin
// wrapper does not re-expose.
func (re *JSRE) Context() *engine.Context { return re.ctx }

func (re *JSRE) installGlobals() {
	re.ctx.DefineGlobal("loadScript", re.ctx.NewFunction("loadScript", 1, re.loadScriptImpl))
	re.installConsole()
}

func (re *JSRE) installConsole() {
	console := re.ctx.NewObject()
	logFn := re.ctx.NewFunction("log", 0, re.consoleLog)
	console.AsObject().Set(re.ctx.StringKey("log"), logFn)
	re.ctx.DefineGlobal("console", console)
}

func (re *JSRE) consoleLog(this engine.Value, args []engine.Value) (engine.Value, error) {
	parts := make([]any, len(args))
	for i, a := range args {
		parts[i] = re.ctx.ToDisplayString(a)
	}
	fmt.Fprintln(re.output, parts...)
	return engine.Undefined(), nil
}

func (re *JSRE) loadScriptImpl(this engine.Value, args []engine.Value) (engine.Value, error) {
	if len(args) == 0 || !args[0].IsString() {
		return engine.Undefined(), fmt.Errorf("loadScript requires a file path argument")
	}
	file := args[0].AsString().String()
	if err := re.Exec(file); err != nil {
		return engine.Undefined(), err
	}
	return engine.Bool(true), nil
}

// Exec loads and evaluates file, resolved relative to assetPath, the
// way the teacher's own JSRE.Exec runs a script off disk before
// dropping into an interactive console.
func (re *JSRE) Exec(file string) error {
	data, err := os.ReadFile(filepath.Join(re.assetPath, file))
	if err != nil {
		return err
	}
	_, err = re.Run(string(data))
	return err
}

// Run evaluates src as a script in this JSRE's realm, draining any
// promise/generic jobs it scheduled (but not waiting on a still-pending
// timeout — see internal/jobs' own RunOnce doc comment) before
// returning its completion value.
func (re *JSRE) Run(src string) (engine.Value, error) {
	s, err := re.ctx.ParseScript(src)
	if err != nil {
		return engine.Undefined(), err
	}
	v, err := s.Evaluate()
	if err != nil {
		return engine.Undefined(), err
	}
	re.ctx.RunJobs()
	return v, nil
}

// Stop shuts the JSRE down. If waitForCallbacks is true it blocks until
// every already-scheduled timeout has fired and been drained
// (Context.RunJobsAsync against a background context); otherwise it
// returns immediately, leaving any still-pending timeout unrun — the
// same two-mode shutdown contract the teacher's own JSRE.Stop(waitForCallbacks
// bool) offers, minus the background event-loop goroutine this engine's
// synchronous-by-default job model does not need (see internal/jobs).
func (re *JSRE) Stop(waitForCallbacks bool) {
	if waitForCallbacks {
		_ = re.ctx.RunJobsAsync(context.Background())
	}
}

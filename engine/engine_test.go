package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvaluateArithmeticCompletionValue(t *testing.T) {
	c := NewContext(Options{})
	s, err := c.ParseScript("1 + 2 * 3;")
	require.NoError(t, err)

	v, err := s.Evaluate()
	require.NoError(t, err)
	require.True(t, v.IsNumber())
	require.Equal(t, float64(7), v.AsFloat64())
}

func TestEvaluateStringConcatenation(t *testing.T) {
	c := NewContext(Options{})
	s, err := c.ParseScript(`"foo" + "bar";`)
	require.NoError(t, err)

	v, err := s.Evaluate()
	require.NoError(t, err)
	require.True(t, v.IsString())
	require.Equal(t, "foobar", v.AsString().String())
}

func TestEvaluateFunctionDeclarationAndCall(t *testing.T) {
	c := NewContext(Options{})
	s, err := c.ParseScript(`
		function square(n) { return n * n; }
		square(5);
	`)
	require.NoError(t, err)

	v, err := s.Evaluate()
	require.NoError(t, err)
	require.Equal(t, float64(25), v.AsFloat64())
}

func TestParseScriptSyntaxError(t *testing.T) {
	c := NewContext(Options{})
	_, err := c.ParseScript("function broken( {")
	require.Error(t, err)

	ee, ok := err.(*EngineError)
	require.True(t, ok)
	require.Equal(t, ErrSyntax, ee.Kind)
	require.NotNil(t, ee.Pos)
}

func TestEvaluateUncaughtThrowIsRuntimeError(t *testing.T) {
	c := NewContext(Options{})
	s, err := c.ParseScript(`throw new TypeError("bad value");`)
	require.NoError(t, err)

	_, err = s.Evaluate()
	require.Error(t, err)

	ee, ok := err.(*EngineError)
	require.True(t, ok)
	require.Equal(t, ErrRuntime, ee.Kind)
	require.Contains(t, ee.Message, "bad value")
	require.True(t, ee.Value.IsObject())
}

func TestEvaluateThrownPrimitive(t *testing.T) {
	c := NewContext(Options{})
	s, err := c.ParseScript(`throw "just a string";`)
	require.NoError(t, err)

	_, err = s.Evaluate()
	require.Error(t, err)

	ee, ok := err.(*EngineError)
	require.True(t, ok)
	require.Equal(t, ErrRuntime, ee.Kind)
	require.Equal(t, "just a string", ee.Message)
	require.True(t, ee.Value.IsString())
}

func TestGlobalObjectIsObject(t *testing.T) {
	c := NewContext(Options{})
	g := c.GlobalObject()
	require.True(t, g.IsObject())
}

func TestEngineErrorUnwrap(t *testing.T) {
	c := NewContext(Options{})
	s, err := c.ParseScript(`throw 1;`)
	require.NoError(t, err)

	_, err = s.Evaluate()
	ee, ok := err.(*EngineError)
	require.True(t, ok)
	require.NotNil(t, ee.Unwrap())
}

// --- module linking ---

// mapModuleLoader resolves a specifier to source text from an in-memory
// map, letting tests exercise Module.LoadLinkEvaluate without touching a
// real filesystem.
type mapModuleLoader map[string]string

func (m mapModuleLoader) Resolve(specifier, _ string) (string, error) {
	src, ok := m[specifier]
	if !ok {
		return "", errNotFound(specifier)
	}
	return src, nil
}

type errNotFound string

func (e errNotFound) Error() string { return "module not found: " + string(e) }

func TestModuleNamedExport(t *testing.T) {
	c := NewContext(Options{})
	m, err := c.ParseModule(`export const answer = 42;`)
	require.NoError(t, err)

	_, err = m.LoadLinkEvaluate()
	require.NoError(t, err)

	v, ok := m.Export("answer")
	require.True(t, ok)
	require.Equal(t, float64(42), v.AsFloat64())
}

func TestModuleDefaultExportExpression(t *testing.T) {
	c := NewContext(Options{})
	m, err := c.ParseModule(`export default 99;`)
	require.NoError(t, err)

	_, err = m.LoadLinkEvaluate()
	require.NoError(t, err)

	v, ok := m.Export("default")
	require.True(t, ok)
	require.Equal(t, float64(99), v.AsFloat64())
}

func TestModuleFunctionDeclarationExportRuns(t *testing.T) {
	c := NewContext(Options{})
	m, err := c.ParseModule(`export function triple(n) { return n * 3; }`)
	require.NoError(t, err)

	_, err = m.LoadLinkEvaluate()
	require.NoError(t, err)

	fn, ok := m.Export("triple")
	require.True(t, ok)
	require.True(t, fn.IsObject())
}

func TestModuleImportNamedBinding(t *testing.T) {
	c := NewContext(Options{})
	c.SetModuleLoader(mapModuleLoader{
		"./math.js": `export const double = 21 * 2;`,
	})

	m, err := c.ParseModule(`
		import { double } from "./math.js";
		double;
	`)
	require.NoError(t, err)

	p, err := m.LoadLinkEvaluate()
	require.NoError(t, err)
	require.True(t, p.Settled())
}

func TestModuleImportMissingExportIsLinkError(t *testing.T) {
	c := NewContext(Options{})
	c.SetModuleLoader(mapModuleLoader{
		"./math.js": `export const double = 42;`,
	})

	m, err := c.ParseModule(`import { triple } from "./math.js";`)
	require.NoError(t, err)

	_, err = m.LoadLinkEvaluate()
	require.Error(t, err)
	ee, ok := err.(*EngineError)
	require.True(t, ok)
	require.Equal(t, ErrLink, ee.Kind)
}

func TestModuleWithoutLoaderFailsToLinkOnImport(t *testing.T) {
	c := NewContext(Options{})
	m, err := c.ParseModule(`import { x } from "./nowhere.js";`)
	require.NoError(t, err)

	_, err = m.LoadLinkEvaluate()
	require.Error(t, err)
}

func TestModuleCircularImportIsLinkError(t *testing.T) {
	c := NewContext(Options{})
	c.SetModuleLoader(mapModuleLoader{
		"./a.js": `import "./b.js";`,
		"./b.js": `import "./a.js";`,
	})

	m, err := c.ParseModule(`import "./a.js";`)
	require.NoError(t, err)

	_, err = m.LoadLinkEvaluate()
	require.Error(t, err)
	ee, ok := err.(*EngineError)
	require.True(t, ok)
	require.Equal(t, ErrLink, ee.Kind)
}

// --- classes, generators, async/await ---

func TestEvaluatePrivateClassFieldThroughScript(t *testing.T) {
	c := NewContext(Options{})
	s, err := c.ParseScript(`
		class Counter {
			#count = 0;
			increment() { this.#count = this.#count + 1; return this.#count; }
		}
		const c1 = new Counter();
		c1.increment();
		c1.increment();
	`)
	require.NoError(t, err)

	v, err := s.Evaluate()
	require.NoError(t, err)
	require.Equal(t, float64(2), v.AsFloat64())
}

func TestPrivateFieldAccessOutsideClassIsRejectedByParser(t *testing.T) {
	c := NewContext(Options{})
	_, err := c.ParseScript(`
		class Box { #x = 1; }
		new Box().#x;
	`)
	require.Error(t, err)
}

func TestEvaluateGeneratorYieldsSequentialValues(t *testing.T) {
	c := NewContext(Options{})
	s, err := c.ParseScript(`
		function* counter() {
			yield 1;
			yield 2;
			yield 3;
		}
		const it = counter();
		it.next().value + it.next().value + it.next().value;
	`)
	require.NoError(t, err)

	v, err := s.Evaluate()
	require.NoError(t, err)
	require.Equal(t, float64(6), v.AsFloat64())
}

func TestEvaluateAsyncFunctionReturnsPromiseWithThen(t *testing.T) {
	c := NewContext(Options{})
	s, err := c.ParseScript(`
		async function g() {
			const v = await 2;
			return 1 + v;
		}
		let seen = 0;
		g().then(function(v) { seen = v; return v; });
		seen;
	`)
	require.NoError(t, err)

	v, err := s.Evaluate()
	require.NoError(t, err)
	require.Equal(t, float64(3), v.AsFloat64())
}

func TestEvaluateAsyncFunctionRejectionReachesCatchHandler(t *testing.T) {
	c := NewContext(Options{})
	s, err := c.ParseScript(`
		async function g() { throw "boom"; }
		let handled = "";
		g().then(function(v) { return v; }, function(e) { handled = "handled: " + e; return handled; });
		handled;
	`)
	require.NoError(t, err)

	v, err := s.Evaluate()
	require.NoError(t, err)
	require.Equal(t, "handled: boom", v.AsString().String())
}

// --- job queue ---

func TestRunJobsDrainsPromiseAndGenericJobs(t *testing.T) {
	c := NewContext(Options{})
	ran := false
	c.jobs.EnqueuePromiseJob(func() { ran = true })
	c.RunJobs()
	require.True(t, ran)
	require.False(t, c.jobs.Pending())
}

func TestRunJobsAsyncWaitsForTimeout(t *testing.T) {
	c := NewContext(Options{})
	ran := false
	c.jobs.EnqueueTimeout(20*time.Millisecond, func() { ran = true })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.RunJobsAsync(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunJobsAsync did not return")
	}
	require.True(t, ran)
}

func TestRunJobsAsyncRespectsCancellation(t *testing.T) {
	c := NewContext(Options{})
	c.jobs.EnqueueTimeout(time.Hour, func() {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.RunJobsAsync(ctx)
	require.Error(t, err)
}

// --- Promise ---

func TestPromiseAlwaysSettled(t *testing.T) {
	c := NewContext(Options{})
	m, err := c.ParseModule(`export default 1;`)
	require.NoError(t, err)

	p, err := m.LoadLinkEvaluate()
	require.NoError(t, err)
	require.True(t, p.Settled())

	fulfilled := false
	p.Then(func(Value) { fulfilled = true }, nil)
	require.True(t, fulfilled)
}

func TestPromiseThenOnRejected(t *testing.T) {
	c := NewContext(Options{})
	m, err := c.ParseModule(`import { x } from "./nowhere.js";`)
	require.NoError(t, err)

	p, _ := m.LoadLinkEvaluate()
	rejected := false
	p.Then(nil, func(error) { rejected = true })
	require.True(t, rejected)
}

package vm

import (
	"testing"

	"github.com/ecmago/ecmago/internal/compiler"
	"github.com/ecmago/ecmago/internal/parser"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/value"
	"github.com/stretchr/testify/require"
)

// run parses, compiles and executes src as a script against a fresh VM
// with no built-ins installed — this package's own tests exercise the
// interpreter loop itself, not internal/builtins' library surface.
func run(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	interner := sym.New()
	s, err := parser.ParseScript(src, interner)
	require.NoError(t, err)
	cb := compiler.Compile(s.Body, interner)
	v := New(interner)
	return v.RunProgram(cb)
}

func TestArithmetic(t *testing.T) {
	cases := map[string]float64{
		"1 + 2;":       3,
		"10 - 4;":      6,
		"3 * 4;":       12,
		"10 / 4;":      2.5,
		"10 % 3;":      1,
		"2 ** 10;":     1024,
		"(1 + 2) * 3;": 9,
		"-5 + 10;":     5,
	}
	for src, want := range cases {
		v, err := run(t, src)
		require.NoError(t, err, src)
		require.True(t, v.IsNumber(), src)
		require.Equal(t, want, v.AsFloat64(), src)
	}
}

func TestStringConcatenation(t *testing.T) {
	v, err := run(t, `"foo" + "bar" + 1;`)
	require.NoError(t, err)
	require.Equal(t, "foobar1", v.AsString().String())
}

func TestVariableDeclarationsAndReassignment(t *testing.T) {
	v, err := run(t, `
		let x = 1;
		x = x + 41;
		x;
	`)
	require.NoError(t, err)
	require.Equal(t, float64(42), v.AsFloat64())
}

func TestIfElse(t *testing.T) {
	v, err := run(t, `
		let x = 5;
		let result;
		if (x > 10) { result = "big"; } else { result = "small"; }
		result;
	`)
	require.NoError(t, err)
	require.Equal(t, "small", v.AsString().String())
}

func TestWhileLoop(t *testing.T) {
	v, err := run(t, `
		let i = 0;
		let sum = 0;
		while (i < 5) { sum = sum + i; i = i + 1; }
		sum;
	`)
	require.NoError(t, err)
	require.Equal(t, float64(10), v.AsFloat64())
}

func TestForLoop(t *testing.T) {
	v, err := run(t, `
		let sum = 0;
		for (let i = 0; i < 5; i = i + 1) { sum = sum + i; }
		sum;
	`)
	require.NoError(t, err)
	require.Equal(t, float64(10), v.AsFloat64())
}

func TestFunctionCallAndReturn(t *testing.T) {
	v, err := run(t, `
		function add(a, b) { return a + b; }
		add(3, 4);
	`)
	require.NoError(t, err)
	require.Equal(t, float64(7), v.AsFloat64())
}

func TestClosureCapturesOuterVariable(t *testing.T) {
	v, err := run(t, `
		function makeCounter() {
			let count = 0;
			return function() {
				count = count + 1;
				return count;
			};
		}
		let counter = makeCounter();
		counter();
		counter();
		counter();
	`)
	require.NoError(t, err)
	require.Equal(t, float64(3), v.AsFloat64())
}

func TestRecursion(t *testing.T) {
	v, err := run(t, `
		function fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		fib(10);
	`)
	require.NoError(t, err)
	require.Equal(t, float64(55), v.AsFloat64())
}

func TestObjectLiteralAndPropertyAccess(t *testing.T) {
	v, err := run(t, `
		let obj = { a: 1, b: 2 };
		obj.a + obj["b"];
	`)
	require.NoError(t, err)
	require.Equal(t, float64(3), v.AsFloat64())
}

func TestArrayLiteralAndIndexing(t *testing.T) {
	v, err := run(t, `
		let arr = [1, 2, 3];
		arr[0] + arr[2];
	`)
	require.NoError(t, err)
	require.Equal(t, float64(4), v.AsFloat64())
}

func TestTryCatchCatchesThrow(t *testing.T) {
	v, err := run(t, `
		let result;
		try {
			throw "boom";
		} catch (e) {
			result = "caught: " + e;
		}
		result;
	`)
	require.NoError(t, err)
	require.Equal(t, "caught: boom", v.AsString().String())
}

func TestTryFinallyAlwaysRuns(t *testing.T) {
	v, err := run(t, `
		let log = "";
		try {
			log = log + "try";
		} finally {
			log = log + "-finally";
		}
		log;
	`)
	require.NoError(t, err)
	require.Equal(t, "try-finally", v.AsString().String())
}

func TestUncaughtThrowReturnsError(t *testing.T) {
	_, err := run(t, `throw "uncaught";`)
	require.Error(t, err)
	thrown, ok := err.(*ThrownError)
	require.True(t, ok)
	require.True(t, thrown.Value.IsString())
	require.Equal(t, "uncaught", thrown.Value.AsString().String())
}

func TestClassInstantiationAndMethodCall(t *testing.T) {
	v, err := run(t, `
		class Point {
			constructor(x, y) {
				this.x = x;
				this.y = y;
			}
			sum() {
				return this.x + this.y;
			}
		}
		let p = new Point(3, 4);
		p.sum();
	`)
	require.NoError(t, err)
	require.Equal(t, float64(7), v.AsFloat64())
}

func TestClassInheritance(t *testing.T) {
	v, err := run(t, `
		class Animal {
			constructor(name) { this.name = name; }
			speak() { return this.name + " makes a sound"; }
		}
		class Dog extends Animal {
			speak() { return this.name + " barks"; }
		}
		new Dog("Rex").speak();
	`)
	require.NoError(t, err)
	require.Equal(t, "Rex barks", v.AsString().String())
}

func TestTernaryAndLogicalOperators(t *testing.T) {
	v, err := run(t, `(1 < 2 ? "yes" : "no") + (true && "and") + (false || "or");`)
	require.NoError(t, err)
	require.Equal(t, "yesandor", v.AsString().String())
}

func TestTypeofOperator(t *testing.T) {
	v, err := run(t, `typeof 1 + " " + typeof "s" + " " + typeof undefined;`)
	require.NoError(t, err)
	require.Equal(t, "number string undefined", v.AsString().String())
}

func TestDestructuringAssignment(t *testing.T) {
	v, err := run(t, `
		let [a, b] = [10, 20];
		let {c, d} = {c: 1, d: 2};
		a + b + c + d;
	`)
	require.NoError(t, err)
	require.Equal(t, float64(33), v.AsFloat64())
}

func TestTemplateLiteral(t *testing.T) {
	v, err := run(t, "let name = \"world\"; `hello ${name}!`;")
	require.NoError(t, err)
	require.Equal(t, "hello world!", v.AsString().String())
}

func TestSpreadInCall(t *testing.T) {
	v, err := run(t, `
		function sum3(a, b, c) { return a + b + c; }
		let args = [1, 2, 3];
		sum3(...args);
	`)
	require.NoError(t, err)
	require.Equal(t, float64(6), v.AsFloat64())
}

func TestRegExpLiteralProperties(t *testing.T) {
	v, err := run(t, "/ab+c/gi;")
	require.NoError(t, err)
	require.True(t, v.IsObject())
	require.Equal(t, value.KindObjectRegExp, v.AsObject().Kind())
	cr, ok := v.AsObject().Data().(*value.CompiledRegexp)
	require.True(t, ok)
	require.Equal(t, "ab+c", cr.Source)
	require.Equal(t, "gi", cr.Flags)
	require.True(t, cr.Global)
	require.True(t, cr.Test("xabbbcx"))
	require.False(t, cr.Test("xyz"))
}

func TestRegExpLiteralProducesFreshObjectPerEvaluation(t *testing.T) {
	v, err := run(t, `
		function make() { return /x/; }
		make() === make();
	`)
	require.NoError(t, err)
	require.False(t, v.AsBool())
}

func TestGeneratorYieldsValuesAcrossNextCalls(t *testing.T) {
	v, err := run(t, `
		function* gen() {
			yield 1;
			yield 2;
			return 3;
		}
		let g = gen();
		let a = g.next().value;
		let b = g.next().value;
		let c = g.next();
		a + b + c.value + (c.done ? 100 : 0);
	`)
	require.NoError(t, err)
	require.Equal(t, float64(106), v.AsFloat64())
}

func TestGeneratorYieldReceivesSentValue(t *testing.T) {
	v, err := run(t, `
		function* gen() {
			let x = yield 1;
			return x + 10;
		}
		let g = gen();
		g.next();
		g.next(5).value;
	`)
	require.NoError(t, err)
	require.Equal(t, float64(15), v.AsFloat64())
}

// TestAsyncAwaitPromiseThen matches spec.md §8 scenario 5:
// `async function g(){ return 1 + await 2; } g().then(v => v)` — the
// returned promise resolves to 3.
func TestAsyncAwaitPromiseThen(t *testing.T) {
	v, err := run(t, `
		async function g() { return 1 + await 2; }
		g().then(function(v) { return v; });
	`)
	require.NoError(t, err)
	require.True(t, v.IsObject())
	require.Equal(t, value.KindObjectPromise, v.AsObject().Kind())
	pd, ok := v.AsObject().Data().(*promiseData)
	require.True(t, ok)
	require.True(t, pd.fulfilled)
	require.Equal(t, float64(3), pd.result.AsFloat64())
}

func TestAsyncFunctionRejectsOnThrow(t *testing.T) {
	v, err := run(t, `
		async function g() { throw "boom"; }
		g().then(function(v) { return v; }, function(e) { return "handled: " + e; });
	`)
	require.NoError(t, err)
	pd, ok := v.AsObject().Data().(*promiseData)
	require.True(t, ok)
	require.True(t, pd.fulfilled)
	require.Equal(t, "handled: boom", pd.result.AsString().String())
}

// TestPrivateClassFieldValue matches spec.md §8 scenario 4's first half:
// `class A { #x = 5; get(){ return this.#x; } } new A().get()` evaluates
// to 5 (the second half — that `new A().#x` from outside the class is a
// syntax error — is covered by internal/parser's own tests).
func TestPrivateClassFieldValue(t *testing.T) {
	v, err := run(t, `
		class A {
			#x = 5;
			get() { return this.#x; }
		}
		new A().get();
	`)
	require.NoError(t, err)
	require.Equal(t, float64(5), v.AsFloat64())
}

func TestPrivateClassFieldSetter(t *testing.T) {
	v, err := run(t, `
		class Counter {
			#n = 0;
			inc() { this.#n = this.#n + 1; return this.#n; }
		}
		let c = new Counter();
		c.inc();
		c.inc();
	`)
	require.NoError(t, err)
	require.Equal(t, float64(2), v.AsFloat64())
}

// TestLetShadowsOuterBinding matches spec.md §8 scenario 1.
func TestLetShadowsOuterBinding(t *testing.T) {
	v, err := run(t, `let x = 1; { let x = 2; } x;`)
	require.NoError(t, err)
	require.Equal(t, float64(1), v.AsFloat64())
}

// TestReferenceErrorMessageForBlockScopedName matches spec.md §8
// scenario 2: a block-scoped `let` does not leak past its block, and the
// resulting ReferenceError's message names the identifier.
func TestReferenceErrorMessageForBlockScopedName(t *testing.T) {
	v, err := run(t, `
		{ let bar = "bar"; }
		try { bar; } catch (e) { e.message; }
	`)
	require.NoError(t, err)
	require.Equal(t, "bar is not defined", v.AsString().String())
}

// TestLaterFunctionDeclarationWins matches spec.md §8 scenario 3.
func TestLaterFunctionDeclarationWins(t *testing.T) {
	v, err := run(t, `
		function f() { return 1; }
		function f() { return 2; }
		f();
	`)
	require.NoError(t, err)
	require.Equal(t, float64(2), v.AsFloat64())
}

// TestTryCatchFinallyRunsOnce matches spec.md §8 scenario 6: the
// expression evaluates to 7, with the finally block observed to run
// exactly once.
func TestTryCatchFinallyRunsOnce(t *testing.T) {
	v, err := run(t, `
		let finallyRuns = 0;
		let result;
		try {
			throw 7;
		} catch (e) {
			result = e;
		} finally {
			finallyRuns = finallyRuns + 1;
		}
		result === 7 && finallyRuns === 1;
	`)
	require.NoError(t, err)
	require.True(t, v.AsBool())
}

// TestInlineCacheAcrossManyInstances exercises the property inline
// cache's hot path: many instances sharing one class
// prototype, each calling an inherited method. A caching bug would
// show up as a wrong sum, not a crash, since a stale/incorrect cache
// entry here would silently serve the wrong method or `undefined`.
func TestInlineCacheAcrossManyInstances(t *testing.T) {
	v, err := run(t, `
		class Counter {
			constructor(n) { this.n = n; }
			double() { return this.n * 2; }
		}
		let total = 0;
		for (let i = 0; i < 50; i = i + 1) {
			let c = new Counter(i);
			total = total + c.double();
		}
		total;
	`)
	require.NoError(t, err)
	require.Equal(t, float64(2450), v.AsFloat64())
}

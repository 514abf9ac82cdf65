package parser

import (
	"testing"

	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/stretchr/testify/require"
)

func TestPrivateFieldAccessOutsideClassIsSyntaxError(t *testing.T) {
	interner := sym.New()
	_, err := ParseScript(`new A().#x;`, interner)
	require.Error(t, err)
}

func TestPrivateFieldAccessInsideClassBodyParses(t *testing.T) {
	interner := sym.New()
	_, err := ParseScript(`
		class A {
			#x = 5;
			get() { return this.#x; }
		}
	`, interner)
	require.NoError(t, err)
}

// TestArrowRestParamLengthMetadata matches spec.md §8 scenario 7:
// `(a, b, ...c) => a + b` parses as three formal parameters, the last
// a rest pattern, which is what gives the compiled function a
// `.length` of 2 (CodeBlock.Arity stops counting at the first rest
// parameter).
func TestArrowRestParamLengthMetadata(t *testing.T) {
	interner := sym.New()
	expr, err := ParseExpressionForTesting(`(a, b, ...c) => a + b`, interner)
	require.NoError(t, err)
	arrow, ok := expr.(*ast.ArrowFunctionExpression)
	require.True(t, ok)
	require.Len(t, arrow.Params, 3)
	_, ok = arrow.Params[0].(*ast.IdentifierPattern)
	require.True(t, ok)
	_, ok = arrow.Params[1].(*ast.IdentifierPattern)
	require.True(t, ok)
	rest, ok := arrow.Params[2].(*ast.RestPattern)
	require.True(t, ok)
	_, ok = rest.Target.(*ast.IdentifierPattern)
	require.True(t, ok)
}

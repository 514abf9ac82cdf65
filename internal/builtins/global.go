package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/ecmago/ecmago/internal/value"
	"github.com/ecmago/ecmago/internal/vm"
)

// installGlobalFunctions wires the handful of free functions that live
// directly on the global object rather than on any namespace object
// (parseInt/parseFloat/isNaN/isFinite), plus a "globalThis" binding to
// itself.
func installGlobalFunctions(v *vm.VM) {
	g := v.GlobalObject()

	g.Set(v.StringKey("globalThis"), value.ObjectVal(g))

	g.Set(v.StringKey("parseInt"), v.NewNativeFunction("parseInt", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		s := strings.TrimSpace(v.ToJsString(arg(args, 0)).String())
		radix := int(v.ToNumber(arg(args, 1)))
		neg := false
		if strings.HasPrefix(s, "+") {
			s = s[1:]
		} else if strings.HasPrefix(s, "-") {
			neg = true
			s = s[1:]
		}
		if radix == 0 {
			if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
				radix = 16
				s = s[2:]
			} else {
				radix = 10
			}
		} else if radix == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			s = s[2:]
		}
		end := 0
		for end < len(s) && digitValue(s[end]) < radix {
			end++
		}
		if end == 0 {
			return value.Float64(math.NaN()), nil
		}
		n, err := strconv.ParseInt(s[:end], radix, 64)
		if err != nil {
			// overflow: fall back to a float accumulation
			f := 0.0
			for i := 0; i < end; i++ {
				f = f*float64(radix) + float64(digitValue(s[i]))
			}
			if neg {
				f = -f
			}
			return value.Float64(f), nil
		}
		if neg {
			n = -n
		}
		return value.Float64(float64(n)), nil
	}))

	g.Set(v.StringKey("parseFloat"), v.NewNativeFunction("parseFloat", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		s := strings.TrimSpace(v.ToJsString(arg(args, 0)).String())
		end := 0
		seenDot, seenExp, seenDigit := false, false, false
		for end < len(s) {
			c := s[end]
			switch {
			case c >= '0' && c <= '9':
				seenDigit = true
			case c == '.' && !seenDot && !seenExp:
				seenDot = true
			case (c == '+' || c == '-') && (end == 0 || s[end-1] == 'e' || s[end-1] == 'E'):
			case (c == 'e' || c == 'E') && seenDigit && !seenExp:
				seenExp = true
			default:
				goto done
			}
			end++
		}
	done:
		if !seenDigit {
			return value.Float64(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return value.Float64(math.NaN()), nil
		}
		return value.Float64(f), nil
	}))

	g.Set(v.StringKey("isNaN"), v.NewNativeFunction("isNaN", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		f := v.ToNumber(arg(args, 0))
		return value.Bool(f != f), nil
	}))

	g.Set(v.StringKey("isFinite"), v.NewNativeFunction("isFinite", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		f := v.ToNumber(arg(args, 0))
		return value.Bool(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
	}))
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 99
	}
}

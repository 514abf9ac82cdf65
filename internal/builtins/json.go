package builtins

import (
	"strconv"
	"strings"

	"github.com/ecmago/ecmago/internal/value"
	"github.com/ecmago/ecmago/internal/vm"
)

// installJSON wires JSON.stringify/JSON.parse directly against the
// value.Value model: encoding/json cannot represent a Value (no Go
// struct backs a JS object, and round-tripping through interface{}
// would lose the engine's own number/BigInt/object-identity
// distinctions), so both directions are written by hand here, the same
// way spec.md singles this component out as stdlib-free by design.
func installJSON(v *vm.VM) {
	obj := v.NewPlainObject()

	v.DefineMethod(obj, "stringify", 3, func(this value.Value, args []value.Value) (value.Value, error) {
		var b strings.Builder
		ok, err := stringifyValue(v, &b, arg(args, 0), make(map[*value.Object]bool))
		if err != nil {
			return value.Undefined(), err
		}
		if !ok {
			return value.Undefined(), nil
		}
		return value.StringVal(jsNew(b.String())), nil
	})

	v.DefineMethod(obj, "parse", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		s := v.ToJsString(arg(args, 0)).String()
		p := &jsonParser{v: v, s: s}
		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return value.Undefined(), err
		}
		p.skipSpace()
		if p.pos != len(p.s) {
			return value.Undefined(), v.ThrowError("SyntaxError", "unexpected trailing characters in JSON")
		}
		return val, nil
	})

	v.GlobalObject().Set(v.StringKey("JSON"), value.ObjectVal(obj))
}

// stringifyValue implements the core of JSON.stringify's Str abstract
// operation: undefined/function values are omitted entirely (reported
// via the bool return so an object's own property-install loop can
// skip them), everything else is serialized per ECMA-262 §25.5.2.
func stringifyValue(v *vm.VM, b *strings.Builder, val value.Value, seen map[*value.Object]bool) (bool, error) {
	if val.IsObject() && val.AsObject().IsCallable() {
		return false, nil
	}
	switch val.Kind() {
	case value.KindUndefined:
		return false, nil
	case value.KindNull:
		b.WriteString("null")
		return true, nil
	case value.KindBoolean:
		if val.AsBool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		return true, nil
	case value.KindInteger32, value.KindFloat64:
		f := val.AsFloat64()
		if f != f || f > 1e308*10 || f < -1e308*10 {
			b.WriteString("null")
		} else {
			b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return true, nil
	case value.KindString:
		writeJSONString(b, val.AsString().String())
		return true, nil
	case value.KindBigInt:
		return false, v.ThrowTypeError("do not know how to serialize a BigInt")
	case value.KindObject:
		o := val.AsObject()
		if seen[o] {
			return false, v.ThrowTypeError("converting circular structure to JSON")
		}
		seen[o] = true
		defer delete(seen, o)
		if o.Kind() == value.KindObjectArray {
			return true, stringifyArray(v, b, o, seen)
		}
		return true, stringifyObject(v, b, o, seen)
	default:
		return false, nil
	}
}

func stringifyArray(v *vm.VM, b *strings.Builder, o *value.Object, seen map[*value.Object]bool) error {
	n := v.ArrayLength(o)
	b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		ev, err := v.GetProperty(value.ObjectVal(o), value.IndexKey(uint32(i)))
		if err != nil {
			return err
		}
		ok, err := stringifyValue(v, b, ev, seen)
		if err != nil {
			return err
		}
		if !ok {
			b.WriteString("null")
		}
	}
	b.WriteByte(']')
	return nil
}

func stringifyObject(v *vm.VM, b *strings.Builder, o *value.Object, seen map[*value.Object]bool) error {
	b.WriteByte('{')
	first := true
	for _, k := range o.Properties().OwnKeys() {
		if k.Kind() == value.KeySymbol {
			continue
		}
		d, _ := o.Properties().GetOwn(k)
		if !d.Enumerable {
			continue
		}
		pv, err := v.GetProperty(value.ObjectVal(o), k)
		if err != nil {
			return err
		}
		var sub strings.Builder
		ok, err := stringifyValue(v, &sub, pv, seen)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		writeJSONString(b, v.ResolveKeyName(k))
		b.WriteByte(':')
		b.WriteString(sub.String())
	}
	b.WriteByte('}')
	return nil
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u`)
				b.WriteString(strconv.FormatInt(int64(r), 16))
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// jsonParser is a small hand-written recursive-descent JSON parser
// producing value.Value results directly, mirroring the engine's own
// lexer/parser style (internal/parser) rather than reaching for a
// third-party JSON library that would hand back interface{} instead.
type jsonParser struct {
	v   *vm.VM
	s   string
	pos int
}

func (p *jsonParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) fail(msg string) error {
	return p.v.ThrowError("SyntaxError", msg+" in JSON at position "+strconv.Itoa(p.pos))
}

func (p *jsonParser) parseValue() (value.Value, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return value.Undefined(), p.fail("unexpected end of JSON input")
	}
	switch c := p.s[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return value.Undefined(), err
		}
		return value.StringVal(jsNew(s)), nil
	case c == 't':
		return p.parseLiteral("true", value.Bool(true))
	case c == 'f':
		return p.parseLiteral("false", value.Bool(false))
	case c == 'n':
		return p.parseLiteral("null", value.Null())
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return value.Undefined(), p.fail("unexpected token")
	}
}

func (p *jsonParser) parseLiteral(lit string, val value.Value) (value.Value, error) {
	if p.pos+len(lit) > len(p.s) || p.s[p.pos:p.pos+len(lit)] != lit {
		return value.Undefined(), p.fail("invalid literal")
	}
	p.pos += len(lit)
	return val, nil
}

func (p *jsonParser) parseNumber() (value.Value, error) {
	start := p.pos
	if p.s[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
		p.pos++
	}
	if p.pos < len(p.s) && p.s[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
			p.pos++
		}
	}
	if p.pos < len(p.s) && (p.s[p.pos] == 'e' || p.s[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.s) && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
			p.pos++
		}
		for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
			p.pos++
		}
	}
	f, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return value.Undefined(), p.fail("invalid number")
	}
	return value.Float64(f), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *jsonParser) parseString() (string, error) {
	if p.s[p.pos] != '"' {
		return "", p.fail("expected string")
	}
	p.pos++
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.s) {
				break
			}
			switch p.s[p.pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if p.pos+4 >= len(p.s) {
					return "", p.fail("invalid unicode escape")
				}
				n, err := strconv.ParseUint(p.s[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return "", p.fail("invalid unicode escape")
				}
				b.WriteRune(rune(n))
				p.pos += 4
			default:
				return "", p.fail("invalid escape")
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", p.fail("unterminated string")
}

func (p *jsonParser) parseArray() (value.Value, error) {
	p.pos++ // '['
	var elems []value.Value
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ']' {
		p.pos++
		return p.v.NewArrayFromElements(elems), nil
	}
	for {
		val, err := p.parseValue()
		if err != nil {
			return value.Undefined(), err
		}
		elems = append(elems, val)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return value.Undefined(), p.fail("unexpected end of JSON input")
		}
		if p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.s[p.pos] == ']' {
			p.pos++
			return p.v.NewArrayFromElements(elems), nil
		}
		return value.Undefined(), p.fail("expected ',' or ']'")
	}
}

func (p *jsonParser) parseObject() (value.Value, error) {
	p.pos++ // '{'
	o := p.v.NewPlainObject()
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '}' {
		p.pos++
		return value.ObjectVal(o), nil
	}
	for {
		p.skipSpace()
		key, err := p.parseString()
		if err != nil {
			return value.Undefined(), err
		}
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != ':' {
			return value.Undefined(), p.fail("expected ':'")
		}
		p.pos++
		val, err := p.parseValue()
		if err != nil {
			return value.Undefined(), err
		}
		o.Set(p.v.StringKey(key), val)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return value.Undefined(), p.fail("unexpected end of JSON input")
		}
		if p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.s[p.pos] == '}' {
			p.pos++
			return value.ObjectVal(o), nil
		}
		return value.Undefined(), p.fail("expected ',' or '}'")
	}
}

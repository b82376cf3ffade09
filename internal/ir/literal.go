package ir

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Parse parses a value literal without an expected type.
// Bits literals carry their width, so no signature context is required.
func Parse(text string) (Value, error) {
	return parseWith(text, nil)
}

// ParseTyped parses a value literal that must conform to t.
//
// Fails with WIDTH_MISMATCH when a bits literal's width differs from the
// expected width, ARITY_MISMATCH when a tuple or array element count
// differs, and TYPE_MISMATCH when the literal is of a different kind.
func ParseTyped(text string, t Type) (Value, error) {
	return parseWith(text, &t)
}

// MustParse is like Parse but panics on error.
// Use only in tests or with constant literal text.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

func parseWith(text string, expected *Type) (Value, error) {
	p := newParser(text)
	v, err := p.parseValue(expected)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.done() {
		return nil, p.malformed("unexpected trailing text %q", p.rest())
	}
	return v, nil
}

// ParseArgs parses a flat argument list: per-parameter literals separated
// by ';'. Literal i is parsed against types[i] when present; literals
// beyond the end of types are parsed untyped so that arity problems are
// reported by the evaluator against the function signature.
//
// Blank text yields an empty argument list.
func ParseArgs(text string, types []Type) (Args, error) {
	pieces, err := splitArgs(text)
	if err != nil {
		return nil, err
	}
	args := make(Args, 0, len(pieces))
	for i, piece := range pieces {
		var v Value
		if i < len(types) {
			v, err = ParseTyped(piece, types[i])
		} else {
			v, err = Parse(piece)
		}
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args = append(args, v)
	}
	return args, nil
}

// splitArgs splits on ';' at nesting depth zero and trims each piece.
func splitArgs(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var pieces []string
	depth, start := 0, 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ';':
			if depth == 0 {
				pieces = append(pieces, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	pieces = append(pieces, strings.TrimSpace(text[start:]))
	for i, p := range pieces {
		if p == "" {
			return nil, NewError(MalformedLiteral, "empty literal at argument %d in %q", i, text)
		}
	}
	return pieces, nil
}

// Format returns the canonical literal text for v.
//
// Bits payloads are printed in lower-case hex with '_' between groups of
// four digits counted from the least significant digit, matching the
// form downstream tools compare against.
func Format(v Value) string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, v Value) {
	switch val := v.(type) {
	case Bits:
		fmt.Fprintf(sb, "bits[%d]:", val.width)
		sb.WriteString(formatHex(val.payload()))
	case Tuple:
		sb.WriteByte('(')
		for i, e := range val.elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, e)
		}
		sb.WriteByte(')')
	case Array:
		sb.WriteByte('[')
		for i, e := range val.elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, e)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString("<nil>")
	}
}

func formatHex(n *big.Int) string {
	digits := n.Text(16)
	if len(digits) <= 4 {
		return "0x" + digits
	}
	var sb strings.Builder
	sb.WriteString("0x")
	lead := len(digits) % 4
	if lead == 0 {
		lead = 4
	}
	sb.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 4 {
		sb.WriteByte('_')
		sb.WriteString(digits[i : i+4])
	}
	return sb.String()
}

// parser is a small recursive-descent reader over literal and type text.
type parser struct {
	src string
	pos int
}

func newParser(src string) *parser {
	return &parser{src: src}
}

func (p *parser) done() bool { return p.pos >= len(p.src) }

func (p *parser) rest() string { return p.src[p.pos:] }

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.done() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// consume advances past s if the remaining input starts with it.
func (p *parser) consume(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.rest(), s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) expect(s string) error {
	if !p.consume(s) {
		if p.done() {
			return p.malformed("expected %q, got end of input", s)
		}
		return p.malformed("expected %q at offset %d", s, p.pos)
	}
	return nil
}

func (p *parser) malformed(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return NewError(MalformedLiteral, "malformed literal %q: %s", p.src, msg)
}

// parseInt reads a non-negative decimal integer (widths, sizes).
func (p *parser) parseInt() (int, error) {
	p.skipSpace()
	start := p.pos
	for !p.done() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, p.malformed("expected integer at offset %d", start)
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return 0, p.malformed("integer %q out of range", p.src[start:p.pos])
	}
	return n, nil
}

// parseNumber reads a hex (0x), binary (0b), or decimal payload.
func (p *parser) parseNumber() (*big.Int, error) {
	p.skipSpace()
	start := p.pos
	for !p.done() && isNumberByte(p.src[p.pos]) {
		p.pos++
	}
	tok := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	base := 10
	switch {
	case strings.HasPrefix(tok, "0x"), strings.HasPrefix(tok, "0X"):
		base, tok = 16, tok[2:]
	case strings.HasPrefix(tok, "0b"), strings.HasPrefix(tok, "0B"):
		base, tok = 2, tok[2:]
	}
	if tok == "" {
		return nil, p.malformed("expected number at offset %d", start)
	}
	n, ok := new(big.Int).SetString(tok, base)
	if !ok {
		return nil, p.malformed("invalid number %q", p.src[start:p.pos])
	}
	return n, nil
}

func isNumberByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (p *parser) parseType() (Type, error) {
	p.skipSpace()
	var t Type
	switch {
	case p.consume("("):
		var elems []Type
		if !p.consume(")") {
			for {
				e, err := p.parseType()
				if err != nil {
					return Type{}, err
				}
				elems = append(elems, e)
				if p.consume(")") {
					break
				}
				if err := p.expect(","); err != nil {
					return Type{}, err
				}
			}
		}
		t = TupleType(elems...)
	case p.consume("bits["):
		w, err := p.parseInt()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect("]"); err != nil {
			return Type{}, err
		}
		t = BitsType(w)
	default:
		return Type{}, p.malformed("expected type at offset %d", p.pos)
	}
	for p.consume("[") {
		n, err := p.parseInt()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect("]"); err != nil {
			return Type{}, err
		}
		t = ArrayType(t, n)
	}
	return t, nil
}

func (p *parser) parseValue(expected *Type) (Value, error) {
	p.skipSpace()
	switch p.peek() {
	case 'b':
		return p.parseBits(expected)
	case '(':
		return p.parseTuple(expected)
	case '[':
		return p.parseArray(expected)
	case 0:
		return nil, p.malformed("expected value, got end of input")
	default:
		return nil, p.malformed("expected value at offset %d", p.pos)
	}
}

func (p *parser) parseBits(expected *Type) (Value, error) {
	if err := p.expect("bits["); err != nil {
		return nil, err
	}
	w, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	n, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if expected != nil {
		if expected.Kind() != KindBits {
			return nil, NewError(TypeMismatch, "literal bits[%d] does not match expected type %s", w, expected)
		}
		if expected.Width() != w {
			return nil, NewError(WidthMismatch, "literal width bits[%d] does not match expected type %s", w, expected)
		}
	}
	b, err := NewBits(w, n)
	if err != nil {
		return nil, p.malformed("value 0x%x does not fit in bits[%d]", n, w)
	}
	return b, nil
}

func (p *parser) parseTuple(expected *Type) (Value, error) {
	if expected != nil && expected.Kind() != KindTuple {
		return nil, NewError(TypeMismatch, "tuple literal does not match expected type %s", expected)
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var elems []Value
	if !p.consume(")") {
		for {
			v, err := p.parseValue(elementType(expected, len(elems)))
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
			if p.consume(")") {
				break
			}
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
	}
	if expected != nil && len(elems) != expected.Size() {
		return nil, NewError(ArityMismatch, "tuple literal has %d elements, expected type %s has %d",
			len(elems), expected, expected.Size())
	}
	return NewTuple(elems...), nil
}

func (p *parser) parseArray(expected *Type) (Value, error) {
	if expected != nil && expected.Kind() != KindArray {
		return nil, NewError(TypeMismatch, "array literal does not match expected type %s", expected)
	}
	if err := p.expect("["); err != nil {
		return nil, err
	}
	var elems []Value
	for {
		v, err := p.parseValue(elementType(expected, len(elems)))
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
		if p.consume("]") {
			break
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
	if expected != nil && len(elems) != expected.Size() {
		return nil, NewError(ArityMismatch, "array literal has %d elements, expected type %s has %d",
			len(elems), expected, expected.Size())
	}
	arr, err := NewArray(elems...)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

// elementType returns the expected type of element i of a tuple or array,
// or nil when there is no expectation (untyped parse or surplus element).
func elementType(expected *Type, i int) *Type {
	if expected == nil {
		return nil
	}
	switch expected.Kind() {
	case KindTuple:
		if i < len(expected.elems) {
			e := expected.elems[i]
			return &e
		}
	case KindArray:
		e := expected.Element()
		return &e
	}
	return nil
}

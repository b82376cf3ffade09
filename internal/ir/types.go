package ir

import (
	"fmt"
	"strings"
)

// Kind identifies which variant of the value model a Type or Value belongs to.
type Kind int

const (
	KindBits Kind = iota
	KindTuple
	KindArray
)

// String returns the lower-case kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindBits:
		return "bits"
	case KindTuple:
		return "tuple"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Type describes the shape of a Value: a bit width, a tuple of element
// types, or a fixed-length array of one element type.
//
// Types are immutable. The zero Type is bits[0].
type Type struct {
	kind  Kind
	width int    // KindBits
	elems []Type // KindTuple
	elem  *Type  // KindArray
	size  int    // KindArray
}

// BitsType returns the type bits[width].
// Panics if width is negative; widths come from parsed text or
// other types, both of which are validated first.
func BitsType(width int) Type {
	if width < 0 {
		panic(fmt.Sprintf("ir: negative bit width %d", width))
	}
	return Type{kind: KindBits, width: width}
}

// TupleType returns the tuple type of the given element types.
func TupleType(elems ...Type) Type {
	return Type{kind: KindTuple, elems: append([]Type(nil), elems...)}
}

// ArrayType returns the type of an array of size elements of elem.
func ArrayType(elem Type, size int) Type {
	if size < 0 {
		panic(fmt.Sprintf("ir: negative array size %d", size))
	}
	e := elem
	return Type{kind: KindArray, elem: &e, size: size}
}

// Kind returns the variant of this type.
func (t Type) Kind() Kind { return t.kind }

// Width returns the bit width of a bits type, or 0 for other kinds.
func (t Type) Width() int { return t.width }

// Elements returns a copy of the tuple element types.
func (t Type) Elements() []Type {
	return append([]Type(nil), t.elems...)
}

// Element returns the array element type. Only valid for KindArray.
func (t Type) Element() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}

// Size returns the array length, or the tuple arity for tuples.
func (t Type) Size() int {
	if t.kind == KindTuple {
		return len(t.elems)
	}
	return t.size
}

// FlatBitCount returns the total number of bits needed to represent a
// value of this type.
func (t Type) FlatBitCount() int {
	switch t.kind {
	case KindBits:
		return t.width
	case KindTuple:
		n := 0
		for _, e := range t.elems {
			n += e.FlatBitCount()
		}
		return n
	case KindArray:
		return t.size * t.Element().FlatBitCount()
	default:
		return 0
	}
}

// Equal reports whether two types are structurally identical.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindBits:
		return t.width == o.width
	case KindTuple:
		if len(t.elems) != len(o.elems) {
			return false
		}
		for i := range t.elems {
			if !t.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case KindArray:
		return t.size == o.size && t.Element().Equal(o.Element())
	default:
		return false
	}
}

// String returns the canonical type text, e.g. "bits[32]",
// "(bits[8], bits[32])", or "bits[8][4]".
func (t Type) String() string {
	var sb strings.Builder
	t.writeTo(&sb)
	return sb.String()
}

func (t Type) writeTo(sb *strings.Builder) {
	switch t.kind {
	case KindBits:
		fmt.Fprintf(sb, "bits[%d]", t.width)
	case KindTuple:
		sb.WriteByte('(')
		for i, e := range t.elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.writeTo(sb)
		}
		sb.WriteByte(')')
	case KindArray:
		t.Element().writeTo(sb)
		fmt.Fprintf(sb, "[%d]", t.size)
	}
}

// ParseType parses type text such as "bits[32]", "(bits[8], bits[32])",
// or "bits[8][4]".
func ParseType(text string) (Type, error) {
	p := newParser(text)
	t, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if !p.done() {
		return Type{}, p.malformed("unexpected trailing text %q", p.rest())
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
// Use only in tests or with constant type text.
func MustParseType(text string) Type {
	t, err := ParseType(text)
	if err != nil {
		panic(err)
	}
	return t
}

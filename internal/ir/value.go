package ir

import (
	"math/big"
	"strings"
)

// Value is a sealed interface representing a typed value.
// Only Bits, Tuple, and Array implement it.
type Value interface {
	// Type returns the recursively computed type of the value.
	Type() Type
	// Kind returns the variant of the value.
	Kind() Kind
	// String returns the canonical literal text (see Format).
	String() string

	value() // Sealed - only these types implement it
}

// Bits is an unsigned fixed-width bit vector.
// The payload is always in [0, 2^width).
type Bits struct {
	width int
	n     *big.Int // nil means zero; never mutated after construction
}

func (Bits) value() {}

// NewBits creates a bit vector of the given width.
// Returns a RANGE_ERROR if payload is negative or does not fit in width bits.
func NewBits(width int, payload *big.Int) (Bits, error) {
	if width < 0 {
		return Bits{}, NewError(RangeError, "negative bit width %d", width)
	}
	if payload == nil {
		return Bits{width: width}, nil
	}
	if payload.Sign() < 0 {
		return Bits{}, NewError(RangeError, "negative value %s for bits[%d]", payload, width)
	}
	if payload.BitLen() > width {
		return Bits{}, NewError(RangeError, "value 0x%x does not fit in bits[%d]", payload, width)
	}
	return Bits{width: width, n: new(big.Int).Set(payload)}, nil
}

// WrapBits returns payload modulo 2^width as a bit vector of the given width.
// Negative payloads wrap using two's complement. This is the constructor
// used by fixed-width arithmetic.
func WrapBits(width int, payload *big.Int) Bits {
	if width < 0 {
		panic("ir: negative bit width")
	}
	if payload == nil {
		return Bits{width: width}
	}
	n := new(big.Int).Set(payload)
	if n.Sign() < 0 || n.BitLen() > width {
		n.And(n, mask(width))
	}
	return Bits{width: width, n: n}
}

// UBits returns a bit vector holding v.
// Panics if v does not fit in width bits; use only with known-good values.
func UBits(v uint64, width int) Bits {
	b, err := NewBits(width, new(big.Int).SetUint64(v))
	if err != nil {
		panic(err)
	}
	return b
}

// Bool returns bits[1]:1 for true and bits[1]:0 for false.
func Bool(b bool) Bits {
	if b {
		return UBits(1, 1)
	}
	return UBits(0, 1)
}

// mask returns 2^width - 1.
func mask(width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return m.Sub(m, big.NewInt(1))
}

func (b Bits) payload() *big.Int {
	if b.n == nil {
		return new(big.Int)
	}
	return b.n
}

// Width returns the number of bits.
func (b Bits) Width() int { return b.width }

// Type returns bits[width].
func (b Bits) Type() Type { return BitsType(b.width) }

// Kind returns KindBits.
func (Bits) Kind() Kind { return KindBits }

// BigInt returns a copy of the unsigned payload.
func (b Bits) BigInt() *big.Int {
	return new(big.Int).Set(b.payload())
}

// SignedBigInt returns the payload interpreted as a two's complement number.
func (b Bits) SignedBigInt() *big.Int {
	n := b.BigInt()
	if b.width > 0 && n.Bit(b.width-1) == 1 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(b.width)))
	}
	return n
}

// Uint64 returns the low 64 bits of the payload.
func (b Bits) Uint64() uint64 {
	p := b.payload()
	if p.IsUint64() {
		return p.Uint64()
	}
	return new(big.Int).And(p, mask(64)).Uint64()
}

// IsZero reports whether every bit is zero.
func (b Bits) IsZero() bool {
	return b.n == nil || b.n.Sign() == 0
}

// Bit returns the bit at position i (0 is the least significant bit).
// Positions outside the width read as false.
func (b Bits) Bit(i int) bool {
	if i < 0 || i >= b.width {
		return false
	}
	return b.payload().Bit(i) == 1
}

// MostSignificantBit returns the bit at position width-1.
// A zero-width vector has no MSB and reports false.
func (b Bits) MostSignificantBit() bool {
	return b.Bit(b.width - 1)
}

// Slice extracts length bits starting at bit start.
// Returns a RANGE_ERROR if start+length exceeds the width.
func (b Bits) Slice(start, length int) (Bits, error) {
	if start < 0 || length < 0 || start+length > b.width {
		return Bits{}, NewError(RangeError,
			"slice [%d, %d) out of range for bits[%d]", start, start+length, b.width)
	}
	n := new(big.Int).Rsh(b.payload(), uint(start))
	return WrapBits(length, n), nil
}

// String returns the canonical literal, e.g. "bits[32]:0x165".
func (b Bits) String() string { return Format(b) }

// Tuple is an ordered, heterogeneous sequence of values.
type Tuple struct {
	elems []Value
}

func (Tuple) value() {}

// NewTuple creates a tuple of the given elements.
func NewTuple(elems ...Value) Tuple {
	return Tuple{elems: append([]Value(nil), elems...)}
}

// Len returns the tuple arity.
func (t Tuple) Len() int { return len(t.elems) }

// At returns element i. Panics if i is out of range.
func (t Tuple) At(i int) Value { return t.elems[i] }

// Elements returns a copy of the tuple elements.
func (t Tuple) Elements() []Value {
	return append([]Value(nil), t.elems...)
}

// Type returns the tuple type of the element types.
func (t Tuple) Type() Type {
	types := make([]Type, len(t.elems))
	for i, e := range t.elems {
		types[i] = e.Type()
	}
	return TupleType(types...)
}

// Kind returns KindTuple.
func (Tuple) Kind() Kind { return KindTuple }

// String returns the canonical literal, e.g. "(bits[8]:0x42, bits[32]:0x123)".
func (t Tuple) String() string { return Format(t) }

// Array is an ordered sequence of values of one element type.
type Array struct {
	elem  Type
	elems []Value
}

func (Array) value() {}

// NewArray creates an array from one or more elements of identical type.
// Returns a TYPE_MISMATCH error if the list is empty or element types differ.
func NewArray(elems ...Value) (Array, error) {
	if len(elems) == 0 {
		return Array{}, NewError(TypeMismatch, "array literal must have at least one element")
	}
	return NewArrayOf(elems[0].Type(), elems...)
}

// NewArrayOf creates an array whose elements all have type elem.
// Unlike NewArray, an empty element list is permitted.
func NewArrayOf(elem Type, elems ...Value) (Array, error) {
	for i, e := range elems {
		if !e.Type().Equal(elem) {
			return Array{}, NewError(TypeMismatch,
				"array element %d has type %s, expected %s", i, e.Type(), elem)
		}
	}
	return Array{elem: elem, elems: append([]Value(nil), elems...)}, nil
}

// Len returns the number of elements.
func (a Array) Len() int { return len(a.elems) }

// At returns element i. Panics if i is out of range.
func (a Array) At(i int) Value { return a.elems[i] }

// Elements returns a copy of the array elements.
func (a Array) Elements() []Value {
	return append([]Value(nil), a.elems...)
}

// Type returns elem[len].
func (a Array) Type() Type { return ArrayType(a.elem, len(a.elems)) }

// Kind returns KindArray.
func (Array) Kind() Kind { return KindArray }

// String returns the canonical literal, e.g. "[bits[8]:0x1, bits[8]:0x2]".
func (a Array) String() string { return Format(a) }

// Equal reports structural equality.
// Bits compare by (width, payload); tuples and arrays compare element-wise.
// Values of different kinds are never equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Bits:
		bv, ok := b.(Bits)
		return ok && av.width == bv.width && av.payload().Cmp(bv.payload()) == 0
	case Tuple:
		bv, ok := b.(Tuple)
		return ok && equalElements(av.elems, bv.elems)
	case Array:
		bv, ok := b.(Array)
		return ok && av.elem.Equal(bv.elem) && equalElements(av.elems, bv.elems)
	default:
		return a == nil && b == nil
	}
}

func equalElements(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Args is the ordered argument tuple for one invocation of a function.
type Args []Value

// String joins the canonical literals with "; ", the separator used by
// flat argument lists.
func (a Args) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = Format(v)
	}
	return strings.Join(parts, "; ")
}

// Types returns the type of each argument.
func (a Args) Types() []Type {
	types := make([]Type, len(a))
	for i, v := range a {
		types[i] = v.Type()
	}
	return types
}

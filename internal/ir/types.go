package ir

import "strconv"

// TypeKind enumerates the primitive type shapes of the IR.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeI1
	TypeI8
	TypeI32
	TypeI64
	TypePtr
	TypeLabel
	TypeArray // [N x i8], used for string globals only
)

// Type is an IR type. Types are small values and compare with ==.
type Type struct {
	Kind TypeKind
	Len  int // element count for TypeArray
}

// Predeclared types.
var (
	Void  = Type{Kind: TypeVoid}
	I1    = Type{Kind: TypeI1}
	I8    = Type{Kind: TypeI8}
	I32   = Type{Kind: TypeI32}
	I64   = Type{Kind: TypeI64}
	Ptr   = Type{Kind: TypePtr}
	Label = Type{Kind: TypeLabel}
)

// ByteArray returns the type [n x i8].
func ByteArray(n int) Type {
	return Type{Kind: TypeArray, Len: n}
}

// IsInteger reports whether t is one of the integer types.
func (t Type) IsInteger() bool {
	switch t.Kind {
	case TypeI1, TypeI8, TypeI32, TypeI64:
		return true
	}
	return false
}

// Bits returns the width of an integer type, or 0.
func (t Type) Bits() int {
	switch t.Kind {
	case TypeI1:
		return 1
	case TypeI8:
		return 8
	case TypeI32:
		return 32
	case TypeI64:
		return 64
	}
	return 0
}

func (t Type) String() string {
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeI1:
		return "i1"
	case TypeI8:
		return "i8"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypePtr:
		return "ptr"
	case TypeLabel:
		return "label"
	case TypeArray:
		return "[" + strconv.Itoa(t.Len) + " x i8]"
	}
	return "<bad type>"
}

// Truncate wraps v to the width of integer type t and sign-extends the
// result back to int64, which is how the interpreter keeps integer words
// canonical.
func (t Type) Truncate(v int64) int64 {
	switch t.Kind {
	case TypeI1:
		return v & 1
	case TypeI8:
		return int64(int8(v))
	case TypeI32:
		return int64(int32(v))
	}
	return v
}

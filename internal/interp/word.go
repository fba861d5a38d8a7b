package interp

import "github.com/kolkov/irgraph/internal/ir"

// Word is one runtime value. Integer values live in I, kept canonical
// (truncated to their type's width and sign-extended). Pointers are one of
// Ptr (a storage cell), Str (a string global) or Fn (a function address).
type Word struct {
	I   int64
	Ptr *Word
	Str *ir.Global
	Fn  *ir.Function
}

// Int returns an integer word.
func Int(v int64) Word { return Word{I: v} }

// IsPointer reports whether w holds any kind of address.
func (w Word) IsPointer() bool {
	return w.Ptr != nil || w.Str != nil || w.Fn != nil
}

// Bool reports whether an i1 word is true.
func (w Word) Bool() bool { return w.I != 0 }

// unsigned reinterprets a canonical integer of type t as unsigned.
func unsigned(t ir.Type, v int64) uint64 {
	bits := t.Bits()
	if bits <= 0 || bits >= 64 {
		return uint64(v)
	}
	return uint64(v) & (1<<uint(bits) - 1)
}

package pass

import (
	"strings"

	"github.com/kolkov/irgraph/internal/ir"
)

// Label returns the graph label for v. The rules are checked in a fixed
// order and the first match wins:
//
//  1. instruction   -> opcode mnemonic ("add")
//  2. basic block   -> its text up to and including the first ':' ("entry:")
//  3. named value   -> its name ("counter", "main", "n")
//  4. anything else -> its full textual dump ("i32 7", "i32 %0")
//
// Labels are raw; the graph builder sanitises them.
func Label(v ir.Value) string {
	switch v.Kind() {
	case ir.KindInstruction:
		if inst, ok := v.(*ir.Instruction); ok {
			return inst.Op.String()
		}
	case ir.KindBasicBlock:
		dump := v.Dump()
		if end := strings.IndexByte(dump, ':'); end >= 0 {
			return dump[:end+1]
		}
		return dump
	}
	if name := v.Name(); name != "" {
		return name
	}
	return v.Dump()
}

package ir

// Opcode identifies an instruction's operation.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Binary integer arithmetic.
	OpAdd
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr

	OpICmp
	OpSelect

	// Casts.
	OpZExt
	OpSExt
	OpTrunc

	// Memory.
	OpAlloca
	OpLoad
	OpStore

	// Control flow and calls.
	OpBr
	OpRet
	OpCall
	OpPhi
	OpLandingPad
	OpUnreachable
)

var opcodeNames = [...]string{
	OpInvalid:     "<invalid>",
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpSDiv:        "sdiv",
	OpUDiv:        "udiv",
	OpSRem:        "srem",
	OpURem:        "urem",
	OpAnd:         "and",
	OpOr:          "or",
	OpXor:         "xor",
	OpShl:         "shl",
	OpLShr:        "lshr",
	OpAShr:        "ashr",
	OpICmp:        "icmp",
	OpSelect:      "select",
	OpZExt:        "zext",
	OpSExt:        "sext",
	OpTrunc:       "trunc",
	OpAlloca:      "alloca",
	OpLoad:        "load",
	OpStore:       "store",
	OpBr:          "br",
	OpRet:         "ret",
	OpCall:        "call",
	OpPhi:         "phi",
	OpLandingPad:  "landingpad",
	OpUnreachable: "unreachable",
}

// String returns the opcode mnemonic, e.g. "add".
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return opcodeNames[OpInvalid]
}

// IsBinary reports whether op takes two same-typed integer operands and
// produces a value of that type.
func (op Opcode) IsBinary() bool {
	return op >= OpAdd && op <= OpAShr
}

// IsCast reports whether op is an integer width conversion.
func (op Opcode) IsCast() bool {
	return op == OpZExt || op == OpSExt || op == OpTrunc
}

// IsTerminator reports whether op ends a basic block.
func (op Opcode) IsTerminator() bool {
	return op == OpBr || op == OpRet || op == OpUnreachable
}

// LookupOpcode maps a mnemonic back to its opcode.
func LookupOpcode(name string) (Opcode, bool) {
	for op, n := range opcodeNames {
		if n == name && Opcode(op) != OpInvalid {
			return Opcode(op), true
		}
	}
	return OpInvalid, false
}

// Predicate is an icmp condition code.
type Predicate uint8

const (
	PredEQ Predicate = iota
	PredNE
	PredSLT
	PredSLE
	PredSGT
	PredSGE
	PredULT
	PredULE
	PredUGT
	PredUGE
)

var predicateNames = [...]string{
	PredEQ:  "eq",
	PredNE:  "ne",
	PredSLT: "slt",
	PredSLE: "sle",
	PredSGT: "sgt",
	PredSGE: "sge",
	PredULT: "ult",
	PredULE: "ule",
	PredUGT: "ugt",
	PredUGE: "uge",
}

func (p Predicate) String() string {
	if int(p) < len(predicateNames) {
		return predicateNames[p]
	}
	return "<bad predicate>"
}

// LookupPredicate maps a condition code name to its Predicate.
func LookupPredicate(name string) (Predicate, bool) {
	for p, n := range predicateNames {
		if n == name {
			return Predicate(p), true
		}
	}
	return 0, false
}

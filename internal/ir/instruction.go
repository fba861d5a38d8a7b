package ir

import "strings"

// Instruction is a single IR operation.
//
// Operand layout per opcode:
//
//	binary, icmp     [lhs, rhs]
//	select           [cond, ifTrue, ifFalse]
//	zext/sext/trunc  [value]
//	alloca           [count]            (always i32 1)
//	load             [ptr]
//	store            [value, ptr]
//	br               [dest] or [cond, then, else]
//	ret              [] or [value]
//	call             [args..., callee]  (callee last, as in LLVM)
//	phi              [incoming values...], blocks in Incoming
//	landingpad       []
//	unreachable      []
type Instruction struct {
	name   string
	handle Handle
	parent *Block
	typ    Type

	Op       Opcode
	Operands []Value

	Pred     Predicate // icmp only
	Elem     Type      // alloca element type
	Incoming []*Block  // phi only, parallel to Operands
	Cleanup  bool      // landingpad only
}

// NewInstruction returns a detached instruction. Most callers want one of
// the typed constructors below.
func NewInstruction(op Opcode, result Type, operands ...Value) *Instruction {
	return &Instruction{Op: op, typ: result, Operands: operands}
}

// NewBinary returns lhs <op> rhs.
func NewBinary(op Opcode, lhs, rhs Value) *Instruction {
	return NewInstruction(op, lhs.Type(), lhs, rhs)
}

// NewICmp returns icmp <pred> lhs, rhs.
func NewICmp(pred Predicate, lhs, rhs Value) *Instruction {
	inst := NewInstruction(OpICmp, I1, lhs, rhs)
	inst.Pred = pred
	return inst
}

// NewSelect returns select cond, a, b.
func NewSelect(cond, a, b Value) *Instruction {
	return NewInstruction(OpSelect, a.Type(), cond, a, b)
}

// NewCast returns a zext, sext or trunc of v to t.
func NewCast(op Opcode, v Value, t Type) *Instruction {
	return NewInstruction(op, t, v)
}

// NewAlloca reserves one cell of type elem in the current frame.
func NewAlloca(elem Type) *Instruction {
	inst := NewInstruction(OpAlloca, Ptr, ConstInt(I32, 1))
	inst.Elem = elem
	return inst
}

// NewLoad reads a t from ptr.
func NewLoad(t Type, ptr Value) *Instruction {
	return NewInstruction(OpLoad, t, ptr)
}

// NewStore writes v to ptr.
func NewStore(v, ptr Value) *Instruction {
	return NewInstruction(OpStore, Void, v, ptr)
}

// NewBr jumps to dest.
func NewBr(dest *Block) *Instruction {
	return NewInstruction(OpBr, Void, dest)
}

// NewCondBr jumps to then when cond is true and to els otherwise.
func NewCondBr(cond Value, then, els *Block) *Instruction {
	return NewInstruction(OpBr, Void, cond, then, els)
}

// NewRet returns from the function; v may be nil for void returns.
func NewRet(v Value) *Instruction {
	if v == nil {
		return NewInstruction(OpRet, Void)
	}
	return NewInstruction(OpRet, Void, v)
}

// NewCall calls callee with args. result is the callee's return type.
func NewCall(callee Value, result Type, args ...Value) *Instruction {
	ops := make([]Value, 0, len(args)+1)
	ops = append(ops, args...)
	ops = append(ops, callee)
	return NewInstruction(OpCall, result, ops...)
}

// NewPhi returns an empty phi of type t; see AddIncoming.
func NewPhi(t Type) *Instruction {
	return NewInstruction(OpPhi, t)
}

// NewLandingPad returns a landingpad of type t.
func NewLandingPad(t Type, cleanup bool) *Instruction {
	inst := NewInstruction(OpLandingPad, t)
	inst.Cleanup = cleanup
	return inst
}

// NewUnreachable returns an unreachable terminator.
func NewUnreachable() *Instruction {
	return NewInstruction(OpUnreachable, Void)
}

// AddIncoming appends a (value, predecessor) pair to a phi.
func (i *Instruction) AddIncoming(v Value, from *Block) {
	i.Operands = append(i.Operands, v)
	i.Incoming = append(i.Incoming, from)
}

func (i *Instruction) Kind() Kind     { return KindInstruction }
func (i *Instruction) Type() Type     { return i.typ }
func (i *Instruction) Name() string   { return i.name }
func (i *Instruction) Handle() Handle { return i.handle }
func (i *Instruction) Parent() *Block { return i.parent }

// SetName names the instruction's result. Void instructions stay unnamed.
func (i *Instruction) SetName(name string) *Instruction {
	if i.typ != Void {
		i.name = name
	}
	return i
}

// Function returns the function containing i, or nil when detached.
func (i *Instruction) Function() *Function {
	if i.parent == nil {
		return nil
	}
	return i.parent.parent
}

func (i *Instruction) Ref() string {
	return localRef(i.Function(), i, i.name)
}

// Dump returns the instruction's text without indentation.
func (i *Instruction) Dump() string {
	var sb strings.Builder
	newPrinter(i.Function()).instruction(&sb, i)
	return sb.String()
}

// Callee returns the called value of a call, or nil.
func (i *Instruction) Callee() Value {
	if i.Op != OpCall || len(i.Operands) == 0 {
		return nil
	}
	return i.Operands[len(i.Operands)-1]
}

// CalledFunction returns the callee when it is a direct call, or nil for
// indirect calls and non-calls.
func (i *Instruction) CalledFunction() *Function {
	fn, _ := i.Callee().(*Function)
	return fn
}

// Args returns a call's arguments.
func (i *Instruction) Args() []Value {
	if i.Op != OpCall || len(i.Operands) == 0 {
		return nil
	}
	return i.Operands[:len(i.Operands)-1]
}

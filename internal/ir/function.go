package ir

import (
	"strconv"
	"strings"
)

// Function is a function definition or, when it has no blocks, a
// declaration of an external function.
type Function struct {
	name   string
	handle Handle
	parent *Module

	Ret    Type
	Params []*Param
	Blocks []*Block
}

func (f *Function) Kind() Kind      { return KindConstant }
func (f *Function) Type() Type      { return Ptr }
func (f *Function) Name() string    { return f.name }
func (f *Function) Handle() Handle  { return f.handle }
func (f *Function) Parent() *Module { return f.parent }
func (f *Function) Ref() string     { return "@" + f.name }

// IsDeclaration reports whether f has no body.
func (f *Function) IsDeclaration() bool { return len(f.Blocks) == 0 }

// Entry returns the entry block, or nil for declarations.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// ParamTypes returns the parameter types in order.
func (f *Function) ParamTypes() []Type {
	types := make([]Type, len(f.Params))
	for i, p := range f.Params {
		types[i] = p.typ
	}
	return types
}

// NewBlock appends a new, empty block to f.
func (f *Function) NewBlock(name string) *Block {
	b := &Block{name: name, parent: f}
	if f.parent != nil {
		b.handle = f.parent.nextHandle()
	}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Block returns the block called name, or nil.
func (f *Function) Block(name string) *Block {
	for _, b := range f.Blocks {
		if b.name == name && name != "" {
			return b
		}
	}
	return nil
}

// Dump returns the function's full text: a declare line or a define block.
func (f *Function) Dump() string {
	var sb strings.Builder
	newPrinter(f).function(&sb, f)
	return strings.TrimSuffix(sb.String(), "\n")
}

// NumInstructions counts instructions across all blocks.
func (f *Function) NumInstructions() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Insts)
	}
	return n
}

// slots numbers unnamed local values in the order LLVM does: parameters,
// then for each block the block itself and its unnamed non-void results.
func (f *Function) slots() map[Value]int {
	slots := make(map[Value]int)
	next := 0
	for _, p := range f.Params {
		if p.name == "" {
			slots[p] = next
			next++
		}
	}
	for _, b := range f.Blocks {
		if b.name == "" {
			slots[b] = next
			next++
		}
		for _, inst := range b.Insts {
			if inst.name == "" && inst.typ != Void {
				slots[inst] = next
				next++
			}
		}
	}
	return slots
}

// Block is a basic block: a straight-line list of instructions.
type Block struct {
	name   string
	handle Handle
	parent *Function

	Insts []*Instruction
}

func (b *Block) Kind() Kind        { return KindBasicBlock }
func (b *Block) Type() Type        { return Label }
func (b *Block) Name() string      { return b.name }
func (b *Block) Handle() Handle    { return b.handle }
func (b *Block) Parent() *Function { return b.parent }
func (b *Block) Ref() string       { return localRef(b.parent, b, b.name) }

// Label returns the block's label line, e.g. "entry:" or "3:".
func (b *Block) Label() string {
	return strings.TrimPrefix(b.Ref(), "%") + ":"
}

// Dump returns the label line followed by the block's instructions.
func (b *Block) Dump() string {
	var sb strings.Builder
	newPrinter(b.parent).block(&sb, b)
	return strings.TrimSuffix(sb.String(), "\n")
}

// Append adds inst at the end of b.
func (b *Block) Append(inst *Instruction) *Instruction {
	return b.InsertAt(len(b.Insts), inst)
}

// InsertAt inserts inst before position idx (idx == len(Insts) appends) and
// returns it. Instructions at idx and later shift one place right; callers
// walking b with an index cursor must advance the cursor by one.
func (b *Block) InsertAt(idx int, inst *Instruction) *Instruction {
	if idx < 0 || idx > len(b.Insts) {
		panic("ir: insert index " + strconv.Itoa(idx) + " out of range")
	}
	inst.parent = b
	if inst.handle == 0 && b.parent != nil && b.parent.parent != nil {
		inst.handle = b.parent.parent.nextHandle()
	}
	b.Insts = append(b.Insts, nil)
	copy(b.Insts[idx+1:], b.Insts[idx:])
	b.Insts[idx] = inst
	return inst
}

// Index returns the position of inst in b, or -1.
func (b *Block) Index(inst *Instruction) int {
	for i, in := range b.Insts {
		if in == inst {
			return i
		}
	}
	return -1
}

// Terminator returns the last instruction if it ends the block.
func (b *Block) Terminator() *Instruction {
	if len(b.Insts) == 0 {
		return nil
	}
	last := b.Insts[len(b.Insts)-1]
	if !last.Op.IsTerminator() {
		return nil
	}
	return last
}

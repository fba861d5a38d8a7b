package ir

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Write renders m as textual IR. The output parses back to an equivalent
// module with Parse.
func Write(w io.Writer, m *Module) error {
	bw := bufio.NewWriter(w)
	var sb strings.Builder

	if m.Name != "" {
		sb.WriteString("source_filename = " + strconv.Quote(m.Name) + "\n")
	}
	if m.Version != "" {
		sb.WriteString("irgraph_version = " + strconv.Quote(m.Version) + "\n")
	}
	if sb.Len() > 0 && (len(m.Globals) > 0 || len(m.Funcs) > 0) {
		sb.WriteByte('\n')
	}
	for _, g := range m.Globals {
		sb.WriteString(g.Dump())
		sb.WriteByte('\n')
	}
	for i, f := range m.Funcs {
		if i > 0 || len(m.Globals) > 0 {
			sb.WriteByte('\n')
		}
		newPrinter(f).function(&sb, f)
	}

	if _, err := bw.WriteString(sb.String()); err != nil {
		return errors.Wrap(err, "writing module")
	}
	return errors.Wrap(bw.Flush(), "writing module")
}

// printer renders local values of one function with a precomputed slot
// table, so printing a whole function stays linear.
type printer struct {
	slots map[Value]int
}

func newPrinter(fn *Function) *printer {
	if fn == nil {
		return &printer{}
	}
	return &printer{slots: fn.slots()}
}

func (p *printer) ref(v Value) string {
	switch v := v.(type) {
	case *Const, *Global, *Function:
		return v.Ref()
	case nil:
		return "<nil>"
	}
	if name := v.Name(); name != "" {
		return "%" + name
	}
	if slot, ok := p.slots[v]; ok {
		return "%" + strconv.Itoa(slot)
	}
	return "%?"
}

// typed renders an operand with its type, e.g. "i32 %x" or "label %entry".
func (p *printer) typed(v Value) string {
	return v.Type().String() + " " + p.ref(v)
}

func (p *printer) function(sb *strings.Builder, f *Function) {
	if f.IsDeclaration() {
		sb.WriteString("declare ")
	} else {
		sb.WriteString("define ")
	}
	sb.WriteString(f.Ret.String())
	sb.WriteString(" @")
	sb.WriteString(f.name)
	sb.WriteByte('(')
	for i, param := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(param.typ.String())
		if param.name != "" {
			sb.WriteString(" %" + param.name)
		}
	}
	sb.WriteByte(')')
	if f.IsDeclaration() {
		sb.WriteByte('\n')
		return
	}
	sb.WriteString(" {\n")
	for _, b := range f.Blocks {
		p.block(sb, b)
	}
	sb.WriteString("}\n")
}

func (p *printer) block(sb *strings.Builder, b *Block) {
	sb.WriteString(strings.TrimPrefix(p.ref(b), "%"))
	sb.WriteString(":\n")
	for _, inst := range b.Insts {
		sb.WriteString("  ")
		p.instruction(sb, inst)
		sb.WriteByte('\n')
	}
}

func (p *printer) instruction(sb *strings.Builder, i *Instruction) {
	if i.typ != Void {
		sb.WriteString(p.ref(i))
		sb.WriteString(" = ")
	}
	sb.WriteString(i.Op.String())

	switch {
	case i.Op.IsBinary():
		sb.WriteString(" " + p.typed(i.Operands[0]) + ", " + p.ref(i.Operands[1]))
	case i.Op == OpICmp:
		sb.WriteString(" " + i.Pred.String() + " " + p.typed(i.Operands[0]) + ", " + p.ref(i.Operands[1]))
	case i.Op == OpSelect:
		sb.WriteString(" " + p.typed(i.Operands[0]) + ", " + p.typed(i.Operands[1]) + ", " + p.typed(i.Operands[2]))
	case i.Op.IsCast():
		sb.WriteString(" " + p.typed(i.Operands[0]) + " to " + i.typ.String())
	case i.Op == OpAlloca:
		sb.WriteString(" " + i.Elem.String())
	case i.Op == OpLoad:
		sb.WriteString(" " + i.typ.String() + ", " + p.typed(i.Operands[0]))
	case i.Op == OpStore:
		sb.WriteString(" " + p.typed(i.Operands[0]) + ", " + p.typed(i.Operands[1]))
	case i.Op == OpBr, i.Op == OpRet && len(i.Operands) > 0:
		for n, op := range i.Operands {
			if n > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(" " + p.typed(op))
		}
	case i.Op == OpRet:
		sb.WriteString(" void")
	case i.Op == OpCall:
		sb.WriteString(" " + i.typ.String() + " " + p.ref(i.Callee()) + "(")
		for n, arg := range i.Args() {
			if n > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.typed(arg))
		}
		sb.WriteByte(')')
	case i.Op == OpPhi:
		sb.WriteString(" " + i.typ.String())
		for n, v := range i.Operands {
			if n > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(" [ " + p.ref(v) + ", " + p.ref(i.Incoming[n]) + " ]")
		}
	case i.Op == OpLandingPad:
		sb.WriteString(" " + i.typ.String())
		if i.Cleanup {
			sb.WriteString(" cleanup")
		}
	}
}

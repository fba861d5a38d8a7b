package ir

import (
	"strconv"
	"strings"
)

// Kind is the closed classification of IR values.
type Kind uint8

const (
	KindInstruction Kind = iota
	KindBasicBlock
	KindConstant
	KindNamed
	KindUnnamed
)

func (k Kind) String() string {
	switch k {
	case KindInstruction:
		return "instruction"
	case KindBasicBlock:
		return "basic-block"
	case KindConstant:
		return "constant"
	case KindNamed:
		return "named"
	case KindUnnamed:
		return "unnamed"
	}
	return "unknown"
}

// Handle is the intrinsic identity of an attached value.
type Handle uint32

// HandleBase is the first handle a module hands out. Handles below it are
// never produced, which keeps them apart from small counter-like ids.
const HandleBase Handle = 0x400000

// Value is anything that can be an instruction operand.
type Value interface {
	// Kind returns the value's classification.
	Kind() Kind

	// Type returns the type the value has as an operand. Globals and
	// functions are pointers, blocks are labels.
	Type() Type

	// Name returns the declared name, or "" for unnamed values.
	Name() string

	// Handle returns the identity assigned on attachment; 0 for integer
	// constants and for values not yet attached to a module.
	Handle() Handle

	// Ref returns the operand spelling without the type, e.g. "%x", "@g", "7".
	Ref() string

	// Dump returns the full textual form of the value.
	Dump() string
}

// Const is a typed integer constant.
type Const struct {
	typ Type
	val int64
}

// ConstInt returns an integer constant of type t. The value is truncated to
// the width of t.
func ConstInt(t Type, v int64) *Const {
	return &Const{typ: t, val: t.Truncate(v)}
}

func (c *Const) Kind() Kind     { return KindConstant }
func (c *Const) Type() Type     { return c.typ }
func (c *Const) Name() string   { return "" }
func (c *Const) Handle() Handle { return 0 }

// Int returns the constant's value.
func (c *Const) Int() int64 { return c.val }

func (c *Const) Ref() string {
	if c.typ.Kind == TypeI1 {
		if c.val != 0 {
			return "true"
		}
		return "false"
	}
	return strconv.FormatInt(c.val, 10)
}

func (c *Const) Dump() string { return c.typ.String() + " " + c.Ref() }

// Param is a function parameter.
type Param struct {
	name   string
	typ    Type
	handle Handle
	parent *Function
}

// NewParam returns a detached parameter; Module.NewFunction attaches it.
func NewParam(name string, t Type) *Param {
	return &Param{name: name, typ: t}
}

func (p *Param) Kind() Kind {
	if p.name != "" {
		return KindNamed
	}
	return KindUnnamed
}

func (p *Param) Type() Type          { return p.typ }
func (p *Param) Name() string        { return p.name }
func (p *Param) Handle() Handle      { return p.handle }
func (p *Param) Parent() *Function   { return p.parent }
func (p *Param) Ref() string         { return localRef(p.parent, p, p.name) }
func (p *Param) Dump() string        { return p.typ.String() + " " + p.Ref() }
func (p *Param) setName(name string) { p.name = name }
func (p *Param) attach(f *Function, h Handle) {
	p.parent = f
	p.handle = h
}

// Linkage controls a global's visibility outside its module.
type Linkage uint8

const (
	LinkageExternal Linkage = iota
	LinkageInternal
	LinkagePrivate
)

func (l Linkage) String() string {
	switch l {
	case LinkageInternal:
		return "internal"
	case LinkagePrivate:
		return "private"
	}
	return "external"
}

// Global is a module-level variable. Integer globals hold a single cell of
// type Elem; string globals hold Bytes and have an array Elem.
type Global struct {
	name     string
	handle   Handle
	parent   *Module
	Elem     Type
	Linkage  Linkage
	Constant bool
	Init     int64
	Bytes    []byte
	Extern   bool // declared without an initializer
}

func (g *Global) Kind() Kind      { return KindConstant }
func (g *Global) Type() Type      { return Ptr }
func (g *Global) Name() string    { return g.name }
func (g *Global) Handle() Handle  { return g.handle }
func (g *Global) Parent() *Module { return g.parent }
func (g *Global) Ref() string     { return "@" + g.name }
func (g *Global) IsString() bool  { return g.Elem.Kind == TypeArray }

// Dump returns the global's definition line.
func (g *Global) Dump() string {
	var sb strings.Builder
	sb.WriteString(g.Ref())
	sb.WriteString(" = ")
	if g.Linkage != LinkageExternal || g.Extern {
		sb.WriteString(g.Linkage.String())
		sb.WriteByte(' ')
	}
	if g.Constant {
		sb.WriteString("constant ")
	} else {
		sb.WriteString("global ")
	}
	sb.WriteString(g.Elem.String())
	switch {
	case g.Extern:
	case g.IsString():
		sb.WriteString(" c")
		sb.WriteString(quoteBytes(g.Bytes))
	default:
		sb.WriteByte(' ')
		sb.WriteString(ConstInt(g.Elem, g.Init).Ref())
	}
	return sb.String()
}

// Text returns a string global's contents without the trailing NUL.
func (g *Global) Text() string {
	return strings.TrimSuffix(string(g.Bytes), "\x00")
}

// localRef spells a function-local value: "%name" when named, otherwise the
// slot number the value gets inside fn.
func localRef(fn *Function, v Value, name string) string {
	if name != "" {
		return "%" + name
	}
	if fn == nil {
		return "%?"
	}
	if slot, ok := fn.slots()[v]; ok {
		return "%" + strconv.Itoa(slot)
	}
	return "%?"
}

// quoteBytes renders b as an LLVM c-string body: printable ASCII other than
// '"' and '\' verbatim, everything else as \XX.
func quoteBytes(b []byte) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range b {
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('\\')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0xf])
	}
	sb.WriteByte('"')
	return sb.String()
}

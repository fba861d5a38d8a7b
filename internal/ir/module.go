package ir

import (
	"strconv"
	"strings"
)

// FormatVersion is the textual IR version this package writes and the
// newest one it reads.
const FormatVersion = "v1.0.0"

// Module is a translation unit: globals and functions in declaration order.
type Module struct {
	Name    string // source_filename
	Version string // irgraph_version directive, "" when absent

	Globals []*Global
	Funcs   []*Function

	next Handle
}

// NewModule returns an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, next: HandleBase}
}

func (m *Module) nextHandle() Handle {
	if m.next < HandleBase {
		m.next = HandleBase
	}
	h := m.next
	m.next++
	return h
}

// NamedGlobal returns the global called name, or nil.
func (m *Module) NamedGlobal(name string) *Global {
	for _, g := range m.Globals {
		if g.name == name {
			return g
		}
	}
	return nil
}

// Function returns the function called name, or nil.
func (m *Module) Function(name string) *Function {
	for _, f := range m.Funcs {
		if f.name == name {
			return f
		}
	}
	return nil
}

// NewGlobal adds an integer global of type elem initialised to init. A name
// already used by another global or function gets a numeric suffix.
func (m *Module) NewGlobal(name string, elem Type, linkage Linkage, init int64) *Global {
	return m.addGlobal(name, &Global{
		Elem:    elem,
		Linkage: linkage,
		Init:    elem.Truncate(init),
	})
}

// NewStringGlobal adds a private constant holding text plus a trailing NUL.
func (m *Module) NewStringGlobal(name, text string) *Global {
	data := append([]byte(text), 0)
	return m.addGlobal(name, &Global{
		Elem:     ByteArray(len(data)),
		Linkage:  LinkagePrivate,
		Constant: true,
		Bytes:    data,
	})
}

func (m *Module) addGlobal(name string, g *Global) *Global {
	g.name = m.uniqueName(name)
	g.handle = m.nextHandle()
	g.parent = m
	m.Globals = append(m.Globals, g)
	return g
}

// NewFunction adds a function with the given signature. It has no blocks,
// i.e. it is a declaration until NewBlock is called on it.
func (m *Module) NewFunction(name string, ret Type, params ...*Param) *Function {
	f := &Function{
		name:   m.uniqueName(name),
		handle: m.nextHandle(),
		parent: m,
		Ret:    ret,
		Params: params,
	}
	for _, p := range params {
		p.attach(f, m.nextHandle())
	}
	m.Funcs = append(m.Funcs, f)
	return f
}

// GetOrInsertFunction returns the function called name, declaring it with
// the given signature if the module does not have it yet. An existing
// function is returned as is, whatever its signature.
func (m *Module) GetOrInsertFunction(name string, ret Type, params ...Type) *Function {
	if f := m.Function(name); f != nil {
		return f
	}
	ps := make([]*Param, len(params))
	for i, t := range params {
		ps[i] = NewParam("", t)
	}
	return m.NewFunction(name, ret, ps...)
}

// Definitions returns the functions that have a body, in module order.
func (m *Module) Definitions() []*Function {
	var defs []*Function
	for _, f := range m.Funcs {
		if !f.IsDeclaration() {
			defs = append(defs, f)
		}
	}
	return defs
}

// String renders the whole module as textual IR.
func (m *Module) String() string {
	var sb strings.Builder
	_ = Write(&sb, m)
	return sb.String()
}

func (m *Module) uniqueName(name string) string {
	if !m.nameTaken(name) {
		return name
	}
	for i := 1; ; i++ {
		candidate := name + "." + strconv.Itoa(i)
		if !m.nameTaken(candidate) {
			return candidate
		}
	}
}

func (m *Module) nameTaken(name string) bool {
	return m.NamedGlobal(name) != nil || m.Function(name) != nil
}

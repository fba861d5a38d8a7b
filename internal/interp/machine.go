// Package interp executes IR modules.
//
// The interpreter exists so that instrumented modules can actually run:
// `irgraph run` loads a module, binds the runtime logger to the declared
// initLogFile/logInstruction functions and calls the entry point, which
// produces the dynamic log the heat command consumes.
//
// Values are Words: canonical int64 integers plus a few pointer shapes.
// Every integer global and every alloca is a cell (*Word). Cells belong to
// the Machine, so counters survive across Run calls on the same Machine,
// the way they survive across calls within one native process.
//
// Declared functions dispatch to host bindings registered with Bind.
// landingpad and unreachable abort execution with an error.
package interp

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kolkov/irgraph/internal/ir"
)

// Execution limits.
const (
	DefaultStepLimit = 10_000_000
	DefaultMaxDepth  = 1000
)

// HostFunc implements a declared function in Go.
type HostFunc func(m *Machine, args []Word) (Word, error)

// Option configures a Machine.
type Option func(*Machine)

// WithStepLimit caps the instructions one Run may execute; n <= 0 removes
// the cap.
func WithStepLimit(n int) Option {
	return func(m *Machine) { m.stepLimit = n }
}

// WithMaxDepth caps the call depth.
func WithMaxDepth(n int) Option {
	return func(m *Machine) { m.maxDepth = n }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.log = l.Named("interp") }
}

// Machine holds the state of one executing module.
//
// Thread Safety: NOT thread-safe.
type Machine struct {
	mod       *ir.Module
	cells     map[*ir.Global]*Word
	host      map[string]HostFunc
	stepLimit int
	maxDepth  int
	steps     int
	log       *zap.Logger
}

// New returns a machine for mod with no host bindings.
func New(mod *ir.Module, opts ...Option) *Machine {
	m := &Machine{
		mod:       mod,
		cells:     make(map[*ir.Global]*Word),
		host:      make(map[string]HostFunc),
		stepLimit: DefaultStepLimit,
		maxDepth:  DefaultMaxDepth,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Module returns the module being executed.
func (m *Machine) Module() *ir.Module { return m.mod }

// Bind implements the declared function name with fn, replacing any
// earlier binding.
func (m *Machine) Bind(name string, fn HostFunc) {
	m.host[name] = fn
}

// Steps returns the number of instructions the last Run executed.
func (m *Machine) Steps() int { return m.steps }

// Run calls the function named entry with integer arguments.
func (m *Machine) Run(entry string, args ...int64) (Word, error) {
	fn := m.mod.Function(entry)
	if fn == nil {
		return Word{}, errors.Errorf("entry function @%s not found", entry)
	}
	words := make([]Word, len(args))
	for i, a := range args {
		words[i] = Int(a)
	}
	m.steps = 0
	ret, err := m.Call(fn, words...)
	m.log.Debug("run finished",
		zap.String("entry", entry),
		zap.Int("steps", m.steps),
		zap.Int64("result", ret.I),
		zap.Error(err))
	return ret, err
}

// Call invokes fn with args. Declarations go to their host binding.
func (m *Machine) Call(fn *ir.Function, args ...Word) (Word, error) {
	return m.call(fn, args, 0)
}

// Cell returns the storage of an integer global, creating it from the
// global's initializer on first use. String globals have no cell.
func (m *Machine) Cell(g *ir.Global) *Word {
	if g.IsString() {
		return nil
	}
	c, ok := m.cells[g]
	if !ok {
		c = &Word{I: g.Elem.Truncate(g.Init)}
		m.cells[g] = c
	}
	return c
}

// Global returns the current value of the integer global name.
func (m *Machine) Global(name string) (int64, bool) {
	g := m.mod.NamedGlobal(name)
	if g == nil || g.IsString() {
		return 0, false
	}
	return m.Cell(g).I, true
}

// String returns the text of the string global w points to.
func (m *Machine) String(w Word) (string, error) {
	if w.Str == nil {
		return "", errors.New("pointer does not address a string constant")
	}
	return w.Str.Text(), nil
}

func (m *Machine) call(fn *ir.Function, args []Word, depth int) (Word, error) {
	if depth >= m.maxDepth {
		return Word{}, errors.Wrapf(ErrDepthLimit, "calling @%s", fn.Name())
	}
	if len(args) != len(fn.Params) {
		return Word{}, errors.Errorf("@%s takes %d arguments, got %d", fn.Name(), len(fn.Params), len(args))
	}
	if fn.IsDeclaration() {
		h, ok := m.host[fn.Name()]
		if !ok {
			return Word{}, errors.Wrapf(ErrNoBinding, "@%s", fn.Name())
		}
		ret, err := h(m, args)
		return ret, errors.Wrapf(err, "host @%s", fn.Name())
	}

	fr := &frame{vals: make(map[ir.Value]Word)}
	for i, p := range fn.Params {
		fr.vals[p] = args[i]
	}

	var prev *ir.Block
	b := fn.Entry()
	for {
		start, err := m.enter(fr, b, prev)
		if err != nil {
			return Word{}, err
		}
		next, ret, done, err := m.runBlock(fr, b, start, depth)
		if err != nil || done {
			return ret, err
		}
		prev, b = b, next
	}
}

// enter evaluates the phis at the top of b against the edge from prev and
// returns the index of the first non-phi instruction. All phis read their
// inputs before any of them is assigned.
func (m *Machine) enter(fr *frame, b *ir.Block, prev *ir.Block) (int, error) {
	n := 0
	for n < len(b.Insts) && b.Insts[n].Op == ir.OpPhi {
		n++
	}
	if n == 0 {
		return 0, nil
	}
	vals := make([]Word, n)
	for i, phi := range b.Insts[:n] {
		if err := m.step(); err != nil {
			return 0, execError(phi, err)
		}
		k := -1
		for j, from := range phi.Incoming {
			if from == prev {
				k = j
				break
			}
		}
		if k < 0 {
			return 0, execError(phi, errors.New("no incoming value for predecessor"))
		}
		v, err := fr.value(m, phi.Operands[k])
		if err != nil {
			return 0, execError(phi, err)
		}
		vals[i] = v
	}
	for i, phi := range b.Insts[:n] {
		fr.vals[phi] = vals[i]
	}
	return n, nil
}

// runBlock executes b from index start up to its terminator. It returns
// either the successor block or, for ret, the result with done set.
func (m *Machine) runBlock(fr *frame, b *ir.Block, start, depth int) (next *ir.Block, ret Word, done bool, err error) {
	for _, inst := range b.Insts[start:] {
		if err := m.step(); err != nil {
			return nil, Word{}, false, execError(inst, err)
		}
		switch inst.Op {
		case ir.OpBr:
			next, err := m.branch(fr, inst)
			if err != nil {
				return nil, Word{}, false, execError(inst, err)
			}
			return next, Word{}, false, nil
		case ir.OpRet:
			if len(inst.Operands) == 0 {
				return nil, Word{}, true, nil
			}
			v, err := fr.value(m, inst.Operands[0])
			if err != nil {
				return nil, Word{}, false, execError(inst, err)
			}
			return nil, v, true, nil
		case ir.OpCall:
			v, err := m.invoke(fr, inst, depth)
			if err != nil {
				return nil, Word{}, false, execError(inst, err)
			}
			if inst.Type() != ir.Void {
				fr.vals[inst] = v
			}
		default:
			v, err := m.eval(fr, inst)
			if err != nil {
				return nil, Word{}, false, execError(inst, err)
			}
			if inst.Type() != ir.Void {
				fr.vals[inst] = v
			}
		}
	}
	return nil, Word{}, false, errors.Errorf("@%s: block %s has no terminator", b.Parent().Name(), b.Ref())
}

func (m *Machine) step() error {
	m.steps++
	if m.stepLimit > 0 && m.steps > m.stepLimit {
		return ErrStepLimit
	}
	return nil
}

func (m *Machine) branch(fr *frame, inst *ir.Instruction) (*ir.Block, error) {
	if len(inst.Operands) == 1 {
		return asBlock(inst.Operands[0])
	}
	cond, err := fr.value(m, inst.Operands[0])
	if err != nil {
		return nil, err
	}
	if cond.Bool() {
		return asBlock(inst.Operands[1])
	}
	return asBlock(inst.Operands[2])
}

func asBlock(v ir.Value) (*ir.Block, error) {
	b, ok := v.(*ir.Block)
	if !ok {
		return nil, errors.Errorf("branch target %s is not a block", v.Ref())
	}
	return b, nil
}

func (m *Machine) invoke(fr *frame, inst *ir.Instruction, depth int) (Word, error) {
	callee := inst.CalledFunction()
	if callee == nil {
		w, err := fr.value(m, inst.Callee())
		if err != nil {
			return Word{}, err
		}
		if w.Fn == nil {
			return Word{}, errors.New("call through a pointer that is not a function")
		}
		callee = w.Fn
	}
	args := make([]Word, 0, len(inst.Args()))
	for _, a := range inst.Args() {
		w, err := fr.value(m, a)
		if err != nil {
			return Word{}, err
		}
		args = append(args, w)
	}
	return m.call(callee, args, depth+1)
}

// frame holds one activation's SSA values.
type frame struct {
	vals map[ir.Value]Word
}

func (fr *frame) value(m *Machine, v ir.Value) (Word, error) {
	switch v := v.(type) {
	case *ir.Const:
		return Int(v.Int()), nil
	case *ir.Global:
		if v.IsString() {
			return Word{Str: v}, nil
		}
		return Word{Ptr: m.Cell(v)}, nil
	case *ir.Function:
		return Word{Fn: v}, nil
	}
	w, ok := fr.vals[v]
	if !ok {
		return Word{}, errors.Errorf("use of %s before definition", v.Ref())
	}
	return w, nil
}

package pass

import (
	"strings"

	"github.com/kolkov/irgraph/internal/ir"
)

// Default runtime symbols. They match the entry points exported by the
// rtlog runtime and bound by the interpreter.
const (
	DefaultLoggerSymbol = "logInstruction"
	DefaultInitSymbol   = "initLogFile"
)

// StringPrefix starts the name of the opcode string constants passed to
// the logger.
const StringPrefix = ".str."

// EntryInitMode selects which functions receive the log initializer call.
type EntryInitMode string

const (
	// EntryInitPerFunction puts the initializer at the top of every
	// instrumented function. The runtime ignores repeated calls.
	EntryInitPerFunction EntryInitMode = "per-function"

	// EntryInitFirstFunction only instruments the first function the pass
	// sees; later functions rely on the logger opening the file lazily.
	EntryInitFirstFunction EntryInitMode = "first-function"
)

// Valid reports whether m is a known mode.
func (m EntryInitMode) Valid() bool {
	return m == EntryInitPerFunction || m == EntryInitFirstFunction
}

// Decision records what the injector did with one instruction.
type Decision uint8

const (
	// Instrumented means a logger call was inserted before the instruction.
	Instrumented Decision = iota
	// SkippedLandingPad means the instruction is a landingpad, which must
	// stay first in its block.
	SkippedLandingPad
	// SkippedPhi means the instruction is a phi; phis stay grouped at the
	// top of their block.
	SkippedPhi
	// SkippedRuntimeCall means the instruction calls the logger or the
	// initializer itself.
	SkippedRuntimeCall
	// SkippedIndirectCall means the instruction calls through a pointer.
	SkippedIndirectCall
)

// Inserted returns how many instructions the decision added before the
// instrumented instruction.
func (d Decision) Inserted() int {
	if d == Instrumented {
		return 1
	}
	return 0
}

func (d Decision) String() string {
	switch d {
	case Instrumented:
		return "instrumented"
	case SkippedLandingPad:
		return "skipped landingpad"
	case SkippedPhi:
		return "skipped phi"
	case SkippedRuntimeCall:
		return "skipped runtime call"
	case SkippedIndirectCall:
		return "skipped indirect call"
	}
	return "unknown"
}

// Injector rewrites IR to call the runtime logger.
//
// Thread Safety: NOT thread-safe (mutates the module in place).
type Injector struct {
	logger string
	init   string
	mode   EntryInitMode
	ids    *Resolver

	entryDone   bool
	initialized map[*ir.Function]bool

	countersCreated int
}

// NewInjector returns an injector that calls logger before instruction
// sites and init at function entry. ids must be the resolver the graph is
// built with, so that the ids the runtime logs match the graph's nodes.
func NewInjector(logger, init string, mode EntryInitMode, ids *Resolver) *Injector {
	if !mode.Valid() {
		mode = EntryInitPerFunction
	}
	return &Injector{
		logger:      logger,
		init:        init,
		mode:        mode,
		ids:         ids,
		initialized: make(map[*ir.Function]bool),
	}
}

// IsRuntimeSymbol reports whether name is one of the runtime entry points.
func (in *Injector) IsRuntimeSymbol(name string) bool {
	return name == in.logger || name == in.init
}

// InjectEntryInit inserts `call void @init()` as the first instruction of
// fn's entry block and reports whether it did. In per-function mode this
// happens once per function; in first-function mode once per Injector.
// Declarations are left alone.
func (in *Injector) InjectEntryInit(fn *ir.Function) bool {
	if fn.IsDeclaration() {
		return false
	}
	switch in.mode {
	case EntryInitFirstFunction:
		if in.entryDone {
			return false
		}
	default:
		if in.initialized[fn] {
			return false
		}
	}

	m := fn.Parent()
	initFn := m.GetOrInsertFunction(in.init, ir.Void)
	fn.Entry().InsertAt(0, ir.NewCall(initFn, ir.Void))

	in.entryDone = true
	in.initialized[fn] = true
	return true
}

// InstrumentInstruction inserts a logger call before b.Insts[idx]:
//
//	call void @logInstruction(ptr @.str.<op>, ptr @counter_<op><id>, i32 <id>)
//
// Landing pads and phis are skipped because nothing may precede them in a
// block. Calls to the runtime itself are skipped so the logger never logs
// its own calls, and so are indirect calls, whose target cannot be checked.
func (in *Injector) InstrumentInstruction(fn *ir.Function, b *ir.Block, idx int) Decision {
	inst := b.Insts[idx]
	switch inst.Op {
	case ir.OpLandingPad:
		return SkippedLandingPad
	case ir.OpPhi:
		return SkippedPhi
	case ir.OpCall:
		callee := inst.CalledFunction()
		if callee == nil {
			return SkippedIndirectCall
		}
		if in.IsRuntimeSymbol(callee.Name()) {
			return SkippedRuntimeCall
		}
	}

	m := fn.Parent()
	id := in.ids.ID(inst)
	opcode := inst.Op.String()

	counter, created := CounterFor(m, opcode, id)
	if created {
		in.countersCreated++
	}
	logFn := m.GetOrInsertFunction(in.logger, ir.Void, ir.Ptr, ir.Ptr, ir.I32)
	text := opcodeString(m, opcode)

	call := ir.NewCall(logFn, ir.Void, text, counter, ir.ConstInt(ir.I32, int64(id)))
	b.InsertAt(idx, call)
	return Instrumented
}

// CountersCreated returns how many counter globals this injector added.
func (in *Injector) CountersCreated() int {
	return in.countersCreated
}

// opcodeString returns the private string constant holding opcode,
// reusing the one from an earlier site with the same opcode.
func opcodeString(m *ir.Module, opcode string) *ir.Global {
	name := StringPrefix + opcode
	for _, g := range m.Globals {
		if g.Constant && g.IsString() && g.Text() == opcode && strings.HasPrefix(g.Name(), name) {
			return g
		}
	}
	return m.NewStringGlobal(name, opcode)
}

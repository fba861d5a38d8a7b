// Package pass implements the graph-and-instrument pass.
//
// For every function it is given, the pass:
//
//  1. Inserts a call to the log initializer at the top of the entry block
//  2. Walks blocks in order and instructions in program order
//  3. Inserts a logger call before each qualifying instruction, passing the
//     opcode, a per-site counter global and the site's node id
//  4. Emits a graph node for the instruction, a node for every operand and
//     an edge from each operand to the instruction
//
// Example Transformation:
//
//	// INPUT:
//	define i32 @main() {
//	entry:
//	  %x = add i32 1, 2
//	  ret i32 %x
//	}
//
//	// OUTPUT:
//	@counter_add4194306 = internal global i64 0
//	@.str.add = private constant [4 x i8] c"add\00"
//	...
//	define i32 @main() {
//	entry:
//	  call void @initLogFile()
//	  call void @logInstruction(ptr @.str.add, ptr @counter_add4194306, i32 4194306)
//	  %x = add i32 1, 2
//	  call void @logInstruction(ptr @.str.ret, ptr @counter_ret4194307, i32 4194307)
//	  ret i32 %x
//	}
//
// Node ids written to the graph and ids passed to the logger come from the
// same Resolver, so a dynamic log can be joined back onto the graph (see
// package heat).
//
// Thread Safety: NOT thread-safe. One Pass per module, one goroutine.
package pass

import (
	"go.uber.org/zap"

	"github.com/kolkov/irgraph/internal/ir"
)

// Graph receives the nodes and edges the pass discovers. *dot.Builder
// implements it.
type Graph interface {
	DefineNode(id NodeID, label string)
	ConstructEdge(src, dst NodeID)
}

// Options configures a Pass.
type Options struct {
	LoggerSymbol string        // Runtime logger entry point
	InitSymbol   string        // Runtime log initializer
	EntryInit    EntryInitMode // Which functions get the initializer
	Logger       *zap.Logger   // Diagnostics; nil disables logging
}

// DefaultOptions returns the options matching the rtlog runtime.
func DefaultOptions() Options {
	return Options{
		LoggerSymbol: DefaultLoggerSymbol,
		InitSymbol:   DefaultInitSymbol,
		EntryInit:    EntryInitPerFunction,
	}
}

// Pass drives the resolver, injector and graph over functions.
type Pass struct {
	graph Graph
	ids   *Resolver
	inj   *Injector
	log   *zap.Logger
	stats Stats
}

// New returns a pass that writes to graph. Empty option fields fall back
// to DefaultOptions.
func New(graph Graph, opts Options) *Pass {
	def := DefaultOptions()
	if opts.LoggerSymbol == "" {
		opts.LoggerSymbol = def.LoggerSymbol
	}
	if opts.InitSymbol == "" {
		opts.InitSymbol = def.InitSymbol
	}
	if opts.EntryInit == "" {
		opts.EntryInit = def.EntryInit
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ids := &Resolver{}
	return &Pass{
		graph: graph,
		ids:   ids,
		inj:   NewInjector(opts.LoggerSymbol, opts.InitSymbol, opts.EntryInit, ids),
		log:   log.Named("pass"),
	}
}

// Stats returns a snapshot of the statistics collected so far.
func (p *Pass) Stats() Stats {
	s := p.stats
	s.CountersCreated = p.inj.CountersCreated()
	return s
}

// Resolver returns the identity resolver shared by the graph and injector.
func (p *Pass) Resolver() *Resolver {
	return p.ids
}

// RunOnModule runs the pass over every defined function in module order.
// Functions that implement the runtime entry points are skipped: logging
// inside the logger would recurse forever. It reports whether the module
// changed.
func (p *Pass) RunOnModule(m *ir.Module) bool {
	modified := false
	for _, fn := range m.Definitions() {
		if p.inj.IsRuntimeSymbol(fn.Name()) {
			p.stats.RuntimeSkipped++
			p.log.Debug("skipping runtime function", zap.String("function", fn.Name()))
			continue
		}
		if p.RunOnFunction(fn) {
			modified = true
		}
	}
	p.log.Info("module instrumented",
		zap.String("module", m.Name),
		zap.Object("stats", p.Stats()))
	return modified
}

// RunOnFunction instruments fn and emits its graph. It returns true for
// every function with a body; graph write errors do not change the result
// and surface when the graph is closed.
func (p *Pass) RunOnFunction(fn *ir.Function) bool {
	if fn.IsDeclaration() {
		return false
	}
	p.stats.Functions++
	if p.inj.InjectEntryInit(fn) {
		p.stats.Initializers++
	}

	before := p.stats
	for _, b := range fn.Blocks {
		// Index cursor: the injector inserts before position i, which
		// shifts the current instruction right by the inserted count.
		for i := 0; i < len(b.Insts); i++ {
			d := p.inj.InstrumentInstruction(fn, b, i)
			p.stats.record(d)
			i += d.Inserted()

			inst := b.Insts[i]
			p.defineNode(inst)
			for _, op := range inst.Operands {
				p.defineNode(op)
				p.constructEdge(op, inst)
			}
		}
	}

	p.log.Debug("function instrumented",
		zap.String("function", fn.Name()),
		zap.Int("instrumented", p.stats.Instrumented-before.Instrumented),
		zap.Int("skipped", p.stats.Skipped()-before.Skipped()),
		zap.Int("nodes", p.stats.Nodes-before.Nodes))
	return true
}

func (p *Pass) defineNode(v ir.Value) {
	p.stats.Nodes++
	p.graph.DefineNode(p.ids.ID(v), Label(v))
}

func (p *Pass) constructEdge(src ir.Value, dst *ir.Instruction) {
	p.stats.Edges++
	p.graph.ConstructEdge(p.ids.ID(src), p.ids.ID(dst))
	if src.Kind() == ir.KindConstant {
		p.ids.Advance()
	}
}

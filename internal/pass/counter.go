package pass

import (
	"strconv"

	"github.com/kolkov/irgraph/internal/ir"
)

// CounterPrefix starts the name of every per-site counter global.
const CounterPrefix = "counter_"

// CounterName returns the global name of the counter for an instruction
// site: "counter_" + opcode + decimal id, e.g. "counter_add4194311".
func CounterName(opcode string, id NodeID) string {
	return CounterPrefix + opcode + strconv.FormatUint(uint64(id), 10)
}

// CounterFor returns the counter global for (opcode, id), creating an
// internal, zero-initialised i64 global on first request. created reports
// whether this call added it. Requests for the same pair in the same module
// always return the same global.
func CounterFor(m *ir.Module, opcode string, id NodeID) (counter *ir.Global, created bool) {
	name := CounterName(opcode, id)
	if g := m.NamedGlobal(name); g != nil {
		return g, false
	}
	return m.NewGlobal(name, ir.I64, ir.LinkageInternal, 0), true
}

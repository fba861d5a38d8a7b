package pass

import (
	"github.com/kolkov/irgraph/internal/dot"
	"github.com/kolkov/irgraph/internal/ir"
)

// NodeID is the graph identity of an IR value.
type NodeID = dot.NodeID

// Resolver maps IR values to graph node identities.
//
// Non-constant values map to their module handle, which is stable for the
// life of the module. All constant-kind values (integer constants, globals,
// functions) share one identity that only moves when Advance is called.
// The driver advances it after each edge that starts at a constant, so
// every constant use becomes its own small node instead of one hub that
// every function in the graph points at.
//
// Handles start at ir.HandleBase, far above any practical constant count,
// so the two id spaces do not collide.
type Resolver struct {
	constant NodeID
}

// ID returns the node identity of v. It never fails.
func (r *Resolver) ID(v ir.Value) NodeID {
	if v.Kind() == ir.KindConstant {
		return r.constant
	}
	return NodeID(v.Handle())
}

// Advance moves the shared constant identity to the next id.
func (r *Resolver) Advance() {
	r.constant++
}

// Current returns the identity constants resolve to right now.
func (r *Resolver) Current() NodeID {
	return r.constant
}

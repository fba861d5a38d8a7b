package pass

import "go.uber.org/zap/zapcore"

// Stats tracks what a Pass did.
//
// Enable with --stats to see it after instrumentation:
//
//	irgraph instrument --stats demo.ir
//	functions: 2
//	instrumented: 14
//	...
//
// Thread Safety: NOT thread-safe (single-threaded instrumentation).
type Stats struct {
	Functions       int `yaml:"functions"`        // Functions walked
	RuntimeSkipped  int `yaml:"runtime_skipped"`  // Runtime functions defined in the module and left alone
	Initializers    int `yaml:"initializers"`     // Entry initializer calls inserted
	Instrumented    int `yaml:"instrumented"`     // Logger calls inserted
	CountersCreated int `yaml:"counters_created"` // Counter globals added
	LandingPads     int `yaml:"landing_pads"`     // landingpad instructions skipped
	Phis            int `yaml:"phis"`             // phi instructions skipped
	RuntimeCalls    int `yaml:"runtime_calls"`    // Calls to the runtime skipped
	IndirectCalls   int `yaml:"indirect_calls"`   // Indirect calls skipped
	Nodes           int `yaml:"nodes"`            // Node lines emitted
	Edges           int `yaml:"edges"`            // Edge lines emitted
}

// Inserted returns the total number of calls added to the IR.
func (s *Stats) Inserted() int {
	return s.Initializers + s.Instrumented
}

// Skipped returns the number of instructions left uninstrumented.
func (s *Stats) Skipped() int {
	return s.LandingPads + s.Phis + s.RuntimeCalls + s.IndirectCalls
}

func (s *Stats) record(d Decision) {
	switch d {
	case Instrumented:
		s.Instrumented++
	case SkippedLandingPad:
		s.LandingPads++
	case SkippedPhi:
		s.Phis++
	case SkippedRuntimeCall:
		s.RuntimeCalls++
	case SkippedIndirectCall:
		s.IndirectCalls++
	}
}

// MarshalLogObject lets Stats be logged with zap.Object.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("functions", s.Functions)
	enc.AddInt("initializers", s.Initializers)
	enc.AddInt("instrumented", s.Instrumented)
	enc.AddInt("counters", s.CountersCreated)
	enc.AddInt("skipped", s.Skipped())
	enc.AddInt("nodes", s.Nodes)
	enc.AddInt("edges", s.Edges)
	return nil
}

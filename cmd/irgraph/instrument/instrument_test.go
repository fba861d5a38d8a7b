package instrument

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/irgraph/internal/ir"
	"github.com/kolkov/irgraph/internal/pass"
)

const addRet = `define i32 @main() {
entry:
  %x = add i32 1, 2
  ret i32 %x
}
`

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// TestInstrumentFileAddRet checks the instrumented IR and the graph of a
// two-instruction function against golden files.
func TestInstrumentFileAddRet(t *testing.T) {
	graphPath := filepath.Join(t.TempDir(), "assets", "graph.dot")
	res, err := InstrumentFile("add_ret.ir", []byte(addRet), Options{
		GraphPath: graphPath,
		Pass:      pass.DefaultOptions(),
	})
	require.NoError(t, err)
	assert.True(t, res.Modified)

	g := newGoldie(t)
	g.Assert(t, "add_ret_code", []byte(res.Code))

	graph, err := os.ReadFile(graphPath)
	require.NoError(t, err)
	g.Assert(t, "add_ret_graph", graph)

	assert.Equal(t, 1, res.Stats.Functions)
	assert.Equal(t, 1, res.Stats.Initializers)
	assert.Equal(t, 2, res.Stats.Instrumented)
	assert.Equal(t, 2, res.Stats.CountersCreated)
	assert.Equal(t, 1, res.Stats.RuntimeCalls)
	assert.Equal(t, 3, res.Stats.Inserted())
}

// TestInstrumentedCodeReparses verifies the printed module is valid input.
func TestInstrumentedCodeReparses(t *testing.T) {
	graphPath := filepath.Join(t.TempDir(), "graph.dot")
	res, err := InstrumentFile("add_ret.ir", []byte(addRet), Options{GraphPath: graphPath})
	require.NoError(t, err)

	mod, err := ir.Parse("instrumented.ir", []byte(res.Code))
	require.NoError(t, err)
	assert.NotNil(t, mod.NamedGlobal("counter_add4194306"))
	assert.NotNil(t, mod.Function("logInstruction"))
	assert.Equal(t, 5, mod.Function("main").NumInstructions())
}

// TestInstrumentFileReadsFromDisk checks a nil source reads the file.
func TestInstrumentFileReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.ir")
	require.NoError(t, os.WriteFile(src, []byte(addRet), 0o644))

	res, err := InstrumentFile(src, nil, Options{GraphPath: filepath.Join(dir, "graph.dot")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Instrumented)
}

// TestInstrumentFileParseError checks parse errors come back unwrapped so
// callers can inspect the position.
func TestInstrumentFileParseError(t *testing.T) {
	_, err := InstrumentFile("bad.ir", []byte("define i32 @main() {\nentry:\n  %x = frob i32 1\n}\n"),
		Options{GraphPath: filepath.Join(t.TempDir(), "graph.dot")})
	require.Error(t, err)

	var perr *ir.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bad.ir", perr.File)
	assert.Equal(t, 3, perr.Line)
}

// TestInstrumentFileGraphError checks an unwritable graph path fails.
func TestInstrumentFileGraphError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := InstrumentFile("add_ret.ir", []byte(addRet), Options{GraphPath: filepath.Join(blocker, "graph.dot")})
	require.Error(t, err)
}

// TestWriteStats checks the text rendering of the statistics.
func TestWriteStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStats(&buf, pass.Stats{
		Functions:       2,
		Initializers:    2,
		Instrumented:    7,
		CountersCreated: 7,
		Phis:            1,
		Nodes:           20,
		Edges:           12,
	}))

	out := buf.String()
	assert.Contains(t, out, "  - 2 functions instrumented\n")
	assert.Contains(t, out, "  - 7 logger calls inserted (7 counters)\n")
	assert.Contains(t, out, "  - 1 instructions skipped (0 landingpads, 1 phis, 0 runtime calls, 0 indirect calls)\n")
	assert.Contains(t, out, "  Total: 9 calls inserted\n")
	assert.NotContains(t, out, "runtime functions")
}

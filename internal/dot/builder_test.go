package dot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gonumdot "gonum.org/v1/gonum/graph/formats/dot"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// TestBuilderGolden checks the exact output of a small graph.
func TestBuilderGolden(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf)
	b.DefineNode(4194306, "add")
	b.DefineNode(0, "i32 7")
	b.ConstructEdge(0, 4194306)
	b.DefineNode(4194307, "{x|y}")
	b.ConstructEdge(4194306, 4194307)
	require.NoError(t, b.Close())

	newGoldie(t).Assert(t, "small_graph", buf.Bytes())
	assert.Equal(t, 3, b.Nodes())
	assert.Equal(t, 2, b.Edges())
}

// TestEmptyGraphIsClosed verifies a builder closed without output still
// produces a complete digraph.
func TestEmptyGraphIsClosed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf).Close())
	newGoldie(t).Assert(t, "empty_graph", buf.Bytes())
}

// TestOutputParses checks the output is well-formed DOT with one node
// statement per DefineNode and one edge statement per ConstructEdge.
func TestOutputParses(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf)
	labels := []string{`say "hi"`, `a\b`, "<port>", "x|y", "{}", "entry:", "%5"}
	for i, l := range labels {
		b.DefineNode(NodeID(4194304+i), l)
		if i > 0 {
			b.ConstructEdge(NodeID(4194304+i-1), NodeID(4194304+i))
		}
	}
	require.NoError(t, b.Close())

	f, err := gonumdot.ParseBytes(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Graphs, 1)
	assert.True(t, f.Graphs[0].Directed)
	assert.Equal(t, "structs", f.Graphs[0].ID)
}

// TestCloseOnce verifies repeated Close calls do not duplicate the footer.
func TestCloseOnce(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	b.DefineNode(1, "late")

	assert.Equal(t, 1, strings.Count(buf.String(), Footer))
	assert.NotContains(t, buf.String(), "late")
}

// TestOpenCreatesDirectories verifies Open makes the parent directory and
// truncates an existing file.
func TestOpenCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets", "graph.dot")
	b, err := Open(path)
	require.NoError(t, err)
	b.DefineNode(4194304, "ret")
	require.NoError(t, b.Close())

	b, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Header+Footer, string(data))
}

// TestOpenFailure checks the error when the path cannot be created.
func TestOpenFailure(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Open(filepath.Join(file, "graph.dot"))
	require.Error(t, err)
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.n++
	return 0, errors.New("disk full")
}

// TestStickyWriteError checks the first write error is kept and reported
// by Close.
func TestStickyWriteError(t *testing.T) {
	b := New(&failingWriter{})
	for i := 0; i < 10000; i++ {
		b.DefineNode(NodeID(i), "node")
	}
	err := b.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, err, b.Err())
}

// TestSanitizeEscapes covers every structural character.
func TestSanitizeEscapes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"`, `\"`},
		{`\`, `\\`},
		{`<a>`, `\<a\>`},
		{`{b}`, `\{b\}`},
		{`c|d`, `c\|d`},
		{`i32 %x`, `i32 %x`},
		{``, ``},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "Sanitize(%q)", tt.in)
	}
}

// TestSanitizeSafeInputUnchanged verifies labels without structural
// characters pass through untouched.
func TestSanitizeSafeInputUnchanged(t *testing.T) {
	for _, s := range []string{"add", "entry:", "i64 -1", "counter_add4194306", "%0"} {
		assert.Equal(t, s, Sanitize(s))
	}
}

// TestSanitizeTruncation checks the 100/101 character boundary.
func TestSanitizeTruncation(t *testing.T) {
	hundred := strings.Repeat("a", 100)
	assert.Equal(t, hundred, Sanitize(hundred))

	oneOhOne := strings.Repeat("b", 101)
	assert.Equal(t, oneOhOne, Sanitize(oneOhOne))

	long := strings.Repeat("c", 500)
	assert.Len(t, Sanitize(long), MaxLabel+1)

	// Escapes count once per source character.
	escaped := Sanitize(strings.Repeat("|", 200))
	assert.Equal(t, strings.Repeat(`\|`, MaxLabel+1), escaped)
}

// TestSanitizeBytes verifies invalid UTF-8 is copied as is and the cap
// counts bytes rather than runes.
func TestSanitizeBytes(t *testing.T) {
	assert.Equal(t, "a\xffb", Sanitize("a\xffb"))
	assert.Equal(t, "\xfe\\|\xff", Sanitize("\xfe|\xff"))

	// 60 two-byte runes: only the first 101 bytes survive, splitting a rune.
	wide := strings.Repeat("\u00e9", 60)
	got := Sanitize(wide)
	assert.Len(t, got, MaxLabel+1)
	assert.Equal(t, wide[:MaxLabel+1], got)
}

// Package dot writes the static dependency graph in Graphviz DOT format.
//
// The output is a single digraph: a fixed preamble of rendering attributes,
// then node and edge lines in the order they were emitted, then a closing
// brace. Nodes may be defined more than once; Graphviz merges them.
//
//	digraph structs {
//	graph[splines=true, overlap=false, pack=true];
//	...
//	4194311 [label="add"];
//	4194305 -> 4194311 [weight=1]
//	}
//
// Thread Safety: NOT thread-safe. A Builder belongs to one pass run.
package dot

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Header is the preamble written by every Builder.
const Header = "digraph structs {\n" +
	"graph[splines=true, overlap=false, pack=true];\n" +
	"node[shape=Mrecord, style=filled, fillcolor=\"lightgray\", color=\"black\", fontsize=20];\n" +
	"edge[color=\"darkblue\",fontcolor=\"yellow\",fontsize=12];\n\n"

// Footer closes the digraph block.
const Footer = "}\n"

// MaxLabel is the number of source bytes kept by Sanitize before it
// stops copying. The check runs after a byte is copied, so up to
// MaxLabel+1 source bytes survive.
const MaxLabel = 100

// NodeID identifies a graph node.
type NodeID uint32

// Builder appends node and edge declarations to a DOT stream.
//
// Write errors are sticky: the first one is kept, later writes become
// no-ops, and the error is reported by Err and Close.
type Builder struct {
	w      *bufio.Writer
	closer io.Closer
	err    error
	closed bool

	nodes int
	edges int
}

// Open creates (or truncates) the file at path, creating parent
// directories as needed, and writes the header.
func Open(path string) (*Builder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating graph directory %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening graph file %s", path)
	}
	return New(f), nil
}

// New starts a graph on w. If w is an io.Closer it is closed by Close.
func New(w io.Writer) *Builder {
	b := &Builder{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		b.closer = c
	}
	b.write(Header)
	return b
}

func (b *Builder) write(s string) {
	if b.err != nil || b.closed {
		return
	}
	if _, err := b.w.WriteString(s); err != nil {
		b.err = errors.Wrap(err, "writing graph")
	}
}

// DefineNode writes `id [label="..."];` with the label sanitised.
func (b *Builder) DefineNode(id NodeID, label string) {
	b.nodes++
	b.write(strconv.FormatUint(uint64(id), 10) + " [label=\"" + Sanitize(label) + "\"];\n")
}

// ConstructEdge writes `src -> dst [weight=1]`.
func (b *Builder) ConstructEdge(src, dst NodeID) {
	b.edges++
	b.write(strconv.FormatUint(uint64(src), 10) + " -> " + strconv.FormatUint(uint64(dst), 10) + " [weight=1]\n")
}

// Nodes returns the number of node lines emitted so far.
func (b *Builder) Nodes() int { return b.nodes }

// Edges returns the number of edge lines emitted so far.
func (b *Builder) Edges() int { return b.edges }

// Err returns the first write error, if any.
func (b *Builder) Err() error { return b.err }

// Close writes the footer, flushes and closes the underlying writer. Only
// the first call does anything; later calls return the same error.
func (b *Builder) Close() error {
	if b.closed {
		return b.err
	}
	b.write(Footer)
	b.closed = true
	if err := b.w.Flush(); err != nil && b.err == nil {
		b.err = errors.Wrap(err, "flushing graph")
	}
	if b.closer != nil {
		if err := b.closer.Close(); err != nil && b.err == nil {
			b.err = errors.Wrap(err, "closing graph")
		}
	}
	return b.err
}

// Sanitize escapes the characters that are structural in DOT record labels
// (" \ < > { } |) and truncates long labels. It works on bytes, so
// invalid UTF-8 passes through and the cap counts bytes.
func Sanitize(label string) string {
	var sb strings.Builder
	for i := 0; i < len(label) && i <= MaxLabel; i++ {
		switch label[i] {
		case '"', '\\', '<', '>', '{', '}', '|':
			sb.WriteByte('\\')
		}
		sb.WriteByte(label[i])
	}
	return sb.String()
}

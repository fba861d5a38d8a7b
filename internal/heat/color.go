package heat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"

	"github.com/kolkov/irgraph/internal/ir"
)

// Color returns the fill colour for count out of peak: pure green for 0,
// pure red for peak, as "#RRGG00".
func Color(count, peak int64) string {
	if peak < 1 {
		peak = 1
	}
	n := float64(count) / float64(peak)
	r := int(255 * n)
	g := int(255 * (1 - n))
	return fmt.Sprintf("#%02x%02x00", r, g)
}

// Paintable reports whether the node id with the given label is an
// instruction worth colouring. Constants (ids below ir.HandleBase) and
// register-like labels ("%5", "i32 %5") are left alone.
func Paintable(id uint64, label string) bool {
	if id < uint64(ir.HandleBase) {
		return false
	}
	label = strings.TrimSpace(label)
	if strings.HasPrefix(label, "%") {
		return false
	}
	digits := len(label) - len(strings.TrimRight(label, "0123456789"))
	if digits > 0 && digits < len(label) && label[len(label)-digits-1] == '%' {
		return false
	}
	return true
}

// Colorize parses a graph written by the instrument command and returns
// it with every paintable node filled by its execution count. It also
// returns how many node statements were painted.
func Colorize(src []byte, p *Profile) ([]byte, int, error) {
	f, err := dot.ParseBytes(src)
	if err != nil {
		return nil, 0, errors.Wrap(err, "parse graph")
	}
	peak := p.Max()
	painted := 0
	for _, g := range f.Graphs {
		painted += paint(g.Stmts, p, peak)
	}
	return []byte(f.String() + "\n"), painted, nil
}

func paint(stmts []ast.Stmt, p *Profile, peak int64) int {
	painted := 0
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.NodeStmt:
			id, err := strconv.ParseUint(s.Node.ID, 10, 32)
			if err != nil {
				continue
			}
			if !Paintable(id, attr(s.Attrs, "label")) {
				continue
			}
			s.Attrs = setAttr(s.Attrs, "fillcolor", strconv.Quote(Color(p.Count(uint32(id)), peak)))
			s.Attrs = setAttr(s.Attrs, "style", "filled")
			painted++
		case *ast.Subgraph:
			painted += paint(s.Stmts, p, peak)
		}
	}
	return painted
}

// Labels returns the label of every numbered node in a graph.
func Labels(src []byte) (map[uint32]string, error) {
	f, err := dot.ParseBytes(src)
	if err != nil {
		return nil, errors.Wrap(err, "parse graph")
	}
	labels := make(map[uint32]string)
	for _, g := range f.Graphs {
		for _, stmt := range g.Stmts {
			s, ok := stmt.(*ast.NodeStmt)
			if !ok {
				continue
			}
			id, err := strconv.ParseUint(s.Node.ID, 10, 32)
			if err != nil {
				continue
			}
			labels[uint32(id)] = attr(s.Attrs, "label")
		}
	}
	return labels, nil
}

// attr returns the unquoted value of key, or "".
func attr(attrs []*ast.Attr, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return unquote(a.Val)
		}
	}
	return ""
}

func setAttr(attrs []*ast.Attr, key, val string) []*ast.Attr {
	for _, a := range attrs {
		if a.Key == key {
			a.Val = val
			return attrs
		}
	}
	return append(attrs, &ast.Attr{Key: key, Val: val})
}

// unquote strips DOT string quotes. Only \" is an escape in DOT; other
// backslash sequences are kept as written.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
}

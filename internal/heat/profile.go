// Package heat joins a dynamic log back onto the static graph.
//
// Every dynamic log line names a node id, and the graph carries the same
// id for the instruction that was logged. ParseLog folds the log into a
// Profile holding the highest counter seen per id. Colorize paints the
// instruction nodes of the graph from green (never ran) to red (the
// hottest site).
package heat

import (
	"bufio"
	"io"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// logLine matches one runtime log line: <id> '<opcode>' counter: <n>.
var logLine = regexp.MustCompile(`^(\d+)\s+'(.*?)'\s+counter:\s+(\d+)`)

// Site is the execution count of one instrumented instruction.
type Site struct {
	ID     uint32 `yaml:"id"`
	Opcode string `yaml:"opcode"`
	Count  int64  `yaml:"count"`
}

// Profile is a parsed dynamic log.
type Profile struct {
	Sites   map[uint32]Site
	Lines   int // Lines that matched
	Ignored int // Lines that did not
}

// ParseLog reads a dynamic log. Lines that do not look like log lines are
// counted and ignored. Counters only grow, so the largest value seen for a
// site is its execution count.
func ParseLog(r io.Reader) (*Profile, error) {
	p := &Profile{Sites: make(map[uint32]Site)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		m := logLine.FindStringSubmatch(sc.Text())
		if m == nil {
			p.Ignored++
			continue
		}
		id, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			p.Ignored++
			continue
		}
		n, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			p.Ignored++
			continue
		}
		p.Lines++
		s, ok := p.Sites[uint32(id)]
		if !ok || n > s.Count {
			p.Sites[uint32(id)] = Site{ID: uint32(id), Opcode: m[2], Count: n}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read dynamic log")
	}
	return p, nil
}

// Count returns the execution count of id, 0 if it never ran.
func (p *Profile) Count(id uint32) int64 {
	return p.Sites[id].Count
}

// Max returns the largest count in the profile, and at least 1.
func (p *Profile) Max() int64 {
	peak := int64(1)
	for _, s := range p.Sites {
		if s.Count > peak {
			peak = s.Count
		}
	}
	return peak
}

package heat

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// HotSite is a Site with its graph label.
type HotSite struct {
	Site `yaml:",inline"`

	Label string `yaml:"label,omitempty"`
}

// Summary describes a profile for humans.
type Summary struct {
	Sites      int       `yaml:"sites"`
	Executions int64     `yaml:"executions"`
	Peak       int64     `yaml:"peak"`
	Ignored    int       `yaml:"ignored_lines,omitempty"`
	Hottest    []HotSite `yaml:"hottest"`
}

// Summarize returns the top hottest sites of p, most executed first and
// ties by id. labels, which may be nil, names sites by their graph label.
// top <= 0 keeps every site.
func Summarize(p *Profile, labels map[uint32]string, top int) Summary {
	sites := make([]Site, 0, len(p.Sites))
	var total int64
	for _, s := range p.Sites {
		sites = append(sites, s)
		total += s.Count
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Count != sites[j].Count {
			return sites[i].Count > sites[j].Count
		}
		return sites[i].ID < sites[j].ID
	})
	if top > 0 && len(sites) > top {
		sites = sites[:top]
	}

	s := Summary{
		Sites:      len(p.Sites),
		Executions: total,
		Peak:       p.Max(),
		Ignored:    p.Ignored,
		Hottest:    make([]HotSite, len(sites)),
	}
	if len(p.Sites) == 0 {
		s.Peak = 0
	}
	for i, site := range sites {
		s.Hottest[i] = HotSite{Site: site, Label: labels[site.ID]}
	}
	return s
}

// WriteYAML writes s as a YAML document.
func (s Summary) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(err, "encode heat summary")
	}
	return errors.Wrap(enc.Close(), "encode heat summary")
}

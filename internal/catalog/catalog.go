// Package catalog holds the read-only list of patterns served by the app.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/apl-daily-backend/internal/domain"
)

//go:embed data/patterns.yaml
var bundled []byte

type file struct {
	Patterns []domain.Pattern `yaml:"patterns"`
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	patterns []domain.Pattern
	byID     map[int]int
}

func New(patterns []domain.Pattern) (*Catalog, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("catalog: no patterns")
	}
	sorted := make([]domain.Pattern, len(patterns))
	copy(sorted, patterns)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[int]int, len(sorted))
	for i := range sorted {
		p := &sorted[i]
		p.Title = strings.TrimSpace(p.Title)
		if p.ID <= 0 {
			return nil, fmt.Errorf("catalog: pattern %q has non-positive id %d", p.Title, p.ID)
		}
		if p.Title == "" {
			return nil, fmt.Errorf("catalog: pattern %d has no title", p.ID)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate pattern id %d", p.ID)
		}
		if strings.TrimSpace(p.ImagePrompt) == "" {
			p.ImagePrompt = DefaultImagePrompt(p.Title, p.Problem)
		}
		byID[p.ID] = i
	}
	return &Catalog{patterns: sorted, byID: byID}, nil
}

func Load(r io.Reader) (*Catalog, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(f.Patterns)
}

func LoadFile(path string) (*Catalog, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer fh.Close()
	return Load(fh)
}

// Bundled returns the catalog compiled into the binary.
func Bundled() (*Catalog, error) {
	return Load(bytes.NewReader(bundled))
}

// Open loads path when it is set and falls back to the bundled catalog.
func Open(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Bundled()
	}
	return LoadFile(path)
}

// Encode writes patterns in the on-disk catalog format.
func Encode(w io.Writer, patterns []domain.Pattern) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file{Patterns: patterns}); err != nil {
		return err
	}
	return enc.Close()
}

func (c *Catalog) Get(id int) (domain.Pattern, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Pattern{}, false
	}
	return c.patterns[i], true
}

// All returns the patterns ordered by id. The slice is a copy.
func (c *Catalog) All() []domain.Pattern {
	out := make([]domain.Pattern, len(c.patterns))
	copy(out, c.patterns)
	return out
}

// IDs returns every pattern id in ascending order.
func (c *Catalog) IDs() []int {
	out := make([]int, len(c.patterns))
	for i, p := range c.patterns {
		out[i] = p.ID
	}
	return out
}

func (c *Catalog) Len() int { return len(c.patterns) }

func DefaultImagePrompt(title, problem string) string {
	first := strings.TrimSpace(strings.SplitN(problem, ".", 2)[0])
	return fmt.Sprintf("Architectural visualization of %q - %s, professional architectural rendering, detailed, realistic", title, first)
}

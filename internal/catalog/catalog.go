// Package catalog holds the immutable set of layout templates the selector
// chooses from. The built-in templates ship embedded in the binary; extra
// templates can be layered on at startup from Postgres.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"bannerserver/internal/domain/layout"
)

//go:embed templates.json
var builtin []byte

var (
	ErrEmpty       = errors.New("catalog: no templates")
	ErrDuplicateID = errors.New("catalog: duplicate template id")
	ErrReservedID  = errors.New("catalog: template id is reserved by a built-in template")
)

var builtinIDs = sync.OnceValue(func() map[string]bool {
	ids := make(map[string]bool)
	templates, err := Parse(builtin)
	if err != nil {
		return ids
	}
	for _, t := range templates {
		ids[strings.TrimSpace(t.ID)] = true
	}
	return ids
})

// IsBuiltinID reports whether id names one of the embedded templates.
func IsBuiltinID(id string) bool {
	return builtinIDs()[strings.TrimSpace(id)]
}

// Catalog is safe for concurrent use; it is never mutated after New returns
// and every query hands out deep copies.
type Catalog struct {
	entries []layout.Template
	byRes   map[string][]int
	byID    map[string]int
}

// New validates the templates and indexes them by resolution. Duplicate IDs
// are rejected; later templates do not shadow earlier ones.
func New(templates []layout.Template) (*Catalog, error) {
	if len(templates) == 0 {
		return nil, ErrEmpty
	}
	c := &Catalog{
		entries: make([]layout.Template, 0, len(templates)),
		byRes:   make(map[string][]int),
		byID:    make(map[string]int),
	}
	for i, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: template %d (%s): %w", i, t.ID, err)
		}
		w, h, _ := layout.ParseResolution(t.Resolution)
		t = t.Clone()
		t.Resolution = layout.FormatResolution(w, h)
		if t.ID == "" {
			t.ID = fmt.Sprintf("template-%d", i+1)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, t.ID)
		}
		idx := len(c.entries)
		c.entries = append(c.entries, t)
		c.byID[t.ID] = idx
		c.byRes[t.Resolution] = append(c.byRes[t.Resolution], idx)
	}
	return c, nil
}

// Builtin returns a catalog over the embedded templates.
func Builtin() (*Catalog, error) {
	templates, err := Parse(builtin)
	if err != nil {
		return nil, err
	}
	return New(templates)
}

// BuiltinTemplates returns the embedded templates without indexing them.
func BuiltinTemplates() ([]layout.Template, error) {
	return Parse(builtin)
}

// Parse decodes a JSON array of templates.
func Parse(data []byte) ([]layout.Template, error) {
	var templates []layout.Template
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("catalog: decode templates: %w", err)
	}
	return templates, nil
}

// With returns a new catalog holding c's templates followed by extra.
func (c *Catalog) With(extra []layout.Template) (*Catalog, error) {
	if len(extra) == 0 {
		return c, nil
	}
	return New(append(c.All(), extra...))
}

// WithStored layers operator-managed templates over c. Unlike With, a bad
// row never fails the whole catalog: templates that are invalid, lack an ID
// or reuse an existing ID are left out and reported in skipped.
func (c *Catalog) WithStored(extra []layout.Template) (merged *Catalog, skipped []error) {
	if len(extra) == 0 {
		return c, nil
	}
	seen := make(map[string]bool, len(c.byID)+len(extra))
	for id := range c.byID {
		seen[id] = true
	}
	keep := c.All()
	for i, t := range extra {
		t.ID = strings.TrimSpace(t.ID)
		switch {
		case t.ID == "":
			skipped = append(skipped, fmt.Errorf("catalog: stored template %d: %w: id is required", i, layout.ErrInvalidTemplate))
			continue
		case IsBuiltinID(t.ID):
			skipped = append(skipped, fmt.Errorf("%w: %q", ErrReservedID, t.ID))
			continue
		case seen[t.ID]:
			skipped = append(skipped, fmt.Errorf("%w: %q", ErrDuplicateID, t.ID))
			continue
		}
		if err := t.Validate(); err != nil {
			skipped = append(skipped, fmt.Errorf("catalog: stored template %s: %w", t.ID, err))
			continue
		}
		seen[t.ID] = true
		keep = append(keep, t)
	}
	if len(keep) == len(c.entries) {
		return c, skipped
	}
	merged, err := New(keep)
	if err != nil {
		// Every entry was validated above.
		return c, append(skipped, err)
	}
	return merged, skipped
}

// FindMatches returns the templates for resolution with exactly numImages
// image inputs.
func (c *Catalog) FindMatches(resolution string, numImages int) []layout.Template {
	var out []layout.Template
	for _, idx := range c.byRes[canonical(resolution)] {
		if c.entries[idx].NumImages == numImages {
			out = append(out, c.entries[idx].Clone())
		}
	}
	return out
}

// FindByResolution returns every template for resolution regardless of image count.
func (c *Catalog) FindByResolution(resolution string) []layout.Template {
	indexes := c.byRes[canonical(resolution)]
	if len(indexes) == 0 {
		return nil
	}
	out := make([]layout.Template, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, c.entries[idx].Clone())
	}
	return out
}

// Get looks a template up by ID.
func (c *Catalog) Get(id string) (layout.Template, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return layout.Template{}, false
	}
	return c.entries[idx].Clone(), true
}

// All returns every template in catalog order.
func (c *Catalog) All() []layout.Template {
	out := make([]layout.Template, len(c.entries))
	for i, t := range c.entries {
		out[i] = t.Clone()
	}
	return out
}

// At returns the template at position i of All.
func (c *Catalog) At(i int) layout.Template {
	return c.entries[i].Clone()
}

func (c *Catalog) Len() int { return len(c.entries) }

// Resolutions lists the distinct resolutions in the catalog, sorted.
func (c *Catalog) Resolutions() []string {
	out := make([]string, 0, len(c.byRes))
	for res := range c.byRes {
		out = append(out, res)
	}
	sort.Strings(out)
	return out
}

func canonical(resolution string) string {
	w, h, err := layout.ParseResolution(resolution)
	if err != nil {
		return ""
	}
	return layout.FormatResolution(w, h)
}

// Package catalog holds the strategy template catalog: compiled-in built-ins
// plus user-created templates. Built-ins are immutable; user templates are
// fully mutable. The catalog is read-mostly and safe for concurrent use.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/tradeforge/stratgen/internal/model"
)

// Filter narrows List results. Zero-value fields match everything.
type Filter struct {
	Category   string
	MarketType string
	Timeframe  string
	Difficulty string
	Tag        string
}

// Catalog is an in-memory template catalog keyed by template id.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*model.StrategyTemplate
	order     []string // insertion order for stable listings
	fold      cases.Caser
}

// New creates a Catalog seeded with the built-in templates.
func New() *Catalog {
	c := &Catalog{
		templates: make(map[string]*model.StrategyTemplate),
		fold:      cases.Fold(),
	}
	for _, t := range builtinTemplates() {
		c.put(t)
	}
	return c
}

func (c *Catalog) put(t *model.StrategyTemplate) {
	if _, exists := c.templates[t.ID]; !exists {
		c.order = append(c.order, t.ID)
	}
	c.templates[t.ID] = t
}

// Get returns a copy of the template with the given id, or nil.
func (c *Catalog) Get(id string) *model.StrategyTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[id]
	if !ok {
		return nil
	}
	return clone(t)
}

// List returns templates matching the filter, in insertion order.
func (c *Catalog) List(f Filter) []model.StrategyTemplate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.StrategyTemplate, 0, len(c.order))
	for _, id := range c.order {
		t := c.templates[id]
		if !matches(t, f) {
			continue
		}
		out = append(out, *clone(t))
	}
	return out
}

// Search performs a case-insensitive substring match over template names and
// descriptions. Results are ordered by descending usage count, then name.
func (c *Catalog) Search(keyword string) []model.StrategyTemplate {
	needle := c.fold.String(strings.TrimSpace(keyword))

	c.mu.RLock()
	out := make([]model.StrategyTemplate, 0, 4)
	for _, id := range c.order {
		t := c.templates[id]
		if needle == "" ||
			strings.Contains(c.fold.String(t.Name), needle) ||
			strings.Contains(c.fold.String(t.Description), needle) {
			out = append(out, *clone(t))
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Create adds a user template, assigning an id when absent. Creating over an
// existing id is rejected.
func (c *Catalog) Create(t *model.StrategyTemplate) (*model.StrategyTemplate, error) {
	if t.Name == "" {
		return nil, eris.New("catalog: template name is required")
	}

	cp := clone(t)
	cp.Builtin = false
	if cp.ID == "" {
		cp.ID = "tmpl-" + uuid.NewString()[:8]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.templates[cp.ID]; exists {
		return nil, eris.Errorf("catalog: template %q already exists", cp.ID)
	}
	c.put(cp)

	return clone(cp), nil
}

// Update replaces a user template. Built-ins cannot be updated.
func (c *Catalog) Update(id string, t *model.StrategyTemplate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.templates[id]
	if !ok {
		return eris.Errorf("catalog: template %q not found", id)
	}
	if existing.Builtin {
		return eris.Errorf("catalog: template %q is built-in and immutable", id)
	}

	cp := clone(t)
	cp.ID = id
	cp.Builtin = false
	c.templates[id] = cp
	return nil
}

// Delete removes a user template and reports whether anything was deleted.
// Deleting a built-in or unknown id returns false and leaves the catalog
// unchanged.
func (c *Catalog) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.templates[id]
	if !ok || t.Builtin {
		return false
	}

	delete(c.templates, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// IncrementUsage bumps a template's usage counter. Unknown ids are ignored.
func (c *Catalog) IncrementUsage(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.templates[id]; ok {
		t.UsageCount++
	}
}

// Len returns the number of templates in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

func matches(t *model.StrategyTemplate, f Filter) bool {
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.Difficulty != "" && !strings.EqualFold(t.Difficulty, f.Difficulty) {
		return false
	}
	if f.MarketType != "" && !containsFold(t.MarketTypes, f.MarketType) {
		return false
	}
	if f.Timeframe != "" && !containsFold(t.Timeframes, f.Timeframe) {
		return false
	}
	if f.Tag != "" && !containsFold(t.Tags, f.Tag) {
		return false
	}
	return true
}

// clone deep-copies a template so handed-out and stored instances never
// share maps or slices. Mutating a returned template must not edit the
// catalog.
func clone(t *model.StrategyTemplate) *model.StrategyTemplate {
	cp := *t
	if t.Parameters != nil {
		cp.Parameters = make(map[string]any, len(t.Parameters))
		for k, v := range t.Parameters {
			cp.Parameters[k] = v
		}
	}
	cp.MarketTypes = append([]string(nil), t.MarketTypes...)
	cp.Timeframes = append([]string(nil), t.Timeframes...)
	cp.Tags = append([]string(nil), t.Tags...)
	return &cp
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

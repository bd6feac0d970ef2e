package npc

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/action"
)

// Catalog indexes hostile templates by ID.
type Catalog struct {
	templates map[string]*Template
}

// NewCatalog builds a Catalog. When arsenal is non-nil every weapon and
// spell reference is checked against it.
//
// Postcondition: Returns an error naming the first duplicate ID or dangling reference.
func NewCatalog(templates []*Template, arsenal *action.Arsenal) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, dup := c.templates[t.ID]; dup {
			return nil, fmt.Errorf("duplicate npc template id %q", t.ID)
		}
		if arsenal != nil {
			for _, id := range append(append([]string(nil), t.Weapons...), t.Spells...) {
				if _, err := arsenal.Action(id); err != nil {
					return nil, fmt.Errorf("npc template %q: %w", t.ID, err)
				}
			}
		}
		c.templates[t.ID] = t
	}
	return c, nil
}

// Get returns the template for id.
func (c *Catalog) Get(id string) (*Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// IDs returns every template ID in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.templates) }

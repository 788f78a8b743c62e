package category

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Category identifies a question topic shown to players.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Fixed catalog shipped with the game. Custom categories created at run
// time live in a separate map and never mutate this list.
var fixed = []Category{
	{ID: "general", Name: "General Knowledge"},
	{ID: "science", Name: "Science & Nature"},
	{ID: "history", Name: "History"},
	{ID: "geography", Name: "Geography"},
	{ID: "sports", Name: "Sports"},
	{ID: "movies", Name: "Movies & TV"},
	{ID: "music", Name: "Music"},
	{ID: "food", Name: "Food & Drink"},
}

// Catalog resolves category IDs to display names and tracks custom
// categories created during a session.
type Catalog struct {
	mu     sync.RWMutex
	custom map[string]string // id -> display name
	now    func() time.Time
}

// NewCatalog returns a catalog with the fixed categories and no custom ones.
func NewCatalog() *Catalog {
	return &Catalog{
		custom: make(map[string]string),
		now:    time.Now,
	}
}

// List returns the fixed catalog followed by custom categories sorted by ID.
func (c *Catalog) List() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Category, 0, len(fixed)+len(c.custom))
	out = append(out, fixed...)

	ids := make([]string, 0, len(c.custom))
	for id := range c.custom {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, Category{ID: id, Name: c.custom[id]})
	}
	return out
}

// AddCustom registers a user-supplied category and returns its generated ID.
// IDs derive from the creation timestamp so they never collide with the
// fixed catalog.
func (c *Catalog) AddCustom(name string) (Category, error) {
	if name == "" {
		return Category{}, fmt.Errorf("custom category name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	id := fmt.Sprintf("custom-%d", c.now().UnixNano())
	c.custom[id] = name
	return Category{ID: id, Name: name}, nil
}

// DisplayName resolves an ID against fixed and custom categories.
// Unknown IDs fall back to the ID itself so prompts stay usable.
func (c *Catalog) DisplayName(id string) string {
	for _, cat := range fixed {
		if cat.ID == id {
			return cat.Name
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if name, ok := c.custom[id]; ok {
		return name
	}
	return id
}

// Exists reports whether the ID names a fixed or custom category.
func (c *Catalog) Exists(id string) bool {
	for _, cat := range fixed {
		if cat.ID == id {
			return true
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.custom[id]
	return ok
}

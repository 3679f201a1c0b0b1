// Package state holds the in-memory view models fed by both REST responses
// and real-time events. Mutations are idempotent upserts/removals keyed by
// entity id, so an event that duplicates a REST response (or arrives after
// it) never corrupts the collection.
package state

import (
	"sort"
	"sync"

	"github.com/lebensmittel/cli/internal/model"
)

// Groceries is the in-memory grocery list.
type Groceries struct {
	mu    sync.Mutex
	items []model.GroceryItem
}

func NewGroceries() *Groceries {
	return &Groceries{}
}

// Replace swaps in a full server listing.
func (g *Groceries) Replace(items []model.GroceryItem) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = append([]model.GroceryItem(nil), items...)
}

// Upsert inserts or overwrites the item with the same id.
func (g *Groceries) Upsert(item model.GroceryItem) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.items {
		if g.items[i].ID == item.ID {
			g.items[i] = item
			return
		}
	}
	g.items = append(g.items, item)
}

// Remove deletes the item with the given id. Unknown ids are a no-op.
func (g *Groceries) Remove(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.items {
		if g.items[i].ID == id {
			g.items = append(g.items[:i], g.items[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current items.
func (g *Groceries) Snapshot() []model.GroceryItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.GroceryItem(nil), g.items...)
}

// Len returns the number of items.
func (g *Groceries) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

// ByCategory groups the items for display, categories sorted alphabetically.
func (g *Groceries) ByCategory() ([]string, map[string][]model.GroceryItem) {
	g.mu.Lock()
	defer g.mu.Unlock()

	grouped := make(map[string][]model.GroceryItem)
	for _, item := range g.items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}

	categories := make([]string, 0, len(grouped))
	for category := range grouped {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	return categories, grouped
}

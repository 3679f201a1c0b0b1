package state

import (
	"sort"
	"sync"

	"github.com/lebensmittel/cli/internal/model"
)

// MealPlans is the in-memory meal plan collection.
type MealPlans struct {
	mu    sync.Mutex
	plans []model.MealPlan
}

func NewMealPlans() *MealPlans {
	return &MealPlans{}
}

// Replace swaps in a full server listing.
func (m *MealPlans) Replace(plans []model.MealPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append([]model.MealPlan(nil), plans...)
}

// Upsert inserts or overwrites the plan with the same id.
func (m *MealPlans) Upsert(plan model.MealPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.plans {
		if m.plans[i].ID == plan.ID {
			m.plans[i] = plan
			return
		}
	}
	m.plans = append(m.plans, plan)
}

// Remove deletes the plan with the given id. Unknown ids are a no-op.
func (m *MealPlans) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.plans {
		if m.plans[i].ID == id {
			m.plans = append(m.plans[:i], m.plans[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the plans ordered by date.
func (m *MealPlans) Snapshot() []model.MealPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]model.MealPlan(nil), m.plans...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Len returns the number of plans.
func (m *MealPlans) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plans)
}

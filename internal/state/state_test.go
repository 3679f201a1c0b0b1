package state_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lebensmittel/cli/internal/model"
	"github.com/lebensmittel/cli/internal/state"
)

func TestGroceries(t *testing.T) {
	t.Run("upsert inserts new items and overwrites by id", func(t *testing.T) {
		groceries := state.NewGroceries()

		item := model.GroceryItem{ID: uuid.NewString(), Name: "Milk", Category: "Dairy", IsNeeded: true}
		groceries.Upsert(item)
		require.Equal(t, 1, groceries.Len())

		item.IsShoppingChecked = true
		groceries.Upsert(item)
		require.Equal(t, 1, groceries.Len())
		assert.True(t, groceries.Snapshot()[0].IsShoppingChecked)
	})

	t.Run("remove deletes only the matching item", func(t *testing.T) {
		groceries := state.NewGroceries()

		keep := model.GroceryItem{ID: uuid.NewString(), Name: "Bread"}
		gone := model.GroceryItem{ID: uuid.NewString(), Name: "Milk"}
		groceries.Replace([]model.GroceryItem{keep, gone})

		assert.True(t, groceries.Remove(gone.ID))
		require.Equal(t, 1, groceries.Len())
		assert.Equal(t, keep.ID, groceries.Snapshot()[0].ID)
	})

	t.Run("removing an unknown id is a no-op", func(t *testing.T) {
		groceries := state.NewGroceries()
		groceries.Upsert(model.GroceryItem{ID: uuid.NewString(), Name: "Milk"})

		assert.False(t, groceries.Remove("missing"))
		assert.Equal(t, 1, groceries.Len())
	})

	t.Run("replace swaps the whole listing", func(t *testing.T) {
		groceries := state.NewGroceries()
		groceries.Upsert(model.GroceryItem{ID: uuid.NewString(), Name: "Old"})

		groceries.Replace([]model.GroceryItem{
			{ID: uuid.NewString(), Name: "New A"},
			{ID: uuid.NewString(), Name: "New B"},
		})
		assert.Equal(t, 2, groceries.Len())
	})

	t.Run("snapshot is a copy, not a view", func(t *testing.T) {
		groceries := state.NewGroceries()
		groceries.Upsert(model.GroceryItem{ID: uuid.NewString(), Name: "Milk"})

		snap := groceries.Snapshot()
		snap[0].Name = "Mutated"

		assert.Equal(t, "Milk", groceries.Snapshot()[0].Name)
	})

	t.Run("by category groups items and sorts categories", func(t *testing.T) {
		groceries := state.NewGroceries()
		groceries.Replace([]model.GroceryItem{
			{ID: uuid.NewString(), Name: "Milk", Category: "Dairy"},
			{ID: uuid.NewString(), Name: "Bread", Category: "Bakery"},
			{ID: uuid.NewString(), Name: "Cheese", Category: "Dairy"},
		})

		categories, grouped := groceries.ByCategory()
		assert.Equal(t, []string{"Bakery", "Dairy"}, categories)
		assert.Len(t, grouped["Dairy"], 2)
		assert.Len(t, grouped["Bakery"], 1)
	})
}

func TestMealPlans(t *testing.T) {
	t.Run("snapshot is ordered by date ascending", func(t *testing.T) {
		meals := state.NewMealPlans()
		meals.Replace([]model.MealPlan{
			{ID: uuid.NewString(), Date: "2026-09-03", MealDescription: "Curry"},
			{ID: uuid.NewString(), Date: "2026-09-01", MealDescription: "Pasta"},
			{ID: uuid.NewString(), Date: "2026-09-02", MealDescription: "Tacos"},
		})

		snap := meals.Snapshot()
		require.Len(t, snap, 3)
		assert.Equal(t, "2026-09-01", snap[0].Date)
		assert.Equal(t, "2026-09-02", snap[1].Date)
		assert.Equal(t, "2026-09-03", snap[2].Date)
	})

	t.Run("upsert is idempotent by id", func(t *testing.T) {
		meals := state.NewMealPlans()

		plan := model.MealPlan{ID: uuid.NewString(), Date: "2026-09-01", MealDescription: "Pasta"}
		meals.Upsert(plan)
		meals.Upsert(plan)
		assert.Equal(t, 1, meals.Len())

		plan.MealDescription = "Pizza"
		meals.Upsert(plan)
		require.Equal(t, 1, meals.Len())
		assert.Equal(t, "Pizza", meals.Snapshot()[0].MealDescription)
	})

	t.Run("remove unknown id is a no-op", func(t *testing.T) {
		meals := state.NewMealPlans()
		meals.Upsert(model.MealPlan{ID: uuid.NewString(), Date: "2026-09-01"})

		assert.False(t, meals.Remove("missing"))
		assert.Equal(t, 1, meals.Len())
	})
}

func TestReceipts(t *testing.T) {
	t.Run("snapshot is ordered newest first", func(t *testing.T) {
		receipts := state.NewReceipts()
		receipts.Replace([]model.Receipt{
			{ID: uuid.NewString(), Date: "2026-08-30", TotalAmount: 12.50, PurchasedBy: "Alice"},
			{ID: uuid.NewString(), Date: "2026-09-01", TotalAmount: 40.00, PurchasedBy: "Bob"},
		})

		snap := receipts.Snapshot()
		require.Len(t, snap, 2)
		assert.Equal(t, "2026-09-01", snap[0].Date)
	})

	t.Run("totals sum per purchaser", func(t *testing.T) {
		receipts := state.NewReceipts()
		receipts.Replace([]model.Receipt{
			{ID: uuid.NewString(), Date: "2026-08-30", TotalAmount: 12.50, PurchasedBy: "Alice"},
			{ID: uuid.NewString(), Date: "2026-08-31", TotalAmount: 7.50, PurchasedBy: "Alice"},
			{ID: uuid.NewString(), Date: "2026-09-01", TotalAmount: 40.00, PurchasedBy: "Bob"},
		})

		totals := receipts.TotalsByPurchaser()
		assert.InDelta(t, 20.0, totals["Alice"], 0.001)
		assert.InDelta(t, 40.0, totals["Bob"], 0.001)
	})

	t.Run("duplicate upsert after replace does not double count", func(t *testing.T) {
		receipts := state.NewReceipts()

		receipt := model.Receipt{ID: uuid.NewString(), Date: "2026-09-01", TotalAmount: 40.00, PurchasedBy: "Bob"}
		receipts.Replace([]model.Receipt{receipt})
		receipts.Upsert(receipt)

		assert.Equal(t, 1, receipts.Len())
		assert.InDelta(t, 40.0, receipts.TotalsByPurchaser()["Bob"], 0.001)
	})
}

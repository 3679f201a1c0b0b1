package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lebensmittel/cli/internal/api"
	"github.com/lebensmittel/cli/internal/state"
)

const dateLayout = "2006-01-02"

// MealsCmd manages meal plans.
type MealsCmd struct {
	List   MealsListCmd   `cmd:"" help:"List meal plans"`
	Add    MealsAddCmd    `cmd:"" help:"Plan a meal for a date"`
	Update MealsUpdateCmd `cmd:"" help:"Update a meal plan"`
	Remove MealsRemoveCmd `cmd:"" help:"Remove a meal plan"`
}

// MealsListCmd lists meal plans ordered by date.
type MealsListCmd struct {
	ConnectFlags
}

func (m *MealsListCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, m.ConnectFlags)
	if err != nil {
		return err
	}

	plans, err := env.api.ListMealPlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list meal plans: %w", err)
	}

	if len(plans) == 0 {
		fmt.Println("No meals planned.")
		return nil
	}

	meals := state.NewMealPlans()
	meals.Replace(plans)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tMEAL\tID")
	for _, plan := range meals.Snapshot() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", plan.Date, plan.MealDescription, plan.ID)
	}
	w.Flush()
	return nil
}

// MealsAddCmd plans a meal.
type MealsAddCmd struct {
	ConnectFlags
	Date        string `arg:"" help:"Date (YYYY-MM-DD)"`
	Description string `arg:"" help:"Meal description"`
}

func (m *MealsAddCmd) Run(ctx context.Context, globals *Globals) error {
	if _, err := time.Parse(dateLayout, m.Date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", m.Date)
	}

	env, err := newEnv(globals, m.ConnectFlags)
	if err != nil {
		return err
	}

	plan, err := env.api.CreateMealPlan(ctx, api.MealPlanFields{
		Date:            m.Date,
		MealDescription: m.Description,
	})
	if err != nil {
		return fmt.Errorf("failed to add meal plan: %w", err)
	}

	fmt.Printf("Planned %q for %s (%s).\n", plan.MealDescription, plan.Date, plan.ID)
	return nil
}

// MealsUpdateCmd updates a meal plan.
type MealsUpdateCmd struct {
	ConnectFlags
	ID          string `arg:"" help:"Meal plan id"`
	Date        string `arg:"" help:"Date (YYYY-MM-DD)"`
	Description string `arg:"" help:"Meal description"`
}

func (m *MealsUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	if _, err := time.Parse(dateLayout, m.Date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", m.Date)
	}

	env, err := newEnv(globals, m.ConnectFlags)
	if err != nil {
		return err
	}

	plan, err := env.api.UpdateMealPlan(ctx, m.ID, api.MealPlanFields{
		Date:            m.Date,
		MealDescription: m.Description,
	})
	if err != nil {
		return fmt.Errorf("failed to update meal plan: %w", err)
	}

	fmt.Printf("Updated meal for %s.\n", plan.Date)
	return nil
}

// MealsRemoveCmd removes a meal plan.
type MealsRemoveCmd struct {
	ConnectFlags
	ID string `arg:"" help:"Meal plan id"`
}

func (m *MealsRemoveCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, m.ConnectFlags)
	if err != nil {
		return err
	}

	if err := env.api.DeleteMealPlan(ctx, m.ID); err != nil {
		return fmt.Errorf("failed to remove meal plan: %w", err)
	}

	fmt.Printf("Removed %s.\n", m.ID)
	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/lebensmittel/cli/internal/api"
	"github.com/lebensmittel/cli/internal/model"
	"github.com/lebensmittel/cli/internal/state"
)

// GroceriesCmd manages the shared grocery list.
type GroceriesCmd struct {
	List   GroceriesListCmd   `cmd:"" help:"List grocery items by category"`
	Add    GroceriesAddCmd    `cmd:"" help:"Add a grocery item"`
	Update GroceriesUpdateCmd `cmd:"" help:"Update a grocery item"`
	Remove GroceriesRemoveCmd `cmd:"" help:"Remove a grocery item"`
}

// GroceriesListCmd lists grocery items grouped by category.
type GroceriesListCmd struct {
	ConnectFlags
	Needed bool `help:"Only show items still to buy"`
}

func (g *GroceriesListCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	items, err := env.api.ListGroceryItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to list grocery items: %w", err)
	}

	groceries := state.NewGroceries()
	groceries.Replace(items)

	categories, grouped := groceries.ByCategory()
	if len(categories) == 0 {
		fmt.Println("The grocery list is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, category := range categories {
		fmt.Fprintf(w, "%s\n", category)
		for _, item := range grouped[category] {
			if g.Needed && !item.IsNeeded {
				continue
			}
			mark := " "
			if item.IsShoppingChecked {
				mark = "x"
			}
			fmt.Fprintf(w, "  [%s]\t%s\t%s\n", mark, item.Name, item.ID)
		}
	}
	w.Flush()
	return nil
}

// GroceriesAddCmd adds an item to the list.
type GroceriesAddCmd struct {
	ConnectFlags
	Name     string `arg:"" help:"Item name"`
	Category string `help:"Item category" default:"Other"`
}

func (g *GroceriesAddCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	item, err := env.api.CreateGroceryItem(ctx, api.GroceryItemFields{
		Name:     g.Name,
		Category: g.Category,
		IsNeeded: true,
	})
	if err != nil {
		return fmt.Errorf("failed to add grocery item: %w", err)
	}

	fmt.Printf("Added %q to %s (%s).\n", item.Name, item.Category, item.ID)
	return nil
}

// GroceriesUpdateCmd updates fields on an item. Unset flags keep the
// server's current values.
type GroceriesUpdateCmd struct {
	ConnectFlags
	ID       string  `arg:"" help:"Item id"`
	Name     *string `help:"New name"`
	Category *string `help:"New category"`
	Needed   *bool   `help:"Whether the item still needs to be bought"`
	Checked  *bool   `help:"Whether the item is ticked off in the shopping view"`
}

func (g *GroceriesUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	current, err := findGroceryItem(ctx, env, g.ID)
	if err != nil {
		return err
	}

	fields := api.GroceryItemFields{
		Name:              current.Name,
		Category:          current.Category,
		IsNeeded:          current.IsNeeded,
		IsShoppingChecked: current.IsShoppingChecked,
	}
	if g.Name != nil {
		fields.Name = *g.Name
	}
	if g.Category != nil {
		fields.Category = *g.Category
	}
	if g.Needed != nil {
		fields.IsNeeded = *g.Needed
	}
	if g.Checked != nil {
		fields.IsShoppingChecked = *g.Checked
	}

	item, err := env.api.UpdateGroceryItem(ctx, g.ID, fields)
	if err != nil {
		return fmt.Errorf("failed to update grocery item: %w", err)
	}

	fmt.Printf("Updated %q.\n", item.Name)
	return nil
}

// GroceriesRemoveCmd deletes an item from the list.
type GroceriesRemoveCmd struct {
	ConnectFlags
	ID string `arg:"" help:"Item id"`
}

func (g *GroceriesRemoveCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	if err := env.api.DeleteGroceryItem(ctx, g.ID); err != nil {
		return fmt.Errorf("failed to remove grocery item: %w", err)
	}

	fmt.Printf("Removed %s.\n", g.ID)
	return nil
}

func findGroceryItem(ctx context.Context, env *env, id string) (*model.GroceryItem, error) {
	items, err := env.api.ListGroceryItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch grocery items: %w", err)
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("grocery item %q not found", id)
}

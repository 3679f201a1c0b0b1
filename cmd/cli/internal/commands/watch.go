package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lebensmittel/cli/internal/realtime"
	"github.com/lebensmittel/cli/internal/state"
)

// WatchCmd connects to the real-time channel and prints changes as they
// arrive, until interrupted.
type WatchCmd struct {
	ConnectFlags
}

func (w *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, w.ConnectFlags)
	if err != nil {
		return err
	}

	groceries := state.NewGroceries()
	meals := state.NewMealPlans()
	receipts := state.NewReceipts()

	// Seed the view models so counts reflect reality before the first
	// event lands.
	if items, err := env.api.ListGroceryItems(ctx); err == nil {
		groceries.Replace(items)
	}
	if plans, err := env.api.ListMealPlans(ctx); err == nil {
		meals.Replace(plans)
	}
	if list, err := env.api.ListReceipts(ctx); err == nil {
		receipts.Replace(list)
	}

	client := realtime.NewClient(env.session, realtime.Endpoint(env.cfg.APIBaseURL()))
	client.SetNotify(func(event string) {
		fmt.Printf("%-22s groceries=%d meals=%d receipts=%d\n",
			event, groceries.Len(), meals.Len(), receipts.Len())
	})

	fmt.Printf("Watching %s (groceries=%d meals=%d receipts=%d), Ctrl-C to stop.\n",
		env.cfg.ServerURL, groceries.Len(), meals.Len(), receipts.Len())

	client.Start(groceries, meals, receipts)
	defer client.Disconnect()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("Received interrupt signal, shutting down...")
	return nil
}

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

// ReceiptsCmd manages receipts.
type ReceiptsCmd struct {
	List   ReceiptsListCmd   `cmd:"" help:"List receipts"`
	Add    ReceiptsAddCmd    `cmd:"" help:"Record a receipt"`
	Update ReceiptsUpdateCmd `cmd:"" help:"Update a receipt"`
	Remove ReceiptsRemoveCmd `cmd:"" help:"Remove a receipt"`
}

// ReceiptsListCmd lists receipts, newest first, with per-person totals.
type ReceiptsListCmd struct {
	ConnectFlags
	Totals bool `help:"Show spending totals per person"`
}

func (r *ReceiptsListCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, r.ConnectFlags)
	if err != nil {
		return err
	}

	list, err := env.api.ListReceipts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list receipts: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No receipts recorded.")
		return nil
	}

	receipts := state.NewReceipts()
	receipts.Replace(list)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tPURCHASED BY\tID")
	for _, receipt := range receipts.Snapshot() {
		fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n", receipt.Date, receipt.TotalAmount, receipt.PurchasedBy, receipt.ID)
	}
	w.Flush()

	if r.Totals {
		fmt.Println()
		fmt.Println("Totals:")
		for person, total := range receipts.TotalsByPurchaser() {
			fmt.Printf("  %s\t%.2f\n", person, total)
		}
	}
	return nil
}

// ReceiptsAddCmd records a receipt.
type ReceiptsAddCmd struct {
	ConnectFlags
	Date        string   `arg:"" help:"Date (YYYY-MM-DD)"`
	Amount      float64  `arg:"" help:"Total amount"`
	PurchasedBy string   `arg:"" help:"Who paid"`
	Items       []string `help:"Item names on the receipt"`
	Notes       string   `help:"Free-form notes"`
}

func (r *ReceiptsAddCmd) Run(ctx context.Context, globals *Globals) error {
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", r.Date)
	}

	env, err := newEnv(globals, r.ConnectFlags)
	if err != nil {
		return err
	}

	fields := api.ReceiptFields{
		Date:        r.Date,
		TotalAmount: r.Amount,
		PurchasedBy: r.PurchasedBy,
		Items:       r.Items,
	}
	if r.Notes != "" {
		fields.Notes = &r.Notes
	}

	receipt, err := env.api.CreateReceipt(ctx, fields)
	if err != nil {
		return fmt.Errorf("failed to record receipt: %w", err)
	}

	fmt.Printf("Recorded %.2f paid by %s on %s (%s).\n",
		receipt.TotalAmount, receipt.PurchasedBy, receipt.Date, receipt.ID)
	return nil
}

// ReceiptsUpdateCmd updates a receipt.
type ReceiptsUpdateCmd struct {
	ConnectFlags
	ID          string   `arg:"" help:"Receipt id"`
	Date        string   `arg:"" help:"Date (YYYY-MM-DD)"`
	Amount      float64  `arg:"" help:"Total amount"`
	PurchasedBy string   `arg:"" help:"Who paid"`
	Items       []string `help:"Item names on the receipt"`
	Notes       string   `help:"Free-form notes"`
}

func (r *ReceiptsUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", r.Date)
	}

	env, err := newEnv(globals, r.ConnectFlags)
	if err != nil {
		return err
	}

	fields := api.ReceiptFields{
		Date:        r.Date,
		TotalAmount: r.Amount,
		PurchasedBy: r.PurchasedBy,
		Items:       r.Items,
	}
	if r.Notes != "" {
		fields.Notes = &r.Notes
	}

	receipt, err := env.api.UpdateReceipt(ctx, r.ID, fields)
	if err != nil {
		return fmt.Errorf("failed to update receipt: %w", err)
	}

	fmt.Printf("Updated receipt %s.\n", receipt.ID)
	return nil
}

// ReceiptsRemoveCmd removes a receipt.
type ReceiptsRemoveCmd struct {
	ConnectFlags
	ID string `arg:"" help:"Receipt id"`
}

func (r *ReceiptsRemoveCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, r.ConnectFlags)
	if err != nil {
		return err
	}

	if err := env.api.DeleteReceipt(ctx, r.ID); err != nil {
		return fmt.Errorf("failed to remove receipt: %w", err)
	}

	fmt.Printf("Removed %s.\n", r.ID)
	return nil
}

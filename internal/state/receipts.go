package state

import (
	"sort"
	"sync"

	"github.com/lebensmittel/cli/internal/model"
)

// Receipts is the in-memory receipt collection.
type Receipts struct {
	mu       sync.Mutex
	receipts []model.Receipt
}

func NewReceipts() *Receipts {
	return &Receipts{}
}

// Replace swaps in a full server listing.
func (r *Receipts) Replace(receipts []model.Receipt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts = append([]model.Receipt(nil), receipts...)
}

// Upsert inserts or overwrites the receipt with the same id.
func (r *Receipts) Upsert(receipt model.Receipt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.receipts {
		if r.receipts[i].ID == receipt.ID {
			r.receipts[i] = receipt
			return
		}
	}
	r.receipts = append(r.receipts, receipt)
}

// Remove deletes the receipt with the given id. Unknown ids are a no-op.
func (r *Receipts) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.receipts {
		if r.receipts[i].ID == id {
			r.receipts = append(r.receipts[:i], r.receipts[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the receipts, newest date first.
func (r *Receipts) Snapshot() []model.Receipt {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]model.Receipt(nil), r.receipts...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// Len returns the number of receipts.
func (r *Receipts) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.receipts)
}

// TotalsByPurchaser sums receipt amounts per purchaser, for the monthly
// summary view.
func (r *Receipts) TotalsByPurchaser() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := make(map[string]float64)
	for _, receipt := range r.receipts {
		totals[receipt.PurchasedBy] += receipt.TotalAmount
	}
	return totals
}

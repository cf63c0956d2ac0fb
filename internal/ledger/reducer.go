package ledger

import (
	"sort"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
)

// Entry is one ledger row with the stock level right after it.
type Entry struct {
	models.InventoryTransaction
	RunningStock int `json:"running_stock"`
}

// RunningStock returns the prefix sums of txs. txs must be in ascending
// chronological order; the item's lifetime starts at zero.
func RunningStock(txs []models.InventoryTransaction) []int {
	out := make([]int, len(txs))
	sum := 0
	for i, tx := range txs {
		sum += tx.Quantity
		out[i] = sum
	}
	return out
}

// Balance is the stock level implied by the whole history.
func Balance(txs []models.InventoryTransaction) int {
	sum := 0
	for _, tx := range txs {
		sum += tx.Quantity
	}
	return sum
}

// History orders txs chronologically, computes running stock, and returns
// the rows newest first. Input order does not affect the running values.
func History(txs []models.InventoryTransaction) []Entry {
	asc := make([]models.InventoryTransaction, len(txs))
	copy(asc, txs)
	sort.SliceStable(asc, func(i, j int) bool {
		return asc[i].CreatedAt.Before(asc[j].CreatedAt)
	})

	running := RunningStock(asc)
	out := make([]Entry, len(asc))
	for i := range asc {
		out[len(asc)-1-i] = Entry{InventoryTransaction: asc[i], RunningStock: running[i]}
	}
	return out
}

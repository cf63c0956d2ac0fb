// Package ledger holds the pure bookkeeping rules of the inventory ledger:
// how an action maps to a signed delta, how a transaction history replays into
// running stock, and how scheduled shipments project into a physical count.
package ledger

import (
	"math"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
)

// MaxMagnitude is the largest quantity a single stock change may carry.
const MaxMagnitude = math.MaxInt32

// negative actions take stock out
var negative = map[models.TransactionType]bool{
	models.TxDamagedGoods: true,
	models.TxSample:       true,
	models.TxCorrection:   true,
	models.TxOrder:        true,
	models.TxShipment:     true,
}

// actions a user may dispatch against an existing item
var manual = map[models.TransactionType]bool{
	models.TxRestock:      true,
	models.TxReturns:      true,
	models.TxDamagedGoods: true,
	models.TxSample:       true,
	models.TxCorrection:   true,
}

func IsNegative(t models.TransactionType) bool {
	return negative[t]
}

// IsManual reports whether t is an adjustment users may dispatch directly.
// order and shipment are only produced by the order and shipping flows.
func IsManual(t models.TransactionType) bool {
	return manual[t]
}

// ManualActions lists the dispatchable adjustments, positive first.
func ManualActions() []models.TransactionType {
	return []models.TransactionType{
		models.TxRestock, models.TxReturns,
		models.TxDamagedGoods, models.TxSample, models.TxCorrection,
	}
}

// Delta turns an action and an unsigned magnitude into a signed change.
func Delta(t models.TransactionType, magnitude int) (int, error) {
	if magnitude < 0 {
		return 0, ErrNegativeMagnitude
	}
	if magnitude > MaxMagnitude {
		return 0, ErrMagnitudeTooLarge
	}
	if !t.Valid() {
		return 0, ErrInvalidAction
	}
	if IsNegative(t) {
		return -magnitude, nil
	}
	return magnitude, nil
}

// Apply returns onHand+delta, or a *ShortfallError when the result would be negative.
func Apply(itemName string, onHand, delta int) (int, error) {
	next := onHand + delta
	if next < 0 {
		return onHand, &ShortfallError{ItemName: itemName, OnHand: onHand, Delta: delta}
	}
	return next, nil
}

package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidAction     = errors.New("unsupported inventory action")
	ErrNegativeMagnitude = errors.New("quantity must not be negative")
	ErrMagnitudeTooLarge = fmt.Errorf("quantity must not exceed %d", MaxMagnitude)
)

// ShortfallError reports a change that would take an item below zero.
type ShortfallError struct {
	ItemName string
	OnHand   int
	Delta    int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d on hand, change of %d would leave it %d short",
		e.ItemName, e.OnHand, e.Delta, e.Shortfall())
}

// Shortfall is the number of units missing to satisfy the change.
func (e *ShortfallError) Shortfall() int {
	return -(e.OnHand + e.Delta)
}

func (e *ShortfallError) Unwrap() error {
	return ErrInsufficientStock
}

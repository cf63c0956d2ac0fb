package models

import (
	"strings"

	"github.com/google/uuid"
)

func shortCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// NewOrderNumber returns a human readable order number such as ORD-1A2B3C4D.
func NewOrderNumber() string {
	return "ORD-" + shortCode()
}

// NewShipmentNumber returns a human readable shipment number such as SHP-1A2B3C4D.
func NewShipmentNumber() string {
	return "SHP-" + shortCode()
}

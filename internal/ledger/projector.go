package ledger

import (
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
)

// LineMatches reports whether a shipment line refers to item. Lines that carry
// an inventory item id match by id only; older lines without one fall back to
// a case-insensitive name comparison.
func LineMatches(line models.ShipmentItem, item models.InventoryItem) bool {
	if line.InventoryItemID != nil && *line.InventoryItemID != "" {
		return *line.InventoryItemID == item.ID
	}
	return models.NameKey(line.ItemName) == models.NameKey(item.Name)
}

// PhysicalQuantity adds back every scheduled shipment line for item: stock
// that is earmarked but still on the shelf.
func PhysicalQuantity(item models.InventoryItem, shipments []models.Shipment) int {
	qty := item.Quantity
	for _, s := range shipments {
		if s.Status != models.ShipmentScheduled {
			continue
		}
		for _, line := range s.Items {
			if LineMatches(line, item) {
				qty += line.Quantity
			}
		}
	}
	return qty
}

// ProjectPhysical computes PhysicalQuantity for every item, keyed by item id.
func ProjectPhysical(items []models.InventoryItem, shipments []models.Shipment) map[string]int {
	out := make(map[string]int, len(items))
	for _, item := range items {
		out[item.ID] = PhysicalQuantity(item, shipments)
	}
	return out
}

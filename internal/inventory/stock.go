package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/ledger"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"gorm.io/gorm"
)

var (
	ErrItemExists   = errors.New("an inventory item with this name already exists")
	ErrItemNotFound = errors.New("inventory item not found")
	ErrValidation   = errors.New("validation failed")
	ErrItemInUse    = errors.New("inventory item is still in use")
)

// Change is one signed stock movement to record against an item.
type Change struct {
	ItemID        string
	Type          models.TransactionType
	Delta         int
	ReferenceType string
	ReferenceID   *string
	Notes         string
}

// Apply moves an item's quantity by ch.Delta and appends the matching ledger
// row. tx must be an open transaction: the quantity update and the ledger row
// commit or roll back together. The update is a single conditional statement,
// so concurrent changes to the same item cannot overwrite each other and the
// quantity can never go below zero.
func Apply(tx *gorm.DB, companyID string, ch Change) (models.InventoryItem, models.InventoryTransaction, error) {
	var item models.InventoryItem
	if !ch.Type.Valid() {
		return item, models.InventoryTransaction{}, ledger.ErrInvalidAction
	}

	res := tx.Model(&models.InventoryItem{}).
		Where("id = ? AND company_id = ? AND quantity + ? >= 0", ch.ItemID, companyID, ch.Delta).
		UpdateColumns(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", ch.Delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return item, models.InventoryTransaction{}, fmt.Errorf("update quantity: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		if err := tx.First(&item, "id = ? AND company_id = ?", ch.ItemID, companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return item, models.InventoryTransaction{}, ErrItemNotFound
			}
			return item, models.InventoryTransaction{}, err
		}
		_, err := ledger.Apply(item.Name, item.Quantity, ch.Delta)
		if err == nil {
			// row exists and the change fits, yet nothing was updated
			err = fmt.Errorf("stock of %q changed concurrently", item.Name)
		}
		return item, models.InventoryTransaction{}, err
	}

	entry := models.InventoryTransaction{
		CompanyID:       companyID,
		InventoryItemID: ch.ItemID,
		TransactionType: ch.Type,
		Quantity:        ch.Delta,
		ReferenceType:   ch.ReferenceType,
		ReferenceID:     ch.ReferenceID,
		Notes:           ch.Notes,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return item, entry, fmt.Errorf("append ledger row: %w", err)
	}

	if err := tx.First(&item, "id = ?", ch.ItemID).Error; err != nil {
		return item, entry, err
	}
	return item, entry, nil
}

// FindByName looks an item up by its case-insensitive name.
func FindByName(tx *gorm.DB, companyID, name string) (models.InventoryItem, error) {
	var item models.InventoryItem
	err := tx.Where("company_id = ? AND name_key = ?", companyID, models.NameKey(name)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, fmt.Errorf("%w: %s", ErrItemNotFound, name)
	}
	return item, err
}

// Resolve finds an item by id when given, by name otherwise.
func Resolve(tx *gorm.DB, companyID string, id *string, name string) (models.InventoryItem, error) {
	if id != nil && *id != "" {
		var item models.InventoryItem
		err := tx.First(&item, "id = ? AND company_id = ?", *id, companyID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return item, fmt.Errorf("%w: %s", ErrItemNotFound, *id)
		}
		return item, err
	}
	return FindByName(tx, companyID, name)
}

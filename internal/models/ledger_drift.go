package models

import (
	"time"

	"gorm.io/gorm"
)

// LedgerDrift records one item whose stored quantity disagreed with the
// replayed ledger during a reconciliation run.
type LedgerDrift struct {
	ID              string    `gorm:"size:36;primaryKey" json:"id"`
	RunID           string    `gorm:"size:36;index;not null" json:"run_id"`
	CompanyID       string    `gorm:"size:36;index;not null" json:"company_id"`
	InventoryItemID string    `gorm:"size:36;index;not null" json:"inventory_item_id"`
	ItemName        string    `gorm:"size:200" json:"item_name"`
	StoredQuantity  int       `json:"stored_quantity"`
	LedgerQuantity  int       `json:"ledger_quantity"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

func (d *LedgerDrift) BeforeCreate(tx *gorm.DB) error {
	assignID(&d.ID)
	return nil
}

func (d LedgerDrift) Difference() int {
	return d.StoredQuantity - d.LedgerQuantity
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ItemCategory string

const (
	CategoryRaw      ItemCategory = "raw"
	CategoryFinished ItemCategory = "finished"
)

func (c ItemCategory) Valid() bool {
	return c == CategoryRaw || c == CategoryFinished
}

// InventoryItem holds the current on-hand quantity of one stock keeping unit.
// Quantity only changes through ledger dispatches, never through plain updates.
type InventoryItem struct {
	ID        string `gorm:"size:36;primaryKey" json:"id"`
	CompanyID string `gorm:"size:36;not null;uniqueIndex:idx_items_company_name,priority:1" json:"company_id"`
	Name      string `gorm:"size:200;not null" json:"name"`
	// lower-cased Name, unique per company
	NameKey      string            `gorm:"size:200;not null;uniqueIndex:idx_items_company_name,priority:2" json:"-"`
	Category     ItemCategory      `gorm:"size:20;not null;index" json:"category"`
	Quantity     int               `gorm:"not null;default:0" json:"quantity"`
	Unit         string            `gorm:"size:50;not null" json:"unit"`
	ReorderLevel int               `gorm:"not null;default:0" json:"reorder_level"`
	Price        decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"price"`
	CustomData   datatypes.JSONMap `json:"custom_data"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"last_updated"`
	// archived items keep their ledger rows
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (i *InventoryItem) BeforeSave(tx *gorm.DB) error {
	i.NameKey = NameKey(i.Name)
	return nil
}

// StockValue is quantity times unit price.
func (i InventoryItem) StockValue() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

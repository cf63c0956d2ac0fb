package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type TransactionType string

const (
	TxOrder             TransactionType = "order"
	TxShipment          TransactionType = "shipment"
	TxRestock           TransactionType = "restock"
	TxAdjustment        TransactionType = "adjustment"
	TxSample            TransactionType = "sample"
	TxDistributorPickup TransactionType = "distributor_pickup"
	TxStoreDelivery     TransactionType = "store_delivery"
	TxAddNew            TransactionType = "add_new"
	TxDamagedGoods      TransactionType = "damaged_goods"
	TxCorrection        TransactionType = "correction"
	TxReturns           TransactionType = "returns"
	TxOther             TransactionType = "other"
)

var transactionTypes = map[TransactionType]struct{}{
	TxOrder: {}, TxShipment: {}, TxRestock: {}, TxAdjustment: {}, TxSample: {},
	TxDistributorPickup: {}, TxStoreDelivery: {}, TxAddNew: {}, TxDamagedGoods: {},
	TxCorrection: {}, TxReturns: {}, TxOther: {},
}

func (t TransactionType) Valid() bool {
	_, ok := transactionTypes[t]
	return ok
}

// ErrImmutableTransaction is returned by the hooks below. Ledger rows are append-only.
var ErrImmutableTransaction = errors.New("inventory transactions cannot be modified")

// InventoryTransaction is one signed quantity change of an item.
type InventoryTransaction struct {
	ID              string          `gorm:"size:36;primaryKey" json:"id"`
	CompanyID       string          `gorm:"size:36;index;not null" json:"company_id"`
	InventoryItemID string          `gorm:"size:36;index:idx_tx_item_created,priority:1;not null" json:"inventory_item_id"`
	InventoryItem   *InventoryItem  `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	TransactionType TransactionType `gorm:"size:30;not null" json:"transaction_type"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	ReferenceType   string          `gorm:"size:30" json:"reference_type"`
	ReferenceID     *string         `gorm:"size:36;index" json:"reference_id"`
	Notes           string          `gorm:"size:500" json:"notes"`
	CreatedAt       time.Time       `gorm:"index:idx_tx_item_created,priority:2" json:"created_at"`
}

func (t *InventoryTransaction) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

func (t *InventoryTransaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableTransaction
}

func (t *InventoryTransaction) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableTransaction
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type ShipmentStatus string

const (
	ShipmentScheduled ShipmentStatus = "scheduled"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentCancelled ShipmentStatus = "cancelled"
)

// Shipment is outbound stock. A scheduled shipment is committed but has not left yet.
type Shipment struct {
	ID              string          `gorm:"size:36;primaryKey" json:"id"`
	CompanyID       string          `gorm:"size:36;not null;uniqueIndex:idx_shipments_company_number,priority:1" json:"company_id"`
	ShipmentNumber  string          `gorm:"size:30;not null;uniqueIndex:idx_shipments_company_number,priority:2" json:"shipment_number"`
	OrderID         *string         `gorm:"size:36;index" json:"order_id"`
	ShipmentType    TransactionType `gorm:"size:30;not null" json:"shipment_type"`
	Status          ShipmentStatus  `gorm:"size:20;not null;index" json:"status"`
	RecipientName   string          `gorm:"size:150;not null" json:"recipient_name"`
	RecipientEmail  string          `gorm:"size:150" json:"recipient_email"`
	RecipientPhone  string          `gorm:"size:50" json:"recipient_phone"`
	ShippingAddress string          `gorm:"size:500" json:"shipping_address"`
	ScheduledDate   *time.Time      `json:"scheduled_date"`
	ShippedDate     *time.Time      `json:"shipped_date"`
	TrackingNumber  string          `gorm:"size:100" json:"tracking_number"`
	Carrier         string          `gorm:"size:100" json:"carrier"`
	Notes           string          `gorm:"size:500" json:"notes"`
	// true once the lines have been deducted from stock, either by the
	// originating order or on departure
	StockCommitted bool      `gorm:"not null;default:false" json:"stock_committed"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Items []ShipmentItem `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE" json:"items"`
}

func (s *Shipment) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

type ShipmentItem struct {
	ID              string    `gorm:"size:36;primaryKey" json:"id"`
	ShipmentID      string    `gorm:"size:36;index;not null" json:"shipment_id"`
	InventoryItemID *string   `gorm:"size:36;index" json:"inventory_item_id"`
	ItemName        string    `gorm:"size:200;not null" json:"item_name"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	CreatedAt       time.Time `json:"created_at"`
}

func (i *ShipmentItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

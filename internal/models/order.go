package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

type Order struct {
	ID              string            `gorm:"size:36;primaryKey" json:"id"`
	CompanyID       string            `gorm:"size:36;not null;uniqueIndex:idx_orders_company_number,priority:1" json:"company_id"`
	OrderNumber     string            `gorm:"size:30;not null;uniqueIndex:idx_orders_company_number,priority:2" json:"order_number"`
	CustomerID      *string           `gorm:"size:36;index" json:"customer_id"`
	CustomerName    string            `gorm:"size:150;not null" json:"customer_name"`
	CustomerEmail   string            `gorm:"size:150;not null" json:"customer_email"`
	CustomerPhone   string            `gorm:"size:50" json:"customer_phone"`
	RecipientName   string            `gorm:"size:150" json:"recipient_name"`
	RecipientEmail  string            `gorm:"size:150" json:"recipient_email"`
	RecipientPhone  string            `gorm:"size:50" json:"recipient_phone"`
	ShippingAddress string            `gorm:"size:500" json:"shipping_address"`
	NeedsShipping   bool              `gorm:"not null;default:false" json:"needs_shipping"`
	Status          OrderStatus       `gorm:"size:20;not null;index" json:"status"`
	TotalAmount     decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	Notes           string            `gorm:"size:500" json:"notes"`
	CustomData      datatypes.JSONMap `json:"custom_data"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem snapshots the item name and unit price at order time.
type OrderItem struct {
	ID              string          `gorm:"size:36;primaryKey" json:"id"`
	OrderID         string          `gorm:"size:36;index;not null" json:"order_id"`
	InventoryItemID *string         `gorm:"size:36;index" json:"inventory_item_id"`
	ItemName        string          `gorm:"size:200;not null" json:"item_name"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderTotal is the sum of quantity times price over all lines.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

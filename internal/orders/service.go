package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/customfields"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/inventory"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/ledger"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderActive       = errors.New("only cancelled orders can be deleted")
)

// allowed status moves; completed and cancelled are terminal
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderProcessing, models.OrderCompleted, models.OrderCancelled},
	models.OrderProcessing: {models.OrderCompleted, models.OrderCancelled},
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type LineRequest struct {
	InventoryItemID string
	ItemName        string
	Quantity        int
	// nil snapshots the item's current price
	Price *decimal.Decimal
}

type CreateRequest struct {
	CustomerID      string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	RecipientName   string
	RecipientEmail  string
	RecipientPhone  string
	ShippingAddress string
	NeedsShipping   bool
	ScheduledDate   *time.Time
	Carrier         string
	Notes           string
	CustomData      map[string]interface{}
	Items           []LineRequest
}

type PendingSummary struct {
	Orders             []models.Order `json:"orders"`
	PendingCount       int64          `json:"pending_count"`
	ScheduledShipments int64          `json:"scheduled_shipments"`
}

type Stats struct {
	TotalOrders  int64           `json:"total_orders"`
	Pending      int64           `json:"pending"`
	Revenue      decimal.Decimal `json:"revenue"`
	AverageValue decimal.Decimal `json:"average_value"`
}

type Service struct {
	db     *gorm.DB
	fields *customfields.Service
}

func NewService(db *gorm.DB, fields *customfields.Service) *Service {
	return &Service{db: db, fields: fields}
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Create records an order, takes every line out of stock with an order
// ledger row, and schedules a shipment when shipping is requested. All of it
// commits together or not at all.
func (s *Service) Create(ctx context.Context, companyID string, req CreateRequest) (*models.Order, *models.Shipment, error) {
	if len(req.Items) == 0 {
		return nil, nil, validationf("an order needs at least one item")
	}
	for i, l := range req.Items {
		if l.Quantity <= 0 {
			return nil, nil, validationf("line %d: quantity must be greater than zero", i+1)
		}
		if l.Quantity > ledger.MaxMagnitude {
			return nil, nil, validationf("line %d: quantity must not exceed %d", i+1, ledger.MaxMagnitude)
		}
		if l.Price != nil && l.Price.IsNegative() {
			return nil, nil, validationf("line %d: price must not be negative", i+1)
		}
		if l.InventoryItemID == "" && strings.TrimSpace(l.ItemName) == "" {
			return nil, nil, validationf("line %d: inventory_item_id or item_name is required", i+1)
		}
	}

	custom, err := s.fields.Validate(ctx, companyID, models.TableOrders, req.CustomData)
	if err != nil {
		return nil, nil, err
	}

	var order models.Order
	var shipment *models.Shipment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order = models.Order{
			CompanyID:       companyID,
			OrderNumber:     models.NewOrderNumber(),
			CustomerName:    strings.TrimSpace(req.CustomerName),
			CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
			CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
			RecipientName:   strings.TrimSpace(req.RecipientName),
			RecipientEmail:  strings.TrimSpace(req.RecipientEmail),
			RecipientPhone:  strings.TrimSpace(req.RecipientPhone),
			ShippingAddress: strings.TrimSpace(req.ShippingAddress),
			NeedsShipping:   req.NeedsShipping,
			Status:          models.OrderPending,
			Notes:           req.Notes,
			CustomData:      custom,
		}

		if req.CustomerID != "" {
			var cust models.Customer
			if err := tx.First(&cust, "id = ? AND company_id = ?", req.CustomerID, companyID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationf("customer %s not found", req.CustomerID)
				}
				return err
			}
			order.CustomerID = &cust.ID
			if order.CustomerName == "" {
				order.CustomerName = cust.Name
			}
			if order.CustomerEmail == "" {
				order.CustomerEmail = cust.Email
			}
			if order.CustomerPhone == "" {
				order.CustomerPhone = cust.Phone
			}
			if order.ShippingAddress == "" {
				order.ShippingAddress = cust.Address
			}
		}
		if order.CustomerName == "" || order.CustomerEmail == "" {
			return validationf("customer name and email are required")
		}
		if order.NeedsShipping && order.RecipientName == "" {
			order.RecipientName = order.CustomerName
			if order.RecipientEmail == "" {
				order.RecipientEmail = order.CustomerEmail
			}
			if order.RecipientPhone == "" {
				order.RecipientPhone = order.CustomerPhone
			}
		}

		lines := make([]models.OrderItem, 0, len(req.Items))
		for _, l := range req.Items {
			var idPtr *string
			if l.InventoryItemID != "" {
				id := l.InventoryItemID
				idPtr = &id
			}
			item, err := inventory.Resolve(tx, companyID, idPtr, l.ItemName)
			if err != nil {
				return err
			}
			price := item.Price
			if l.Price != nil {
				price = *l.Price
			}
			itemID := item.ID
			lines = append(lines, models.OrderItem{
				InventoryItemID: &itemID,
				ItemName:        item.Name,
				Quantity:        l.Quantity,
				Price:           price,
			})
		}
		order.Items = lines
		order.TotalAmount = models.OrderTotal(lines)

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, line := range order.Items {
			if _, _, err := inventory.Apply(tx, companyID, inventory.Change{
				ItemID:        *line.InventoryItemID,
				Type:          models.TxOrder,
				Delta:         -line.Quantity,
				ReferenceType: "order",
				ReferenceID:   &order.ID,
				Notes:         "Order " + order.OrderNumber,
			}); err != nil {
				return err
			}
		}

		if order.NeedsShipping {
			shipment = shipmentFor(order, req)
			if err := tx.Create(shipment).Error; err != nil {
				return fmt.Errorf("create shipment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &order, shipment, nil
}

// shipmentFor copies the order's lines into a scheduled shipment. The stock
// was already taken by the order, so the shipment starts committed.
func shipmentFor(order models.Order, req CreateRequest) *models.Shipment {
	orderID := order.ID
	items := make([]models.ShipmentItem, 0, len(order.Items))
	for _, l := range order.Items {
		items = append(items, models.ShipmentItem{
			InventoryItemID: l.InventoryItemID,
			ItemName:        l.ItemName,
			Quantity:        l.Quantity,
		})
	}
	scheduled := req.ScheduledDate
	if scheduled == nil {
		now := time.Now()
		scheduled = &now
	}
	return &models.Shipment{
		CompanyID:       order.CompanyID,
		ShipmentNumber:  models.NewShipmentNumber(),
		OrderID:         &orderID,
		ShipmentType:    models.TxShipment,
		Status:          models.ShipmentScheduled,
		RecipientName:   order.RecipientName,
		RecipientEmail:  order.RecipientEmail,
		RecipientPhone:  order.RecipientPhone,
		ShippingAddress: order.ShippingAddress,
		ScheduledDate:   scheduled,
		Carrier:         req.Carrier,
		Notes:           "Order " + order.OrderNumber,
		StockCommitted:  true,
		Items:           items,
	}
}

func (s *Service) Get(ctx context.Context, companyID, id string) (models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&o, "id = ? AND company_id = ?", id, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return o, ErrOrderNotFound
	}
	return o, err
}

func (s *Service) List(ctx context.Context, companyID string, status models.OrderStatus) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items").Where("company_id = ?", companyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Order
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// Pending returns the newest open orders plus the open work counters.
func (s *Service) Pending(ctx context.Context, companyID string, limit int) (PendingSummary, error) {
	var sum PendingSummary
	open := []models.OrderStatus{models.OrderPending, models.OrderProcessing}

	db := s.db.WithContext(ctx)
	if err := db.Preload("Items").
		Where("company_id = ? AND status IN ?", companyID, open).
		Order("created_at DESC").Limit(limit).
		Find(&sum.Orders).Error; err != nil {
		return sum, err
	}
	if err := db.Model(&models.Order{}).
		Where("company_id = ? AND status IN ?", companyID, open).
		Count(&sum.PendingCount).Error; err != nil {
		return sum, err
	}
	err := db.Model(&models.Shipment{}).
		Where("company_id = ? AND status = ?", companyID, models.ShipmentScheduled).
		Count(&sum.ScheduledShipments).Error
	return sum, err
}

func (s *Service) Stats(ctx context.Context, companyID string) (Stats, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Select("status", "total_amount").
		Where("company_id = ?", companyID).Find(&orders).Error; err != nil {
		return Stats{}, err
	}

	st := Stats{Revenue: decimal.Zero, AverageValue: decimal.Zero}
	var billed int64
	for _, o := range orders {
		st.TotalOrders++
		if o.Status == models.OrderPending || o.Status == models.OrderProcessing {
			st.Pending++
		}
		if o.Status != models.OrderCancelled {
			st.Revenue = st.Revenue.Add(o.TotalAmount)
			billed++
		}
	}
	if billed > 0 {
		st.AverageValue = st.Revenue.Div(decimal.NewFromInt(billed)).Round(2)
	}
	return st, nil
}

// UpdateStatus moves an order along its lifecycle. Cancelling does not put
// stock back; returns are recorded explicitly.
func (s *Service) UpdateStatus(ctx context.Context, companyID, id string, to models.OrderStatus) (before, after models.Order, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&before, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !CanTransition(before.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, before.Status, to)
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, before.Status).
			Updates(map[string]interface{}{"status": to})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
		}
		return tx.Preload("Items").First(&after, "id = ?", id).Error
	})
	return
}

func (s *Service) Delete(ctx context.Context, companyID, id string) (models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&o, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if o.Status != models.OrderCancelled {
			return ErrOrderActive
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Shipment{}).Where("order_id = ?", id).Update("order_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, "id = ?", id).Error
	})
	return o, err
}

package shipping

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/inventory"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/ledger"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"gorm.io/gorm"
)

var (
	ErrShipmentNotFound  = errors.New("shipment not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid shipment status transition")
	ErrShipmentLocked    = errors.New("shipments that have left cannot be deleted")
)

var transitions = map[models.ShipmentStatus][]models.ShipmentStatus{
	models.ShipmentScheduled: {models.ShipmentInTransit, models.ShipmentCancelled},
	models.ShipmentInTransit: {models.ShipmentDelivered, models.ShipmentCancelled},
}

func CanTransition(from, to models.ShipmentStatus) bool {
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
}

type CreateRequest struct {
	OrderID         string
	ShipmentType    models.TransactionType
	RecipientName   string
	RecipientEmail  string
	RecipientPhone  string
	ShippingAddress string
	ScheduledDate   *time.Time
	TrackingNumber  string
	Carrier         string
	Notes           string
	Items           []LineRequest
}

type Stats struct {
	Total     int64 `json:"total"`
	Scheduled int64 `json:"scheduled"`
	InTransit int64 `json:"in_transit"`
	Delivered int64 `json:"delivered"`
	Cancelled int64 `json:"cancelled"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Create schedules a shipment. Linked to an order it copies the order's
// lines, whose stock the order already took. Manual shipments carry their
// own lines and take stock when they leave.
func (s *Service) Create(ctx context.Context, companyID string, req CreateRequest) (*models.Shipment, error) {
	if req.ShipmentType == "" {
		req.ShipmentType = models.TxShipment
	}
	if !req.ShipmentType.Valid() {
		return nil, validationf("unknown shipment_type %q", req.ShipmentType)
	}

	sh := models.Shipment{
		CompanyID:       companyID,
		ShipmentNumber:  models.NewShipmentNumber(),
		ShipmentType:    req.ShipmentType,
		Status:          models.ShipmentScheduled,
		RecipientName:   strings.TrimSpace(req.RecipientName),
		RecipientEmail:  strings.TrimSpace(req.RecipientEmail),
		RecipientPhone:  strings.TrimSpace(req.RecipientPhone),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		ScheduledDate:   req.ScheduledDate,
		TrackingNumber:  strings.TrimSpace(req.TrackingNumber),
		Carrier:         strings.TrimSpace(req.Carrier),
		Notes:           req.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.OrderID != "" {
			var order models.Order
			if err := tx.Preload("Items").First(&order, "id = ? AND company_id = ?", req.OrderID, companyID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationf("order %s not found", req.OrderID)
				}
				return err
			}
			if order.Status == models.OrderCancelled {
				return validationf("order %s is cancelled", order.OrderNumber)
			}
			sh.OrderID = &order.ID
			sh.StockCommitted = true
			for _, l := range order.Items {
				sh.Items = append(sh.Items, models.ShipmentItem{
					InventoryItemID: l.InventoryItemID,
					ItemName:        l.ItemName,
					Quantity:        l.Quantity,
				})
			}
			if sh.RecipientName == "" {
				sh.RecipientName = firstNonEmpty(order.RecipientName, order.CustomerName)
			}
			if sh.RecipientEmail == "" {
				sh.RecipientEmail = firstNonEmpty(order.RecipientEmail, order.CustomerEmail)
			}
			if sh.ShippingAddress == "" {
				sh.ShippingAddress = order.ShippingAddress
			}
		} else {
			if len(req.Items) == 0 {
				return validationf("a shipment needs at least one item")
			}
			for i, l := range req.Items {
				if l.Quantity <= 0 {
					return validationf("line %d: quantity must be greater than zero", i+1)
				}
				if l.Quantity > ledger.MaxMagnitude {
					return validationf("line %d: quantity must not exceed %d", i+1, ledger.MaxMagnitude)
				}
				line := models.ShipmentItem{ItemName: strings.TrimSpace(l.ItemName), Quantity: l.Quantity}
				var idPtr *string
				if l.InventoryItemID != "" {
					id := l.InventoryItemID
					idPtr = &id
				}
				item, err := inventory.Resolve(tx, companyID, idPtr, l.ItemName)
				switch {
				case err == nil:
					line.InventoryItemID = &item.ID
					line.ItemName = item.Name
				case errors.Is(err, inventory.ErrItemNotFound) && idPtr == nil && line.ItemName != "":
					// free-text line, not tracked in inventory
				case errors.Is(err, inventory.ErrItemNotFound):
					return validationf("line %d: %v", i+1, err)
				default:
					return err
				}
				sh.Items = append(sh.Items, line)
			}
		}
		if sh.RecipientName == "" {
			return validationf("recipient_name is required")
		}
		if sh.ScheduledDate == nil {
			now := time.Now()
			sh.ScheduledDate = &now
		}
		return tx.Create(&sh).Error
	})
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *Service) Get(ctx context.Context, companyID, id string) (models.Shipment, error) {
	var sh models.Shipment
	err := s.db.WithContext(ctx).Preload("Items").First(&sh, "id = ? AND company_id = ?", id, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sh, ErrShipmentNotFound
	}
	return sh, err
}

func (s *Service) List(ctx context.Context, companyID string, status models.ShipmentStatus) ([]models.Shipment, error) {
	q := s.db.WithContext(ctx).Preload("Items").Where("company_id = ?", companyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Shipment
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *Service) Stats(ctx context.Context, companyID string) (Stats, error) {
	type row struct {
		Status models.ShipmentStatus
		N      int64
	}
	var rows []row
	if err := s.db.WithContext(ctx).Model(&models.Shipment{}).
		Select("status, COUNT(*) AS n").
		Where("company_id = ?", companyID).
		Group("status").Scan(&rows).Error; err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, r := range rows {
		st.Total += r.N
		switch r.Status {
		case models.ShipmentScheduled:
			st.Scheduled = r.N
		case models.ShipmentInTransit:
			st.InTransit = r.N
		case models.ShipmentDelivered:
			st.Delivered = r.N
		case models.ShipmentCancelled:
			st.Cancelled = r.N
		}
	}
	return st, nil
}

// UpdateStatus moves a shipment along its lifecycle. The first move to
// in_transit stamps the shipped date and, for shipments whose stock is not
// committed yet, takes every matched line out of stock in the same unit of
// work. Lines that match no inventory item are skipped.
func (s *Service) UpdateStatus(ctx context.Context, companyID, id string, to models.ShipmentStatus, tracking string) (before, after models.Shipment, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&before, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShipmentNotFound
			}
			return err
		}
		if !CanTransition(before.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, before.Status, to)
		}

		updates := map[string]interface{}{"status": to}
		if tracking = strings.TrimSpace(tracking); tracking != "" {
			updates["tracking_number"] = tracking
		}

		if to == models.ShipmentInTransit {
			if before.ShippedDate == nil {
				updates["shipped_date"] = time.Now()
			}
			if !before.StockCommitted {
				if err := s.takeStock(tx, companyID, before); err != nil {
					return err
				}
				updates["stock_committed"] = true
			}
		}

		res := tx.Model(&models.Shipment{}).
			Where("id = ? AND status = ?", id, before.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: shipment changed concurrently", ErrInvalidTransition)
		}
		return tx.Preload("Items").First(&after, "id = ?", id).Error
	})
	return
}

func (s *Service) takeStock(tx *gorm.DB, companyID string, sh models.Shipment) error {
	ref := sh.ID
	for _, line := range sh.Items {
		item, err := inventory.Resolve(tx, companyID, line.InventoryItemID, line.ItemName)
		if errors.Is(err, inventory.ErrItemNotFound) {
			log.Printf("[shipping] %s: line %q matches no inventory item, skipped", sh.ShipmentNumber, line.ItemName)
			continue
		}
		if err != nil {
			return err
		}
		if _, _, err := inventory.Apply(tx, companyID, inventory.Change{
			ItemID:        item.ID,
			Type:          models.TxShipment,
			Delta:         -line.Quantity,
			ReferenceType: "shipment",
			ReferenceID:   &ref,
			Notes:         "Shipment " + sh.ShipmentNumber,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a shipment that has not left. Shipments in transit or
// delivered are part of the stock history.
func (s *Service) Delete(ctx context.Context, companyID, id string) (models.Shipment, error) {
	var sh models.Shipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&sh, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShipmentNotFound
			}
			return err
		}
		if sh.Status == models.ShipmentInTransit || sh.Status == models.ShipmentDelivered {
			return ErrShipmentLocked
		}
		if err := tx.Where("shipment_id = ?", id).Delete(&models.ShipmentItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Shipment{}, "id = ?", id).Error
	})
	return sh, err
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/customfields"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/ledger"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActionRequest is a user-chosen stock action. add_new creates the item;
// every other action adjusts an existing one found by ItemID or Name.
type ActionRequest struct {
	Action       models.TransactionType
	ItemID       string
	Name         string
	Quantity     int
	Category     models.ItemCategory
	Unit         string
	ReorderLevel int
	Price        decimal.Decimal
	CustomData   map[string]interface{}
	Notes        string
}

type ActionResult struct {
	Item        models.InventoryItem        `json:"item"`
	Transaction models.InventoryTransaction `json:"transaction"`
	Created     bool                        `json:"created"`
}

// ItemView is an item with its derived stock figures.
type ItemView struct {
	models.InventoryItem
	Status           ledger.StockStatus `json:"status"`
	PhysicalQuantity int                `json:"physical_quantity"`
}

type Filter struct {
	Category models.ItemCategory
	Status   ledger.StockStatus
	Query    string
}

type Stats struct {
	Total      int `json:"total"`
	Raw        int `json:"raw"`
	Finished   int `json:"finished"`
	LowStock   int `json:"low_stock"`
	OutOfStock int `json:"out_of_stock"`
}

type UpdateRequest struct {
	Name         *string
	Category     *models.ItemCategory
	Unit         *string
	ReorderLevel *int
	Price        *decimal.Decimal
	CustomData   map[string]interface{}
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

// Dispatch validates and applies one stock action as a single unit of work.
func (s *Service) Dispatch(ctx context.Context, companyID string, req ActionRequest) (*ActionResult, error) {
	if req.Quantity < 0 {
		return nil, ledger.ErrNegativeMagnitude
	}
	if req.Quantity > ledger.MaxMagnitude {
		return nil, ledger.ErrMagnitudeTooLarge
	}
	if req.Action == models.TxAddNew {
		return s.create(ctx, companyID, req)
	}
	if !ledger.IsManual(req.Action) {
		return nil, fmt.Errorf("%w: %q", ledger.ErrInvalidAction, req.Action)
	}

	delta, err := ledger.Delta(req.Action, req.Quantity)
	if err != nil {
		return nil, err
	}

	var res ActionResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var idPtr *string
		if req.ItemID != "" {
			idPtr = &req.ItemID
		}
		item, err := Resolve(tx, companyID, idPtr, req.Name)
		if err != nil {
			return err
		}
		res.Item, res.Transaction, err = Apply(tx, companyID, Change{
			ItemID:        item.ID,
			Type:          req.Action,
			Delta:         delta,
			ReferenceType: "manual",
			Notes:         req.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if delta == 0 {
		log.Printf("[inventory] zero-quantity %s recorded for %q, stock unchanged", req.Action, res.Item.Name)
	}
	return &res, nil
}

func (s *Service) create(ctx context.Context, companyID string, req ActionRequest) (*ActionResult, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, validationf("name is required")
	case !req.Category.Valid():
		return nil, validationf("category must be raw or finished")
	case strings.TrimSpace(req.Unit) == "":
		return nil, validationf("unit is required")
	case req.ReorderLevel < 0:
		return nil, validationf("reorder_level must not be negative")
	case req.Price.IsNegative():
		return nil, validationf("price must not be negative")
	}

	custom, err := s.fields.Validate(ctx, companyID, models.TableInventoryItems, req.CustomData)
	if err != nil {
		return nil, err
	}

	res := ActionResult{Created: true}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.InventoryItem{}).
			Where("company_id = ? AND name_key = ?", companyID, models.NameKey(name)).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrItemExists, name)
		}

		item := models.InventoryItem{
			CompanyID:    companyID,
			Name:         name,
			Category:     req.Category,
			Unit:         strings.TrimSpace(req.Unit),
			ReorderLevel: req.ReorderLevel,
			Price:        req.Price,
			CustomData:   custom,
		}
		if err := tx.Create(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrItemExists, name)
			}
			return err
		}

		res.Item, res.Transaction, err = Apply(tx, companyID, Change{
			ItemID:        item.ID,
			Type:          models.TxAddNew,
			Delta:         req.Quantity,
			ReferenceType: "manual",
			Notes:         req.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Service) Get(ctx context.Context, companyID, id string) (models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).First(&item, "id = ? AND company_id = ?", id, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, ErrItemNotFound
	}
	return item, err
}

// ScheduledShipments loads every scheduled shipment of the company with its lines.
func (s *Service) ScheduledShipments(ctx context.Context, companyID string) ([]models.Shipment, error) {
	var shipments []models.Shipment
	err := s.db.WithContext(ctx).Preload("Items").
		Where("company_id = ? AND status = ?", companyID, models.ShipmentScheduled).
		Find(&shipments).Error
	return shipments, err
}

// List returns the company's items with status and physical quantity.
func (s *Service) List(ctx context.Context, companyID string, f Filter) ([]ItemView, error) {
	q := s.db.WithContext(ctx).Where("company_id = ?", companyID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		q = q.Where("name_key LIKE ?", "%"+models.NameKey(term)+"%")
	}

	var items []models.InventoryItem
	if err := q.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	shipments, err := s.ScheduledShipments(ctx, companyID)
	if err != nil {
		return nil, err
	}

	physical := ledger.ProjectPhysical(items, shipments)
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		st := ledger.Status(it.Quantity, it.ReorderLevel)
		if f.Status != "" && st != f.Status {
			continue
		}
		out = append(out, ItemView{InventoryItem: it, Status: st, PhysicalQuantity: physical[it.ID]})
	}
	return out, nil
}

func (s *Service) View(ctx context.Context, companyID, id string) (ItemView, error) {
	item, err := s.Get(ctx, companyID, id)
	if err != nil {
		return ItemView{}, err
	}
	shipments, err := s.ScheduledShipments(ctx, companyID)
	if err != nil {
		return ItemView{}, err
	}
	return ItemView{
		InventoryItem:    item,
		Status:           ledger.Status(item.Quantity, item.ReorderLevel),
		PhysicalQuantity: ledger.PhysicalQuantity(item, shipments),
	}, nil
}

func (s *Service) Stats(ctx context.Context, companyID string) (Stats, error) {
	var items []models.InventoryItem
	if err := s.db.WithContext(ctx).Select("category", "quantity", "reorder_level").
		Where("company_id = ?", companyID).Find(&items).Error; err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, it := range items {
		st.Total++
		switch it.Category {
		case models.CategoryRaw:
			st.Raw++
		case models.CategoryFinished:
			st.Finished++
		}
		switch ledger.Status(it.Quantity, it.ReorderLevel) {
		case ledger.LowStock:
			st.LowStock++
		case ledger.OutOfStock:
			st.OutOfStock++
		}
	}
	return st, nil
}

// Update edits descriptive fields. Quantity is never editable here.
func (s *Service) Update(ctx context.Context, companyID, id string, req UpdateRequest) (before, after models.InventoryItem, err error) {
	var custom datatypes.JSONMap
	if req.CustomData != nil {
		if custom, err = s.fields.Validate(ctx, companyID, models.TableInventoryItems, req.CustomData); err != nil {
			return
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&before, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return validationf("name is required")
			}
			if models.NameKey(name) != before.NameKey {
				var count int64
				if err := tx.Model(&models.InventoryItem{}).
					Where("company_id = ? AND name_key = ? AND id <> ?", companyID, models.NameKey(name), id).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return fmt.Errorf("%w: %s", ErrItemExists, name)
				}
			}
			updates["name"] = name
			updates["name_key"] = models.NameKey(name)
		}
		if req.Category != nil {
			if !req.Category.Valid() {
				return validationf("category must be raw or finished")
			}
			updates["category"] = *req.Category
		}
		if req.Unit != nil {
			if strings.TrimSpace(*req.Unit) == "" {
				return validationf("unit is required")
			}
			updates["unit"] = strings.TrimSpace(*req.Unit)
		}
		if req.ReorderLevel != nil {
			if *req.ReorderLevel < 0 {
				return validationf("reorder_level must not be negative")
			}
			updates["reorder_level"] = *req.ReorderLevel
		}
		if req.Price != nil {
			if req.Price.IsNegative() {
				return validationf("price must not be negative")
			}
			updates["price"] = *req.Price
		}
		if req.CustomData != nil {
			updates["custom_data"] = custom
		}
		if len(updates) == 0 {
			after = before
			return nil
		}

		updates["updated_at"] = time.Now()
		if err := tx.Model(&models.InventoryItem{}).Where("id = ?", id).UpdateColumns(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %v", ErrItemExists, updates["name"])
			}
			return err
		}
		return tx.First(&after, "id = ?", id).Error
	})
	return
}

// Delete archives an item. The row is soft-deleted so its ledger history
// stays intact, and its name key is released for a future item.
func (s *Service) Delete(ctx context.Context, companyID, id string) (models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		var openOrders int64
		if err := tx.Model(&models.OrderItem{}).
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("order_items.inventory_item_id = ? AND orders.status IN ?", id,
				[]models.OrderStatus{models.OrderPending, models.OrderProcessing}).
			Count(&openOrders).Error; err != nil {
			return err
		}
		var openShipments int64
		if err := tx.Model(&models.ShipmentItem{}).
			Joins("JOIN shipments ON shipments.id = shipment_items.shipment_id").
			Where("shipment_items.inventory_item_id = ? AND shipments.status IN ?", id,
				[]models.ShipmentStatus{models.ShipmentScheduled, models.ShipmentInTransit}).
			Count(&openShipments).Error; err != nil {
			return err
		}
		if openOrders+openShipments > 0 {
			return fmt.Errorf("%w: %q is on %d open orders and %d open shipments", ErrItemInUse, item.Name, openOrders, openShipments)
		}

		if err := tx.Model(&models.InventoryItem{}).Where("id = ?", id).
			UpdateColumn("name_key", "archived:"+id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.InventoryItem{}, "id = ?", id).Error
	})
	return item, err
}

// Transactions returns the ledger of one item in chronological order.
func (s *Service) Transactions(ctx context.Context, companyID, itemID string) ([]models.InventoryTransaction, error) {
	var txs []models.InventoryTransaction
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND inventory_item_id = ?", companyID, itemID).
		Order("created_at ASC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt.Before(txs[j].CreatedAt) })
	return txs, nil
}

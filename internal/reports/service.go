// Package reports derives read-only views from items, orders and the ledger.
package reports

import (
	"context"
	"errors"
	"log"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/ledger"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound     = errors.New("inventory item not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

type Valuation struct {
	TotalUnits    int             `json:"total_units"`
	RawValue      decimal.Decimal `json:"raw_value"`
	FinishedValue decimal.Decimal `json:"finished_value"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

type LowStockItem struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Quantity     int                `json:"quantity"`
	ReorderLevel int                `json:"reorder_level"`
	Unit         string             `json:"unit"`
	Status       ledger.StockStatus `json:"status"`
}

type ItemHistory struct {
	Item    models.InventoryItem `json:"item"`
	Entries []ledger.Entry       `json:"entries"`
}

type CustomerHistory struct {
	Customer   models.Customer `json:"customer"`
	Orders     []models.Order  `json:"orders"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// Reconciliation is the outcome of replaying every item's ledger once.
type Reconciliation struct {
	RunID        string               `json:"run_id"`
	CompanyID    string               `json:"company_id"`
	CheckedItems int                  `json:"checked_items"`
	Drifts       []models.LedgerDrift `json:"drifts"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Valuation(ctx context.Context, companyID string) (Valuation, error) {
	var items []models.InventoryItem
	if err := s.db.WithContext(ctx).Select("category", "quantity", "price").
		Where("company_id = ?", companyID).Find(&items).Error; err != nil {
		return Valuation{}, err
	}

	v := Valuation{RawValue: decimal.Zero, FinishedValue: decimal.Zero}
	for _, it := range items {
		v.TotalUnits += it.Quantity
		switch it.Category {
		case models.CategoryRaw:
			v.RawValue = v.RawValue.Add(it.StockValue())
		case models.CategoryFinished:
			v.FinishedValue = v.FinishedValue.Add(it.StockValue())
		}
	}
	v.TotalValue = v.RawValue.Add(v.FinishedValue)
	return v, nil
}

// LowStock lists items at or below their reorder level, emptiest first.
func (s *Service) LowStock(ctx context.Context, companyID string) ([]LowStockItem, error) {
	var items []models.InventoryItem
	if err := s.db.WithContext(ctx).
		Where("company_id = ? AND quantity <= reorder_level", companyID).
		Order("quantity ASC, name ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	out := make([]LowStockItem, 0, len(items))
	for _, it := range items {
		out = append(out, LowStockItem{
			ID:           it.ID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			ReorderLevel: it.ReorderLevel,
			Unit:         it.Unit,
			Status:       ledger.Status(it.Quantity, it.ReorderLevel),
		})
	}
	return out, nil
}

func (s *Service) ItemHistory(ctx context.Context, companyID, itemID string) (ItemHistory, error) {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).First(&item, "id = ? AND company_id = ?", itemID, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ItemHistory{}, ErrItemNotFound
	}
	if err != nil {
		return ItemHistory{}, err
	}

	var txs []models.InventoryTransaction
	if err := s.db.WithContext(ctx).
		Where("company_id = ? AND inventory_item_id = ?", companyID, itemID).
		Find(&txs).Error; err != nil {
		return ItemHistory{}, err
	}
	return ItemHistory{Item: item, Entries: ledger.History(txs)}, nil
}

// CustomerOrders returns a customer's orders newest first. Cancelled orders
// are listed but excluded from revenue.
func (s *Service) CustomerOrders(ctx context.Context, companyID, customerID string) (CustomerHistory, error) {
	var cust models.Customer
	err := s.db.WithContext(ctx).First(&cust, "id = ? AND company_id = ?", customerID, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CustomerHistory{}, ErrCustomerNotFound
	}
	if err != nil {
		return CustomerHistory{}, err
	}

	var orders []models.Order
	if err := s.db.WithContext(ctx).Preload("Items").
		Where("company_id = ? AND customer_id = ?", companyID, customerID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return CustomerHistory{}, err
	}

	h := CustomerHistory{Customer: cust, Orders: orders, OrderCount: len(orders), Revenue: decimal.Zero}
	for _, o := range orders {
		if o.Status != models.OrderCancelled {
			h.Revenue = h.Revenue.Add(o.TotalAmount)
		}
	}
	return h, nil
}

type ledgerSum struct {
	InventoryItemID string
	Total           int
}

// Reconcile compares each item's stored quantity with the sum of its ledger.
// With persist set, drifts are written as LedgerDrift rows under one run id.
func (s *Service) Reconcile(ctx context.Context, companyID string, persist bool) (Reconciliation, error) {
	rec := Reconciliation{RunID: uuid.New().String(), CompanyID: companyID, Drifts: []models.LedgerDrift{}}
	db := s.db.WithContext(ctx)

	var items []models.InventoryItem
	if err := db.Select("id", "name", "quantity").
		Where("company_id = ?", companyID).Order("name ASC").Find(&items).Error; err != nil {
		return rec, err
	}

	var sums []ledgerSum
	if err := db.Model(&models.InventoryTransaction{}).
		Select("inventory_item_id, COALESCE(SUM(quantity), 0) AS total").
		Where("company_id = ?", companyID).
		Group("inventory_item_id").
		Scan(&sums).Error; err != nil {
		return rec, err
	}
	byItem := make(map[string]int, len(sums))
	for _, sm := range sums {
		byItem[sm.InventoryItemID] = sm.Total
	}

	for _, it := range items {
		rec.CheckedItems++
		if expected := byItem[it.ID]; expected != it.Quantity {
			rec.Drifts = append(rec.Drifts, models.LedgerDrift{
				RunID:           rec.RunID,
				CompanyID:       companyID,
				InventoryItemID: it.ID,
				ItemName:        it.Name,
				StoredQuantity:  it.Quantity,
				LedgerQuantity:  expected,
			})
		}
	}

	if persist && len(rec.Drifts) > 0 {
		if err := db.Create(&rec.Drifts).Error; err != nil {
			return rec, err
		}
	}
	if len(rec.Drifts) > 0 {
		log.Printf("[reports] reconcile company=%s run=%s: %d of %d items drifted", companyID, rec.RunID, len(rec.Drifts), rec.CheckedItems)
	}
	return rec, nil
}

// ReconcileAll runs a persisted reconciliation for every company. A failing
// company is logged and skipped.
func (s *Service) ReconcileAll(ctx context.Context) ([]Reconciliation, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Company{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	out := make([]Reconciliation, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Reconcile(ctx, id, true)
		if err != nil {
			log.Printf("[reports] reconcile company=%s failed: %v", id, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Drifts lists recorded drifts, newest first.
func (s *Service) Drifts(ctx context.Context, companyID string, limit int) ([]models.LedgerDrift, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var drifts []models.LedgerDrift
	err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&drifts).Error
	return drifts, err
}

package reports

import (
	"context"
	"testing"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/customfields"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/database/dbtest"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/inventory"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/orders"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func seed(t *testing.T, db *gorm.DB, companyID string) (flour, bread models.InventoryItem) {
	t.Helper()
	ctx := context.Background()
	inv := inventory.NewService(db, customfields.NewService(db))

	add := func(name string, cat models.ItemCategory, qty int, price string) models.InventoryItem {
		res, err := inv.Dispatch(ctx, companyID, inventory.ActionRequest{
			Action: models.TxAddNew, Name: name, Category: cat, Unit: "pcs",
			Quantity: qty, ReorderLevel: 5, Price: decimal.RequireFromString(price),
		})
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		return res.Item
	}
	flour = add("Flour", models.CategoryRaw, 100, "2.50")
	bread = add("Bread", models.CategoryFinished, 10, "4.00")

	steps := []inventory.ActionRequest{
		{Action: models.TxRestock, ItemID: flour.ID, Quantity: 20},
		{Action: models.TxDamagedGoods, ItemID: flour.ID, Quantity: 15},
		{Action: models.TxSample, Name: "bread", Quantity: 2},
		{Action: models.TxReturns, ItemID: bread.ID, Quantity: 1},
	}
	for _, st := range steps {
		if _, err := inv.Dispatch(ctx, companyID, st); err != nil {
			t.Fatalf("dispatch %s: %v", st.Action, err)
		}
	}
	return flour, bread
}

func TestValuationAndLowStock(t *testing.T) {
	db := dbtest.New(t)
	company := dbtest.Company(t, db, "Duck Co")
	seed(t, db, company.ID)
	svc := NewService(db)

	v, err := svc.Valuation(context.Background(), company.ID)
	if err != nil {
		t.Fatal(err)
	}
	// flour 105 * 2.50, bread 9 * 4.00
	if v.TotalUnits != 114 {
		t.Errorf("total units = %d", v.TotalUnits)
	}
	if !v.RawValue.Equal(decimal.RequireFromString("262.5")) {
		t.Errorf("raw value = %s", v.RawValue)
	}
	if !v.FinishedValue.Equal(decimal.NewFromInt(36)) {
		t.Errorf("finished value = %s", v.FinishedValue)
	}
	if !v.TotalValue.Equal(decimal.RequireFromString("298.5")) {
		t.Errorf("total value = %s", v.TotalValue)
	}

	low, err := svc.LowStock(context.Background(), company.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(low) != 0 {
		t.Errorf("expected no low stock items, got %+v", low)
	}
}

func TestItemHistoryNewestFirst(t *testing.T) {
	db := dbtest.New(t)
	company := dbtest.Company(t, db, "Duck Co")
	flour, _ := seed(t, db, company.ID)
	svc := NewService(db)

	h, err := svc.ItemHistory(context.Background(), company.ID, flour.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(h.Entries))
	}
	if h.Entries[0].RunningStock != h.Item.Quantity {
		t.Errorf("newest running stock %d != stored %d", h.Entries[0].RunningStock, h.Item.Quantity)
	}
	if last := h.Entries[len(h.Entries)-1]; last.TransactionType != models.TxAddNew || last.RunningStock != 100 {
		t.Errorf("oldest entry = %s/%d", last.TransactionType, last.RunningStock)
	}

	other := dbtest.Company(t, db, "Other Co")
	if _, err := svc.ItemHistory(context.Background(), other.ID, flour.ID); err != ErrItemNotFound {
		t.Errorf("cross-company lookup: %v", err)
	}
}

func TestReconcileFindsDrift(t *testing.T) {
	db := dbtest.New(t)
	company := dbtest.Company(t, db, "Duck Co")
	flour, _ := seed(t, db, company.ID)
	svc := NewService(db)
	ctx := context.Background()

	rec, err := svc.Reconcile(ctx, company.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if rec.CheckedItems != 2 || len(rec.Drifts) != 0 {
		t.Fatalf("clean ledger reported %d drifts over %d items", len(rec.Drifts), rec.CheckedItems)
	}

	if err := db.Model(&models.InventoryItem{}).Where("id = ?", flour.ID).UpdateColumn("quantity", 90).Error; err != nil {
		t.Fatal(err)
	}

	runs, err := svc.ReconcileAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || len(runs[0].Drifts) != 1 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	d := runs[0].Drifts[0]
	if d.InventoryItemID != flour.ID || d.StoredQuantity != 90 || d.LedgerQuantity != 105 || d.Difference() != -15 {
		t.Errorf("unexpected drift %+v", d)
	}

	stored, err := svc.Drifts(ctx, company.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].RunID != runs[0].RunID {
		t.Errorf("persisted drifts = %+v", stored)
	}
}

func TestCustomerOrdersExcludeCancelledRevenue(t *testing.T) {
	db := dbtest.New(t)
	company := dbtest.Company(t, db, "Duck Co")
	_, bread := seed(t, db, company.ID)
	ctx := context.Background()

	cust := models.Customer{CompanyID: company.ID, Name: "Ada", Email: "ada@duck.test"}
	if err := db.Create(&cust).Error; err != nil {
		t.Fatal(err)
	}

	osvc := orders.NewService(db, customfields.NewService(db))
	mk := func(qty int) models.Order {
		o, _, err := osvc.Create(ctx, company.ID, orders.CreateRequest{
			CustomerID: cust.ID,
			Items:      []orders.LineRequest{{InventoryItemID: bread.ID, Quantity: qty}},
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}
		return *o
	}
	mk(2)
	second := mk(1)
	if _, _, err := osvc.UpdateStatus(ctx, company.ID, second.ID, models.OrderCancelled); err != nil {
		t.Fatal(err)
	}

	h, err := NewService(db).CustomerOrders(ctx, company.ID, cust.ID)
	if err != nil {
		t.Fatal(err)
	}
	if h.OrderCount != 2 {
		t.Errorf("order count = %d", h.OrderCount)
	}
	if !h.Revenue.Equal(decimal.NewFromInt(8)) {
		t.Errorf("revenue = %s", h.Revenue)
	}
	if len(h.Orders[0].Items) != 1 {
		t.Errorf("items not loaded")
	}
}

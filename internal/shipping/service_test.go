package shipping

import (
	"context"
	"errors"
	"testing"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/customfields"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/database/dbtest"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/inventory"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/ledger"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/orders"

	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	svc       *Service
	inv       *inventory.Service
	orders    *orders.Service
	companyID string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.New(t)
	company := dbtest.Company(t, db, "Duck Co")
	fields := customfields.NewService(db)
	return fixture{
		db:        db,
		svc:       NewService(db),
		inv:       inventory.NewService(db, fields),
		orders:    orders.NewService(db, fields),
		companyID: company.ID,
	}
}

func (f fixture) item(t *testing.T, name string, qty int) models.InventoryItem {
	t.Helper()
	res, err := f.inv.Dispatch(context.Background(), f.companyID, inventory.ActionRequest{
		Action: models.TxAddNew, Name: name, Quantity: qty, Category: models.CategoryFinished, Unit: "pcs",
	})
	if err != nil {
		t.Fatal(err)
	}
	return res.Item
}

func (f fixture) view(t *testing.T, id string) inventory.ItemView {
	t.Helper()
	v, err := f.inv.View(context.Background(), f.companyID, id)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestManualShipmentTakesStockOnDeparture(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	duck := f.item(t, "Duck", 20)

	sh, err := f.svc.Create(ctx, f.companyID, CreateRequest{
		RecipientName: "Market stall",
		Items: []LineRequest{
			{ItemName: "DUCK", Quantity: 5},
			{ItemName: "Gift card", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if sh.StockCommitted || sh.Status != models.ShipmentScheduled || sh.ScheduledDate == nil {
		t.Fatalf("shipment = %+v", sh)
	}
	if sh.Items[0].InventoryItemID == nil || *sh.Items[0].InventoryItemID != duck.ID || sh.Items[1].InventoryItemID != nil {
		t.Errorf("line resolution = %+v", sh.Items)
	}

	v := f.view(t, duck.ID)
	if v.Quantity != 20 || v.PhysicalQuantity != 25 {
		t.Errorf("before departure quantity=%d physical=%d", v.Quantity, v.PhysicalQuantity)
	}

	_, after, err := f.svc.UpdateStatus(ctx, f.companyID, sh.ID, models.ShipmentInTransit, "TRK-1")
	if err != nil {
		t.Fatal(err)
	}
	if after.ShippedDate == nil || after.TrackingNumber != "TRK-1" || !after.StockCommitted {
		t.Errorf("after departure = %+v", after)
	}

	v = f.view(t, duck.ID)
	if v.Quantity != 15 || v.PhysicalQuantity != 15 {
		t.Errorf("after departure quantity=%d physical=%d", v.Quantity, v.PhysicalQuantity)
	}
	txs, _ := f.inv.Transactions(ctx, f.companyID, duck.ID)
	if last := txs[len(txs)-1]; last.TransactionType != models.TxShipment || last.Quantity != -5 || last.ReferenceType != "shipment" {
		t.Errorf("ledger row = %+v", last)
	}

	if _, _, err := f.svc.UpdateStatus(ctx, f.companyID, sh.ID, models.ShipmentDelivered, ""); err != nil {
		t.Fatal(err)
	}
	if q := f.view(t, duck.ID).Quantity; q != 15 {
		t.Errorf("delivery moved stock to %d", q)
	}
}

func TestOrderShipmentIsNotDeductedTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	duck := f.item(t, "Duck", 30)

	_, sh, err := f.orders.Create(ctx, f.companyID, orders.CreateRequest{
		CustomerName: "Pond", CustomerEmail: "pond@test", NeedsShipping: true,
		Items: []orders.LineRequest{{InventoryItemID: duck.ID, Quantity: 10}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if v := f.view(t, duck.ID); v.Quantity != 20 || v.PhysicalQuantity != 30 {
		t.Errorf("scheduled: quantity=%d physical=%d", v.Quantity, v.PhysicalQuantity)
	}

	if _, _, err := f.svc.UpdateStatus(ctx, f.companyID, sh.ID, models.ShipmentInTransit, ""); err != nil {
		t.Fatal(err)
	}
	v := f.view(t, duck.ID)
	if v.Quantity != 20 || v.PhysicalQuantity != 20 {
		t.Errorf("in transit: quantity=%d physical=%d", v.Quantity, v.PhysicalQuantity)
	}

	txs, _ := f.inv.Transactions(ctx, f.companyID, duck.ID)
	if len(txs) != 2 || ledger.Balance(txs) != 20 {
		t.Errorf("ledger = %+v", txs)
	}
}

func TestDepartureRollsBackOnShortfall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	duck := f.item(t, "Duck", 3)
	goose := f.item(t, "Goose", 10)

	sh, err := f.svc.Create(ctx, f.companyID, CreateRequest{
		RecipientName: "Zoo",
		Items: []LineRequest{
			{InventoryItemID: goose.ID, Quantity: 4},
			{InventoryItemID: duck.ID, Quantity: 5},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = f.svc.UpdateStatus(ctx, f.companyID, sh.ID, models.ShipmentInTransit, "")
	if !errors.Is(err, ledger.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if q := f.view(t, goose.ID).Quantity; q != 10 {
		t.Errorf("goose stock changed to %d", q)
	}
	got, _ := f.svc.Get(ctx, f.companyID, sh.ID)
	if got.Status != models.ShipmentScheduled || got.StockCommitted {
		t.Errorf("shipment changed: %+v", got)
	}
}

func TestCreateFromOrderCopiesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	duck := f.item(t, "Duck", 8)

	order, _, err := f.orders.Create(ctx, f.companyID, orders.CreateRequest{
		CustomerName: "Pond", CustomerEmail: "pond@test",
		Items: []orders.LineRequest{{InventoryItemID: duck.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatal(err)
	}

	sh, err := f.svc.Create(ctx, f.companyID, CreateRequest{OrderID: order.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !sh.StockCommitted || len(sh.Items) != 1 || sh.Items[0].Quantity != 2 || sh.RecipientName != "Pond" {
		t.Errorf("shipment = %+v", sh)
	}
	if _, err := f.svc.Create(ctx, f.companyID, CreateRequest{OrderID: "missing"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing order: %v", err)
	}
}

func TestTransitionsAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.item(t, "Duck", 8)

	mk := func() models.Shipment {
		sh, err := f.svc.Create(ctx, f.companyID, CreateRequest{RecipientName: "X", Items: []LineRequest{{ItemName: "Duck", Quantity: 1}}})
		if err != nil {
			t.Fatal(err)
		}
		return *sh
	}

	a := mk()
	if _, _, err := f.svc.UpdateStatus(ctx, f.companyID, a.ID, models.ShipmentDelivered, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("scheduled -> delivered: %v", err)
	}
	if _, err := f.svc.Delete(ctx, f.companyID, a.ID); err != nil {
		t.Errorf("delete scheduled: %v", err)
	}

	b := mk()
	f.svc.UpdateStatus(ctx, f.companyID, b.ID, models.ShipmentInTransit, "")
	if _, err := f.svc.Delete(ctx, f.companyID, b.ID); !errors.Is(err, ErrShipmentLocked) {
		t.Errorf("delete in transit: %v", err)
	}

	c := mk()
	f.svc.UpdateStatus(ctx, f.companyID, c.ID, models.ShipmentCancelled, "")

	st, err := f.svc.Stats(ctx, f.companyID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 2 || st.InTransit != 1 || st.Cancelled != 1 || st.Scheduled != 0 {
		t.Errorf("stats = %+v", st)
	}

	if _, err := f.svc.Create(ctx, f.companyID, CreateRequest{Items: []LineRequest{{ItemName: "Duck", Quantity: 1}}}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing recipient: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.companyID, CreateRequest{RecipientName: "X", Items: []LineRequest{{InventoryItemID: "nope", Quantity: 1}}}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown item id: %v", err)
	}
}

package jobs

import (
	"context"
	"testing"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/database/dbtest"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/reports"
)

func TestStartRejectsBadSchedule(t *testing.T) {
	noop := func(context.Context) error { return nil }
	if _, err := Start(Job{Name: "broken", Schedule: "not a schedule", Run: noop}); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}

	c, err := Start(Job{Name: "off", Schedule: "", Run: noop}, Job{Name: "hourly", Schedule: "@hourly", Run: noop})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Stop()
	if n := len(c.Entries()); n != 1 {
		t.Errorf("expected 1 scheduled entry, got %d", n)
	}
}

func TestReconcileJobPersistsDrift(t *testing.T) {
	db := dbtest.New(t)
	company := dbtest.Company(t, db, "Duck Co")
	item := models.InventoryItem{CompanyID: company.ID, Name: "Eggs", Category: models.CategoryRaw, Unit: "pcs", Quantity: 12}
	if err := db.Create(&item).Error; err != nil {
		t.Fatal(err)
	}

	job := Reconcile(reports.NewService(db), "0 3 * * *")
	found, ok := Find("reconcile", job)
	if !ok {
		t.Fatal("reconcile job not found")
	}
	if err := found.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	var drifts []models.LedgerDrift
	db.Find(&drifts)
	if len(drifts) != 1 || drifts[0].StoredQuantity != 12 || drifts[0].LedgerQuantity != 0 {
		t.Errorf("unexpected drifts %+v", drifts)
	}
}

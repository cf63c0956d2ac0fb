package audit

import (
	"errors"
	"testing"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/database/dbtest"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"gorm.io/gorm"
)

func lastLog(t *testing.T, db *gorm.DB) models.AuditLog {
	t.Helper()
	var l models.AuditLog
	if err := db.Order("created_at DESC").First(&l).Error; err != nil {
		t.Fatal(err)
	}
	return l
}

func TestUndoCustomerChanges(t *testing.T) {
	db := dbtest.New(t)
	company := dbtest.Company(t, db, "Duck Co")
	admin := dbtest.User(t, db, company.ID, "admin@duck.test", models.RoleAdmin)

	cust := models.Customer{CompanyID: company.ID, Name: "Pond Shop", Email: "pond@test"}
	db.Create(&cust)
	if err := WriteLog(db, LogOptions{CompanyID: company.ID, UserID: admin.ID, EntityType: EntityCustomer, EntityID: cust.ID,
		Action: models.AuditActionCreate, Description: "Customer added", After: cust}); err != nil {
		t.Fatal(err)
	}
	created := lastLog(t, db)

	before := cust
	db.Model(&cust).Updates(map[string]interface{}{"name": "Lake Shop", "phone": "555"})
	WriteLog(db, LogOptions{CompanyID: company.ID, UserID: admin.ID, EntityType: EntityCustomer, EntityID: cust.ID,
		Action: models.AuditActionUpdate, Description: "Customer updated", Before: before, After: cust})
	updated := lastLog(t, db)

	if err := UndoLog(db, company.ID, updated.ID, admin.ID, admin.Name); err != nil {
		t.Fatal(err)
	}
	var got models.Customer
	db.First(&got, "id = ?", cust.ID)
	if got.Name != "Pond Shop" || got.Phone != "" {
		t.Errorf("update not reverted: %+v", got)
	}
	if err := UndoLog(db, company.ID, updated.ID, admin.ID, admin.Name); !errors.Is(err, ErrAlreadyUndone) {
		t.Errorf("second undo: %v", err)
	}

	if err := UndoLog(db, company.ID, created.ID, admin.ID, admin.Name); err != nil {
		t.Fatal(err)
	}
	var n int64
	db.Model(&models.Customer{}).Where("id = ?", cust.ID).Count(&n)
	if n != 0 {
		t.Error("undoing the create should remove the customer")
	}

	var undos int64
	db.Model(&models.AuditLog{}).Where("action = ?", models.AuditActionUndo).Count(&undos)
	if undos != 2 {
		t.Errorf("undo entries = %d", undos)
	}
}

func TestUndoDeletedCustomerRecreatesIt(t *testing.T) {
	db := dbtest.New(t)
	company := dbtest.Company(t, db, "Duck Co")

	cust := models.Customer{CompanyID: company.ID, Name: "Gone", Address: "Somewhere"}
	db.Create(&cust)
	db.Delete(&cust)
	WriteLog(db, LogOptions{CompanyID: company.ID, EntityType: EntityCustomer, EntityID: cust.ID,
		Action: models.AuditActionDelete, Description: "Customer deleted", Before: cust})

	if err := UndoLog(db, company.ID, lastLog(t, db).ID, "u", "U"); err != nil {
		t.Fatal(err)
	}
	var got models.Customer
	if err := db.First(&got, "id = ?", cust.ID).Error; err != nil || got.Address != "Somewhere" {
		t.Errorf("customer not recreated: %v %+v", err, got)
	}
}

func TestLedgerEntitiesAreNotUndoable(t *testing.T) {
	db := dbtest.New(t)
	company := dbtest.Company(t, db, "Duck Co")
	other := dbtest.Company(t, db, "Goose Co")

	WriteLog(db, LogOptions{CompanyID: company.ID, EntityType: EntityOrder, EntityID: "o1",
		Action: models.AuditActionCreate, Description: "Order created"})
	entry := lastLog(t, db)

	if err := UndoLog(db, company.ID, entry.ID, "u", "U"); !errors.Is(err, ErrNotUndoable) {
		t.Errorf("order undo: %v", err)
	}
	if err := UndoLog(db, other.ID, entry.ID, "u", "U"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("cross-company undo: %v", err)
	}
}

package customfields

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/database/dbtest"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
)

func TestCheck(t *testing.T) {
	fields := []models.CustomField{
		{FieldName: "Supplier", FieldType: models.FieldText},
		{FieldName: "Weight", FieldType: models.FieldNumber},
		{FieldName: "Best Before", FieldType: models.FieldDate},
		{FieldName: "Organic", FieldType: models.FieldBoolean},
	}

	out, err := Check(fields, map[string]interface{}{
		"supplier":    "Acme",
		"WEIGHT":      "2.5",
		"best before": "2026-12-01T10:00:00Z",
		"Organic":     "true",
		"Ignored":     nil,
	})
	if err == nil {
		t.Fatalf("unknown key with nil value should still be rejected, got %v", out)
	}

	out, err = Check(fields, map[string]interface{}{
		"supplier":    "Acme",
		"WEIGHT":      "2.5",
		"best before": "2026-12-01T10:00:00Z",
		"Organic":     "true",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out["Supplier"] != "Acme" || out["Weight"] != 2.5 || out["Best Before"] != "2026-12-01" || out["Organic"] != true {
		t.Errorf("normalized = %v", out)
	}

	bad := []map[string]interface{}{
		{"Weight": "heavy"},
		{"Best Before": "tomorrow"},
		{"Organic": 3},
		{"Supplier": 12},
		{"Weight": "NaN"},
		{"Weight": "Inf"},
		{"Weight": "-Infinity"},
		{"Weight": math.Inf(1)},
	}
	for _, data := range bad {
		if _, err := Check(fields, data); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("%v: got %v", data, err)
		}
	}
	if _, err := Check(fields, map[string]interface{}{"color": "red"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("unknown field: %v", err)
	}
}

func TestCreateEnforcesLimits(t *testing.T) {
	db := dbtest.New(t)
	company := dbtest.Company(t, db, "Duck Co")
	svc := NewService(db)
	ctx := context.Background()

	for i, name := range []string{"A", "B", "C", "D", "E"} {
		f := models.CustomField{TableName: models.TableOrders, FieldName: name, FieldType: models.FieldText}
		if err := svc.Create(ctx, company.ID, &f); err != nil {
			t.Fatalf("field %s: %v", name, err)
		}
		if f.FieldOrder != i {
			t.Errorf("field %s order = %d", name, f.FieldOrder)
		}
	}
	sixth := models.CustomField{TableName: models.TableOrders, FieldName: "F", FieldType: models.FieldText}
	if err := svc.Create(ctx, company.ID, &sixth); !errors.Is(err, ErrTooManyFields) {
		t.Errorf("sixth field: %v", err)
	}

	dup := models.CustomField{TableName: models.TableInventoryItems, FieldName: "Batch", FieldType: models.FieldText}
	svc.Create(ctx, company.ID, &dup)
	again := models.CustomField{TableName: models.TableInventoryItems, FieldName: " batch ", FieldType: models.FieldNumber}
	if err := svc.Create(ctx, company.ID, &again); !errors.Is(err, ErrDuplicateField) {
		t.Errorf("duplicate: %v", err)
	}

	invalid := []models.CustomField{
		{TableName: "customers", FieldName: "X", FieldType: models.FieldText},
		{TableName: models.TableOrders, FieldName: "", FieldType: models.FieldText},
		{TableName: models.TableInventoryItems, FieldName: "X", FieldType: "color"},
	}
	for _, f := range invalid {
		if err := svc.Create(ctx, company.ID, &f); !errors.Is(err, ErrInvalidField) {
			t.Errorf("%+v: %v", f, err)
		}
	}

	list, err := svc.List(ctx, company.ID, models.TableInventoryItems)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %d", err, len(list))
	}
	if _, err := svc.Delete(ctx, company.ID, list[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Delete(ctx, company.ID, list[0].ID); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

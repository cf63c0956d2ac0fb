package inventory

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/ledger"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/xuri/excelize/v2"
)

func sheet(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		axis, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := f.SetSheetRow("Sheet1", axis, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestParseRestockSheet(t *testing.T) {
	buf := sheet(t,
		[]interface{}{"Item name", "Quantity", "Notes"},
		[]interface{}{"Flour", 25, "pallet 7"},
		[]interface{}{"", ""},
		[]interface{}{"Sugar", "4.0"},
		[]interface{}{"Salt", "-2"},
		[]interface{}{"", 3},
		[]interface{}{"Oil", "1.5"},
	)

	rows, bad, err := ParseRestockSheet(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if rows[0].Row != 2 || rows[0].Name != "Flour" || rows[0].Quantity != 25 || rows[0].Notes != "pallet 7" {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1].Name != "Sugar" || rows[1].Quantity != 4 {
		t.Errorf("second row = %+v", rows[1])
	}

	wantBad := []int{5, 6, 7}
	if len(bad) != len(wantBad) {
		t.Fatalf("bad rows = %+v", bad)
	}
	for i, r := range wantBad {
		if bad[i].Row != r {
			t.Errorf("bad[%d].Row = %d, want %d", i, bad[i].Row, r)
		}
	}
}

func TestParseRestockSheetRejectsGarbage(t *testing.T) {
	if _, _, err := ParseRestockSheet(bytes.NewBufferString("not a workbook")); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"12", 12, true},
		{"4,0", 4, true},
		{"2147483647", 2147483647, true},
		{"2147483648", 0, false},
		{"9.3e18", 0, false},
		{"1.5", 0, false},
		{"-2", 0, false},
	}
	for _, tc := range cases {
		got, err := parseQuantity(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("parseQuantity(%q) = %d, %v", tc.in, got, err)
		}
	}
}

func TestImportRestockIsAllOrNothing(t *testing.T) {
	svc, _, companyID := newService(t)
	ctx := context.Background()
	flour := addItem(t, svc, companyID, "Flour", 10)
	addItem(t, svc, companyID, "Sugar", 1)

	_, err := svc.ImportRestock(ctx, companyID, []ImportRow{
		{Row: 2, Name: "flour", Quantity: 5},
		{Row: 3, Name: "Cinnamon", Quantity: 1},
	})
	var re *RowError
	if !errors.As(err, &re) || re.Row != 3 || !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected row 3 not found, got %v", err)
	}
	if item, _ := svc.Get(ctx, companyID, flour.ID); item.Quantity != 10 {
		t.Errorf("aborted import changed flour to %d", item.Quantity)
	}

	results, err := svc.ImportRestock(ctx, companyID, []ImportRow{
		{Row: 2, Name: "FLOUR", Quantity: 5},
		{Row: 3, Name: "sugar", Quantity: 2, Notes: "late delivery"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Item.Quantity != 15 || results[1].Item.Quantity != 3 {
		t.Errorf("results = %+v", results)
	}
	if results[0].Transaction.TransactionType != models.TxRestock || results[0].Transaction.ReferenceType != "import" {
		t.Errorf("ledger row = %+v", results[0].Transaction)
	}
	if results[1].Transaction.Notes != "late delivery" {
		t.Errorf("notes = %q", results[1].Transaction.Notes)
	}
}

func TestWriteWorkbook(t *testing.T) {
	svc, _, companyID := newService(t)
	ctx := context.Background()
	addItem(t, svc, companyID, "Flour", 8)
	addItem(t, svc, companyID, "Sugar", 0)

	items, err := svc.List(ctx, companyID, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, items); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][0] != "Name" || rows[1][0] != "Flour" || rows[2][0] != "Sugar" {
		t.Errorf("unexpected rows %v", rows)
	}
	if rows[2][8] != string(ledger.OutOfStock) {
		t.Errorf("status column = %q", rows[2][8])
	}
	total, _ := f.GetCellValue(exportSheet, "H5")
	if total != "10" {
		t.Errorf("total value = %q", total)
	}
}

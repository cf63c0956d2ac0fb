package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/ledger"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const exportSheet = "Inventory"

// ImportRow is one restock line read from a spreadsheet. Row is 1-based as
// shown in spreadsheet applications.
type ImportRow struct {
	Row      int    `json:"row"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return strings.Contains(first, "name") || strings.Contains(first, "item") || strings.Contains(first, "product")
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// ParseRestockSheet reads name / quantity / notes columns from the first
// sheet of an XLSX workbook. A header row is detected and skipped.
func ParseRestockSheet(r io.Reader) ([]ImportRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: workbook could not be read: %v", ErrValidation, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: workbook has no sheets", ErrValidation)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sheet could not be read: %v", ErrValidation, err)
	}

	var out []ImportRow
	var bad []RowError
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		name := cell(row, 0)
		rawQty := cell(row, 1)
		if name == "" && rawQty == "" {
			continue
		}
		if name == "" {
			bad = append(bad, RowError{Row: i + 1, Message: "item name is empty"})
			continue
		}
		qty, err := parseQuantity(rawQty)
		if err != nil {
			bad = append(bad, RowError{Row: i + 1, Message: fmt.Sprintf("quantity %q is not a whole non-negative number", rawQty)})
			continue
		}
		out = append(out, ImportRow{Row: i + 1, Name: name, Quantity: qty, Notes: cell(row, 2)})
	}
	return out, bad, nil
}

func parseQuantity(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, ledger.ErrNegativeMagnitude
		}
		if n > ledger.MaxMagnitude {
			return 0, ledger.ErrMagnitudeTooLarge
		}
		return n, nil
	}
	fl, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || fl < 0 || fl > ledger.MaxMagnitude || fl != math.Trunc(fl) {
		return 0, errors.New("invalid quantity")
	}
	return int(fl), nil
}

// ImportRestock applies one restock per row in a single unit of work. The
// first failing row aborts the import and nothing is written.
func (s *Service) ImportRestock(ctx context.Context, companyID string, rows []ImportRow) ([]ActionResult, error) {
	results := make([]ActionResult, 0, len(rows))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			item, err := FindByName(tx, companyID, r.Name)
			if err != nil {
				return &RowError{Row: r.Row, Message: err.Error(), Err: err}
			}
			notes := r.Notes
			if notes == "" {
				notes = "Spreadsheet import"
			}
			updated, entry, err := Apply(tx, companyID, Change{
				ItemID:        item.ID,
				Type:          models.TxRestock,
				Delta:         r.Quantity,
				ReferenceType: "import",
				Notes:         notes,
			})
			if err != nil {
				return &RowError{Row: r.Row, Message: err.Error(), Err: err}
			}
			results = append(results, ActionResult{Item: updated, Transaction: entry})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// WriteWorkbook renders items as an XLSX sheet with a value total.
func WriteWorkbook(w io.Writer, items []ItemView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	header := []interface{}{"Name", "Category", "Quantity", "Physical", "Unit", "Reorder level", "Price", "Value", "Status", "Last updated"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}

	total := 0.0
	for i, it := range items {
		value, _ := it.StockValue().Float64()
		price, _ := it.Price.Float64()
		total += value
		row := []interface{}{
			it.Name,
			string(it.Category),
			it.Quantity,
			it.PhysicalQuantity,
			it.Unit,
			it.ReorderLevel,
			price,
			value,
			string(it.Status),
			it.UpdatedAt.Format("2006-01-02 15:04"),
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, axis, &row); err != nil {
			return err
		}
	}

	totalRow := len(items) + 3
	if err := f.SetCellValue(exportSheet, fmt.Sprintf("G%d", totalRow), "Total"); err != nil {
		return err
	}
	if err := f.SetCellValue(exportSheet, fmt.Sprintf("H%d", totalRow), total); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

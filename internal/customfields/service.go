// Package customfields manages admin-defined extra attributes and validates
// custom_data maps against them at write time.
package customfields

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxFieldsPerTable caps the definitions per table and company.
const MaxFieldsPerTable = 5

var (
	ErrTooManyFields  = fmt.Errorf("at most %d custom fields per table", MaxFieldsPerTable)
	ErrDuplicateField = errors.New("a custom field with this name already exists")
	ErrInvalidField   = errors.New("invalid custom field definition")
	ErrInvalidValue   = errors.New("invalid custom field value")
	ErrUnknownField   = errors.New("unknown custom field")
	ErrFieldNotFound  = errors.New("custom field not found")
)

func validTable(t string) bool {
	return t == models.TableInventoryItems || t == models.TableOrders
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns the definitions of one table, or of all tables when table is empty.
func (s *Service) List(ctx context.Context, companyID, table string) ([]models.CustomField, error) {
	q := s.db.WithContext(ctx).Where("company_id = ?", companyID)
	if table != "" {
		q = q.Where("table_name = ?", table)
	}
	var fields []models.CustomField
	if err := q.Order("table_name ASC, field_order ASC, created_at ASC").Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

func (s *Service) Create(ctx context.Context, companyID string, f *models.CustomField) error {
	f.FieldName = strings.TrimSpace(f.FieldName)
	if f.FieldName == "" || !validTable(f.TableName) || !f.FieldType.Valid() {
		return ErrInvalidField
	}
	f.CompanyID = companyID

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.CustomField
		if err := tx.Where("company_id = ? AND table_name = ?", companyID, f.TableName).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) >= MaxFieldsPerTable {
			return ErrTooManyFields
		}
		key := models.NameKey(f.FieldName)
		maxOrder := -1
		for _, e := range existing {
			if e.FieldKey == key {
				return ErrDuplicateField
			}
			if e.FieldOrder > maxOrder {
				maxOrder = e.FieldOrder
			}
		}
		if f.FieldOrder <= 0 {
			f.FieldOrder = maxOrder + 1
		}
		return tx.Create(f).Error
	})
}

// Delete removes a definition. Values already stored under it are left in place.
func (s *Service) Delete(ctx context.Context, companyID, id string) (models.CustomField, error) {
	var f models.CustomField
	if err := s.db.WithContext(ctx).First(&f, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return f, ErrFieldNotFound
		}
		return f, err
	}
	if err := s.db.WithContext(ctx).Delete(&f).Error; err != nil {
		return f, err
	}
	return f, nil
}

// Validate loads the company's current definitions for table and checks data.
func (s *Service) Validate(ctx context.Context, companyID, table string, data map[string]interface{}) (datatypes.JSONMap, error) {
	if len(data) == 0 {
		return datatypes.JSONMap{}, nil
	}
	fields, err := s.List(ctx, companyID, table)
	if err != nil {
		return nil, err
	}
	return Check(fields, data)
}

// Check validates data against fields and returns it keyed by canonical field
// names with normalized values. nil values are dropped.
func Check(fields []models.CustomField, data map[string]interface{}) (datatypes.JSONMap, error) {
	byKey := make(map[string]models.CustomField, len(fields))
	for _, f := range fields {
		byKey[models.NameKey(f.FieldName)] = f
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := datatypes.JSONMap{}
	for _, k := range keys {
		f, ok := byKey[models.NameKey(k)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, k)
		}
		v := data[k]
		if v == nil {
			continue
		}
		norm, err := coerce(f.FieldType, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be %s", ErrInvalidValue, f.FieldName, f.FieldType)
		}
		out[f.FieldName] = norm
	}
	return out, nil
}

func coerce(t models.CustomFieldType, v interface{}) (interface{}, error) {
	switch t {
	case models.FieldText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case models.FieldNumber:
		var (
			f   float64
			err error
		)
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		case int64:
			f = float64(n)
		case json.Number:
			f, err = n.Float64()
		case string:
			f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
		default:
			return nil, ErrInvalidValue
		}
		// JSON has no NaN or Inf
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, ErrInvalidValue
		}
		return f, nil
	case models.FieldDate:
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if _, err := time.Parse("2006-01-02", s); err == nil {
				return s, nil
			}
			if ts, err := time.Parse(time.RFC3339, s); err == nil {
				return ts.Format("2006-01-02"), nil
			}
		}
	case models.FieldBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(strings.TrimSpace(b))
		}
	}
	return nil, ErrInvalidValue
}

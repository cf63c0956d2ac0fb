package models

import (
	"time"

	"gorm.io/gorm"
)

type CustomFieldType string

const (
	FieldText    CustomFieldType = "text"
	FieldNumber  CustomFieldType = "number"
	FieldDate    CustomFieldType = "date"
	FieldBoolean CustomFieldType = "boolean"
)

func (t CustomFieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDate, FieldBoolean:
		return true
	}
	return false
}

// Tables that accept custom_data.
const (
	TableInventoryItems = "inventory_items"
	TableOrders         = "orders"
)

// CustomField is an admin-defined extra attribute for one table of one company.
type CustomField struct {
	ID         string          `gorm:"size:36;primaryKey" json:"id"`
	CompanyID  string          `gorm:"size:36;not null;uniqueIndex:idx_custom_fields_key,priority:1" json:"company_id"`
	TableName  string          `gorm:"column:table_name;size:50;not null;uniqueIndex:idx_custom_fields_key,priority:2" json:"table_name"`
	FieldName  string          `gorm:"size:100;not null" json:"field_name"`
	FieldKey   string          `gorm:"size:100;not null;uniqueIndex:idx_custom_fields_key,priority:3" json:"-"`
	FieldType  CustomFieldType `gorm:"size:20;not null" json:"field_type"`
	FieldOrder int             `gorm:"not null;default:0" json:"field_order"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (f *CustomField) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}

func (f *CustomField) BeforeSave(tx *gorm.DB) error {
	f.FieldKey = NameKey(f.FieldName)
	return nil
}

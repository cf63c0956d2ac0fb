package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"gorm.io/gorm"
)

// Entity types written to the audit log.
const (
	EntityInventoryItem = "inventory_item"
	EntityOrder         = "order"
	EntityShipment      = "shipment"
	EntityCustomer      = "customer"
	EntityCustomField   = "custom_field"
	EntityBranding      = "branding"
)

var (
	ErrAlreadyUndone = errors.New("this change has already been undone")
	ErrNotUndoable   = errors.New("this change cannot be undone")
)

type LogOptions struct {
	CompanyID   string
	UserID      string
	UserName    string
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// WriteLog appends an audit row using db, which may be an open transaction.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	entry := models.AuditLog{
		CompanyID:   opts.CompanyID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log not written: %w", err)
	}
	return nil
}

// undoable entity types. Anything touching stock is ledger history and stays.
var undoable = map[string]bool{
	EntityCustomer:    true,
	EntityCustomField: true,
}

// UndoLog reverts the change recorded by logID and records the undo itself.
func UndoLog(db *gorm.DB, companyID, logID, userID, userName string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.First(&entry, "id = ? AND company_id = ?", logID, companyID).Error; err != nil {
			return fmt.Errorf("log not found: %w", err)
		}
		if entry.IsUndone {
			return ErrAlreadyUndone
		}
		if !undoable[entry.EntityType] {
			return ErrNotUndoable
		}

		var err error
		switch entry.Action {
		case models.AuditActionCreate:
			err = deleteEntity(tx, entry)
		case models.AuditActionUpdate:
			err = restoreEntity(tx, entry)
		case models.AuditActionDelete:
			err = recreateEntity(tx, entry)
		default:
			return ErrNotUndoable
		}
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&entry).Updates(map[string]interface{}{
			"is_undone": true,
			"undone_by": userID,
			"undone_at": now,
		}).Error; err != nil {
			return fmt.Errorf("log not updated: %w", err)
		}

		return WriteLog(tx, LogOptions{
			CompanyID:   entry.CompanyID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: "Undone: " + entry.Description,
			Before:      json.RawMessage(entry.AfterData),
			After:       json.RawMessage(entry.BeforeData),
		})
	})
}

func deleteEntity(tx *gorm.DB, entry models.AuditLog) error {
	switch entry.EntityType {
	case EntityCustomer:
		return tx.Delete(&models.Customer{}, "id = ? AND company_id = ?", entry.EntityID, entry.CompanyID).Error
	case EntityCustomField:
		return tx.Delete(&models.CustomField{}, "id = ? AND company_id = ?", entry.EntityID, entry.CompanyID).Error
	}
	return ErrNotUndoable
}

func restoreEntity(tx *gorm.DB, entry models.AuditLog) error {
	switch entry.EntityType {
	case EntityCustomer:
		var c models.Customer
		if err := json.Unmarshal([]byte(entry.BeforeData), &c); err != nil {
			return err
		}
		return tx.Model(&models.Customer{}).
			Where("id = ? AND company_id = ?", entry.EntityID, entry.CompanyID).
			Updates(map[string]interface{}{
				"name":    c.Name,
				"email":   c.Email,
				"phone":   c.Phone,
				"address": c.Address,
			}).Error
	}
	return ErrNotUndoable
}

func recreateEntity(tx *gorm.DB, entry models.AuditLog) error {
	switch entry.EntityType {
	case EntityCustomer:
		var c models.Customer
		if err := json.Unmarshal([]byte(entry.BeforeData), &c); err != nil {
			return err
		}
		c.CompanyID = entry.CompanyID
		return tx.Create(&c).Error
	case EntityCustomField:
		var f models.CustomField
		if err := json.Unmarshal([]byte(entry.BeforeData), &f); err != nil {
			return err
		}
		f.CompanyID = entry.CompanyID
		return tx.Create(&f).Error
	}
	return ErrNotUndoable
}

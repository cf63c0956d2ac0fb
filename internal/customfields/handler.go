package customfields

import (
	"errors"
	"fmt"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/audit"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/auth"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateFieldRequest struct {
	TableName  string                 `json:"table_name"`
	FieldName  string                 `json:"field_name"`
	FieldType  models.CustomFieldType `json:"field_type"`
	FieldOrder int                    `json:"field_order"`
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidField), errors.Is(err, ErrTooManyFields):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateField):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrFieldNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "custom fields could not be saved")
}

// GET /api/custom-fields?table=inventory_items
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		fields, err := svc.List(c.UserContext(), p.CompanyID, c.Query("table"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "custom fields could not be listed")
		}
		return c.JSON(fields)
	}
}

// POST /api/admin/custom-fields
func CreateHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CreateFieldRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		f := models.CustomField{
			TableName:  body.TableName,
			FieldName:  body.FieldName,
			FieldType:  body.FieldType,
			FieldOrder: body.FieldOrder,
		}
		if err := svc.Create(c.UserContext(), p.CompanyID, &f); err != nil {
			return toFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityCustomField,
			EntityID:    f.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Custom field added: %s.%s (%s)", f.TableName, f.FieldName, f.FieldType),
			After:       f,
		})

		return c.Status(fiber.StatusCreated).JSON(f)
	}
}

// DELETE /api/admin/custom-fields/:id
func DeleteHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		f, err := svc.Delete(c.UserContext(), p.CompanyID, c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityCustomField,
			EntityID:    f.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Custom field removed: %s.%s", f.TableName, f.FieldName),
			Before:      f,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

package shipping

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/audit"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/auth"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/inventory"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ShipmentLineBody struct {
	InventoryItemID string `json:"inventory_item_id"`
	ItemName        string `json:"item_name"`
	Quantity        int    `json:"quantity"`
}

type CreateShipmentBody struct {
	OrderID         string                 `json:"order_id"`
	ShipmentType    models.TransactionType `json:"shipment_type"`
	RecipientName   string                 `json:"recipient_name"`
	RecipientEmail  string                 `json:"recipient_email"`
	RecipientPhone  string                 `json:"recipient_phone"`
	ShippingAddress string                 `json:"shipping_address"`
	ScheduledDate   string                 `json:"scheduled_date"` // "2026-01-31"
	TrackingNumber  string                 `json:"tracking_number"`
	Carrier         string                 `json:"carrier"`
	Notes           string                 `json:"notes"`
	Items           []ShipmentLineBody     `json:"items"`
}

type UpdateStatusBody struct {
	Status         models.ShipmentStatus `json:"status"`
	TrackingNumber string                `json:"tracking_number"`
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrShipmentNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrShipmentLocked):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	ferr := inventory.ToFiberError(err)
	if fe, ok := ferr.(*fiber.Error); ok && fe.Code == fiber.StatusInternalServerError {
		log.Printf("[shipping] %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "shipment could not be saved")
	}
	return ferr
}

// POST /api/shipments
func CreateShipmentHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CreateShipmentBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		req := CreateRequest{
			OrderID:         body.OrderID,
			ShipmentType:    body.ShipmentType,
			RecipientName:   body.RecipientName,
			RecipientEmail:  body.RecipientEmail,
			RecipientPhone:  body.RecipientPhone,
			ShippingAddress: body.ShippingAddress,
			TrackingNumber:  body.TrackingNumber,
			Carrier:         body.Carrier,
			Notes:           body.Notes,
		}
		if body.ScheduledDate != "" {
			d, err := time.Parse("2006-01-02", body.ScheduledDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "scheduled_date must be YYYY-MM-DD")
			}
			req.ScheduledDate = &d
		}
		for _, l := range body.Items {
			req.Items = append(req.Items, LineRequest{
				InventoryItemID: l.InventoryItemID,
				ItemName:        l.ItemName,
				Quantity:        l.Quantity,
			})
		}

		sh, err := svc.Create(c.UserContext(), p.CompanyID, req)
		if err != nil {
			return toFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityShipment,
			EntityID:    sh.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Shipment %s scheduled for %s: %d lines", sh.ShipmentNumber, sh.RecipientName, len(sh.Items)),
			After:       sh,
		})
		return c.Status(fiber.StatusCreated).JSON(sh)
	}
}

// GET /api/shipments?status=scheduled
func ListShipmentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		list, err := svc.List(c.UserContext(), p.CompanyID, models.ShipmentStatus(c.Query("status")))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(list)
	}
}

// GET /api/shipments/stats
func ShipmentStatsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		st, err := svc.Stats(c.UserContext(), p.CompanyID)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(st)
	}
}

// GET /api/shipments/:id
func GetShipmentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		sh, err := svc.Get(c.UserContext(), p.CompanyID, c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(sh)
	}
}

// PATCH /api/shipments/:id/status
func UpdateShipmentStatusHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body UpdateStatusBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		before, after, err := svc.UpdateStatus(c.UserContext(), p.CompanyID, c.Params("id"), body.Status, body.TrackingNumber)
		if err != nil {
			return toFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityShipment,
			EntityID:    after.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Shipment %s: %s -> %s", after.ShipmentNumber, before.Status, after.Status),
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

// DELETE /api/shipments/:id
func DeleteShipmentHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		sh, err := svc.Delete(c.UserContext(), p.CompanyID, c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityShipment,
			EntityID:    sh.ID,
			Action:      models.AuditActionDelete,
			Description: "Shipment deleted: " + sh.ShipmentNumber,
			Before:      sh,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

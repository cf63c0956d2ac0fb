package orders

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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderLineBody struct {
	InventoryItemID string           `json:"inventory_item_id"`
	ItemName        string           `json:"item_name"`
	Quantity        int              `json:"quantity"`
	Price           *decimal.Decimal `json:"price"`
}

type CreateOrderBody struct {
	CustomerID      string                 `json:"customer_id"`
	CustomerName    string                 `json:"customer_name"`
	CustomerEmail   string                 `json:"customer_email"`
	CustomerPhone   string                 `json:"customer_phone"`
	RecipientName   string                 `json:"recipient_name"`
	RecipientEmail  string                 `json:"recipient_email"`
	RecipientPhone  string                 `json:"recipient_phone"`
	ShippingAddress string                 `json:"shipping_address"`
	NeedsShipping   bool                   `json:"needs_shipping"`
	ScheduledDate   string                 `json:"scheduled_date"` // "2026-01-31"
	Carrier         string                 `json:"carrier"`
	Notes           string                 `json:"notes"`
	CustomData      map[string]interface{} `json:"custom_data"`
	Items           []OrderLineBody        `json:"items"`
}

type UpdateStatusBody struct {
	Status models.OrderStatus `json:"status"`
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrOrderActive):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	ferr := inventory.ToFiberError(err)
	if fe, ok := ferr.(*fiber.Error); ok && fe.Code == fiber.StatusInternalServerError {
		log.Printf("[orders] %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "order could not be saved")
	}
	return ferr
}

// POST /api/orders
func CreateOrderHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CreateOrderBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		req := CreateRequest{
			CustomerID:      body.CustomerID,
			CustomerName:    body.CustomerName,
			CustomerEmail:   body.CustomerEmail,
			CustomerPhone:   body.CustomerPhone,
			RecipientName:   body.RecipientName,
			RecipientEmail:  body.RecipientEmail,
			RecipientPhone:  body.RecipientPhone,
			ShippingAddress: body.ShippingAddress,
			NeedsShipping:   body.NeedsShipping,
			Carrier:         body.Carrier,
			Notes:           body.Notes,
			CustomData:      body.CustomData,
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
				Price:           l.Price,
			})
		}

		order, shipment, err := svc.Create(c.UserContext(), p.CompanyID, req)
		if err != nil {
			return toFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityOrder,
			EntityID:    order.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Order %s created: %d lines, total %s", order.OrderNumber, len(order.Items), order.TotalAmount.StringFixed(2)),
			After:       order,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"order":    order,
			"shipment": shipment,
		})
	}
}

// GET /api/orders?status=pending
func ListOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		list, err := svc.List(c.UserContext(), p.CompanyID, models.OrderStatus(c.Query("status")))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(list)
	}
}

// GET /api/orders/pending
func PendingOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		sum, err := svc.Pending(c.UserContext(), p.CompanyID, c.QueryInt("limit", 5))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(sum)
	}
}

// GET /api/orders/stats
func OrderStatsHandler(svc *Service) fiber.Handler {
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

// GET /api/orders/:id
func GetOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		o, err := svc.Get(c.UserContext(), p.CompanyID, c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(o)
	}
}

// PATCH /api/orders/:id/status
func UpdateOrderStatusHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body UpdateStatusBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		before, after, err := svc.UpdateStatus(c.UserContext(), p.CompanyID, c.Params("id"), body.Status)
		if err != nil {
			return toFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityOrder,
			EntityID:    after.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Order %s: %s -> %s", after.OrderNumber, before.Status, after.Status),
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

// DELETE /api/admin/orders/:id
func DeleteOrderHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		o, err := svc.Delete(c.UserContext(), p.CompanyID, c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityOrder,
			EntityID:    o.ID,
			Action:      models.AuditActionDelete,
			Description: "Order deleted: " + o.OrderNumber,
			Before:      o,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

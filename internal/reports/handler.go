package reports

import (
	"errors"
	"log"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func toFiberError(err error) error {
	if errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrCustomerNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	log.Printf("[reports] %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "report could not be built")
}

// GET /api/reports/valuation
func ValuationHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		v, err := svc.Valuation(c.UserContext(), p.CompanyID)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(v)
	}
}

// GET /api/reports/low-stock
func LowStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		items, err := svc.LowStock(c.UserContext(), p.CompanyID)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(items)
	}
}

// GET /api/inventory/:id/history
func ItemHistoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		h, err := svc.ItemHistory(c.UserContext(), p.CompanyID, c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(h)
	}
}

// GET /api/customers/:id/orders
func CustomerOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		h, err := svc.CustomerOrders(c.UserContext(), p.CompanyID, c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(h)
	}
}

// POST /api/admin/reconcile
func ReconcileHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		rec, err := svc.Reconcile(c.UserContext(), p.CompanyID, true)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(rec)
	}
}

// GET /api/admin/reconcile/drifts?limit=100
func ListDriftsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		drifts, err := svc.Drifts(c.UserContext(), p.CompanyID, c.QueryInt("limit", 100))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(drifts)
	}
}

// Package server assembles the HTTP application.
package server

import (
	"log"
	"strings"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/audit"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/auth"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/branding"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/config"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/customers"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/customfields"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/inventory"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/orders"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/reports"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/shipping"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func errorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
		})
	}
	log.Println("Unexpected error:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "unexpected server error",
	})
}

// New wires every handler. rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	fieldSvc := customfields.NewService(db)
	inventorySvc := inventory.NewService(db, fieldSvc)
	orderSvc := orders.NewService(db, fieldSvc)
	shippingSvc := shipping.NewService(db)
	brandingSvc := branding.NewService(db, rdb, cfg.BrandingCacheTTL)
	reportSvc := reports.NewService(db)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-company", auth.RegisterCompanyHandler(cfg, db))
	api.Post("/auth/login", auth.LoginHandler(cfg, db))
	api.Post("/auth/accept-invite", auth.AcceptInviteHandler(cfg, db))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(db))

	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Team
	adminRoutes.Post("/team/invite", auth.InviteHandler(cfg, db))
	adminRoutes.Get("/team", auth.ListTeamHandler(db))

	// Inventory
	protected.Get("/inventory", inventory.ListItemsHandler(inventorySvc))
	protected.Get("/inventory/stats", inventory.StatsHandler(inventorySvc))
	protected.Get("/inventory/export", inventory.ExportHandler(inventorySvc))
	protected.Post("/inventory/actions", inventory.DispatchHandler(inventorySvc, db))
	protected.Post("/inventory/import", inventory.ImportHandler(inventorySvc))
	protected.Get("/inventory/:id/history", reports.ItemHistoryHandler(reportSvc))
	protected.Get("/inventory/:id", inventory.GetItemHandler(inventorySvc))
	protected.Put("/inventory/:id", inventory.UpdateItemHandler(inventorySvc, db))
	adminRoutes.Delete("/inventory/:id", inventory.DeleteItemHandler(inventorySvc, db))

	// Orders
	protected.Post("/orders", orders.CreateOrderHandler(orderSvc, db))
	protected.Get("/orders", orders.ListOrdersHandler(orderSvc))
	protected.Get("/orders/pending", orders.PendingOrdersHandler(orderSvc))
	protected.Get("/orders/stats", orders.OrderStatsHandler(orderSvc))
	protected.Get("/orders/:id", orders.GetOrderHandler(orderSvc))
	protected.Patch("/orders/:id/status", orders.UpdateOrderStatusHandler(orderSvc, db))
	adminRoutes.Delete("/orders/:id", orders.DeleteOrderHandler(orderSvc, db))

	// Shipping
	protected.Post("/shipments", shipping.CreateShipmentHandler(shippingSvc, db))
	protected.Get("/shipments", shipping.ListShipmentsHandler(shippingSvc))
	protected.Get("/shipments/stats", shipping.ShipmentStatsHandler(shippingSvc))
	protected.Get("/shipments/:id", shipping.GetShipmentHandler(shippingSvc))
	protected.Patch("/shipments/:id/status", shipping.UpdateShipmentStatusHandler(shippingSvc, db))
	protected.Delete("/shipments/:id", shipping.DeleteShipmentHandler(shippingSvc, db))

	// Customers
	protected.Get("/customers", customers.ListCustomersHandler(db))
	protected.Get("/customers/stats", customers.CustomerStatsHandler(db))
	protected.Get("/customers/:id/orders", reports.CustomerOrdersHandler(reportSvc))
	protected.Get("/customers/:id", customers.GetCustomerHandler(db))
	protected.Post("/customers", customers.CreateCustomerHandler(db))
	protected.Put("/customers/:id", customers.UpdateCustomerHandler(db))
	protected.Delete("/customers/:id", customers.DeleteCustomerHandler(db))

	// Custom fields
	protected.Get("/custom-fields", customfields.ListHandler(fieldSvc))
	adminRoutes.Post("/custom-fields", customfields.CreateHandler(fieldSvc, db))
	adminRoutes.Delete("/custom-fields/:id", customfields.DeleteHandler(fieldSvc, db))

	// Branding
	protected.Get("/branding", branding.GetBrandingHandler(brandingSvc))
	protected.Post("/branding/reload", branding.ReloadBrandingHandler(brandingSvc))
	adminRoutes.Put("/branding", branding.UpdateBrandingHandler(brandingSvc, db))

	// Reports
	protected.Get("/reports/valuation", reports.ValuationHandler(reportSvc))
	protected.Get("/reports/low-stock", reports.LowStockHandler(reportSvc))
	adminRoutes.Post("/reconcile", reports.ReconcileHandler(reportSvc))
	adminRoutes.Get("/reconcile/drifts", reports.ListDriftsHandler(reportSvc))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(db))
	adminRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler(db))

	return app
}

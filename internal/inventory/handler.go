package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/audit"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/auth"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/customfields"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/ledger"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ActionBody struct {
	Action       models.TransactionType `json:"action"`
	ItemID       string                 `json:"item_id"`
	Name         string                 `json:"name"`
	Quantity     int                    `json:"quantity"`
	Category     models.ItemCategory    `json:"category"`
	Unit         string                 `json:"unit"`
	ReorderLevel *int                   `json:"reorder_level"`
	Price        *decimal.Decimal       `json:"price"`
	CustomData   map[string]interface{} `json:"custom_data"`
	Notes        string                 `json:"notes"`
}

type UpdateItemBody struct {
	Name         *string                `json:"name"`
	Category     *models.ItemCategory   `json:"category"`
	Unit         *string                `json:"unit"`
	ReorderLevel *int                   `json:"reorder_level"`
	Price        *decimal.Decimal       `json:"price"`
	CustomData   map[string]interface{} `json:"custom_data"`
}

// ToFiberError maps inventory, ledger and custom field errors to HTTP errors.
func ToFiberError(err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ledger.ErrNegativeMagnitude),
		errors.Is(err, ledger.ErrMagnitudeTooLarge),
		errors.Is(err, ledger.ErrInvalidAction),
		errors.Is(err, customfields.ErrUnknownField),
		errors.Is(err, customfields.ErrInvalidValue):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrItemNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrItemExists), errors.Is(err, ErrItemInUse):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInsufficientStock):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	log.Printf("[inventory] %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "inventory could not be updated")
}

// GET /api/inventory?category=raw&status=low_stock&q=flour
func ListItemsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		items, err := svc.List(c.UserContext(), p.CompanyID, Filter{
			Category: models.ItemCategory(c.Query("category")),
			Status:   ledger.StockStatus(c.Query("status")),
			Query:    c.Query("q"),
		})
		if err != nil {
			return ToFiberError(err)
		}
		return c.JSON(items)
	}
}

// GET /api/inventory/stats
func StatsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		st, err := svc.Stats(c.UserContext(), p.CompanyID)
		if err != nil {
			return ToFiberError(err)
		}
		return c.JSON(st)
	}
}

// GET /api/inventory/:id
func GetItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		v, err := svc.View(c.UserContext(), p.CompanyID, c.Params("id"))
		if err != nil {
			return ToFiberError(err)
		}
		return c.JSON(v)
	}
}

// POST /api/inventory/actions
// add_new answers 201, adjustments 200.
func DispatchHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body ActionBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Action == "" {
			return fiber.NewError(fiber.StatusBadRequest, "action is required")
		}
		if body.ItemID == "" && strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "item_id or name is required")
		}

		req := ActionRequest{
			Action:     body.Action,
			ItemID:     body.ItemID,
			Name:       body.Name,
			Quantity:   body.Quantity,
			Category:   body.Category,
			Unit:       body.Unit,
			CustomData: body.CustomData,
			Notes:      body.Notes,
		}
		if body.Action == models.TxAddNew {
			if body.ReorderLevel == nil || body.Price == nil {
				return fiber.NewError(fiber.StatusBadRequest, "reorder_level and price are required for add_new")
			}
			req.ReorderLevel = *body.ReorderLevel
			req.Price = *body.Price
		}

		res, err := svc.Dispatch(c.UserContext(), p.CompanyID, req)
		if err != nil {
			return ToFiberError(err)
		}

		if res.Created {
			_ = audit.WriteLog(db, audit.LogOptions{
				CompanyID:   p.CompanyID,
				UserID:      p.UserID,
				UserName:    p.UserName,
				EntityType:  audit.EntityInventoryItem,
				EntityID:    res.Item.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Item added: %s (%d %s)", res.Item.Name, res.Item.Quantity, res.Item.Unit),
				After:       res.Item,
			})
			return c.Status(fiber.StatusCreated).JSON(res)
		}
		return c.JSON(res)
	}
}

// PUT /api/inventory/:id
func UpdateItemHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body UpdateItemBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		before, after, err := svc.Update(c.UserContext(), p.CompanyID, c.Params("id"), UpdateRequest{
			Name:         body.Name,
			Category:     body.Category,
			Unit:         body.Unit,
			ReorderLevel: body.ReorderLevel,
			Price:        body.Price,
			CustomData:   body.CustomData,
		})
		if err != nil {
			return ToFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityInventoryItem,
			EntityID:    after.ID,
			Action:      models.AuditActionUpdate,
			Description: "Item updated: " + after.Name,
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

// DELETE /api/admin/inventory/:id
func DeleteItemHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		item, err := svc.Delete(c.UserContext(), p.CompanyID, c.Params("id"))
		if err != nil {
			return ToFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityInventoryItem,
			EntityID:    item.ID,
			Action:      models.AuditActionDelete,
			Description: "Item deleted: " + item.Name,
			Before:      item,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/inventory/import (multipart, field "file")
func ImportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file upload failed: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "file could not be opened")
		}
		defer file.Close()

		rows, bad, err := ParseRestockSheet(file)
		if err != nil {
			return ToFiberError(err)
		}
		if len(bad) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "spreadsheet has invalid rows",
				"rows":  bad,
			})
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "spreadsheet has no rows")
		}

		results, err := svc.ImportRestock(c.UserContext(), p.CompanyID, rows)
		if err != nil {
			var re *RowError
			if errors.As(err, &re) {
				status := ToFiberError(re.Err).(*fiber.Error).Code
				return c.Status(status).JSON(fiber.Map{
					"error": "import aborted, nothing was saved",
					"rows":  []RowError{*re},
				})
			}
			return ToFiberError(err)
		}
		return c.JSON(fiber.Map{
			"imported": len(results),
			"results":  results,
		})
	}
}

// GET /api/inventory/export
func ExportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		items, err := svc.List(c.UserContext(), p.CompanyID, Filter{})
		if err != nil {
			return ToFiberError(err)
		}

		var buf bytes.Buffer
		if err := WriteWorkbook(&buf, items); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "workbook could not be written")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="inventory-%s.xlsx"`, time.Now().Format("2006-01-02")))
		return c.Send(buf.Bytes())
	}
}

package customers

import (
	"errors"
	"strings"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/audit"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/auth"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type StatsResponse struct {
	Total       int64 `json:"total"`
	WithEmail   int64 `json:"with_email"`
	WithPhone   int64 `json:"with_phone"`
	WithAddress int64 `json:"with_address"`
}

func findCustomer(db *gorm.DB, companyID, id string) (models.Customer, error) {
	var cust models.Customer
	err := db.First(&cust, "id = ? AND company_id = ?", id, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cust, fiber.NewError(fiber.StatusNotFound, "customer not found")
	}
	if err != nil {
		return cust, fiber.NewError(fiber.StatusInternalServerError, "customer could not be loaded")
	}
	return cust, nil
}

// GET /api/customers?q=acme
func ListCustomersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		dbq := db.Where("company_id = ?", p.CompanyID)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
		}

		var list []models.Customer
		if err := dbq.Order("name ASC").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "customers could not be listed")
		}
		return c.JSON(list)
	}
}

// GET /api/customers/stats
func CustomerStatsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var st StatsResponse
		base := func() *gorm.DB { return db.Model(&models.Customer{}).Where("company_id = ?", p.CompanyID) }
		if err := base().Count(&st.Total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "customer stats could not be computed")
		}
		base().Where("email <> ''").Count(&st.WithEmail)
		base().Where("phone <> ''").Count(&st.WithPhone)
		base().Where("address <> ''").Count(&st.WithAddress)
		return c.JSON(st)
	}
}

// GET /api/customers/:id
func GetCustomerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		cust, err := findCustomer(db, p.CompanyID, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(cust)
	}
}

// POST /api/customers
func CreateCustomerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		cust := models.Customer{
			CompanyID: p.CompanyID,
			Name:      body.Name,
			Email:     strings.TrimSpace(strings.ToLower(body.Email)),
			Phone:     strings.TrimSpace(body.Phone),
			Address:   strings.TrimSpace(body.Address),
		}
		if err := db.Create(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "customer could not be created")
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityCustomer,
			EntityID:    cust.ID,
			Action:      models.AuditActionCreate,
			Description: "Customer added: " + cust.Name,
			After:       cust,
		})
		return c.Status(fiber.StatusCreated).JSON(cust)
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body UpdateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		before, err := findCustomer(db, p.CompanyID, c.Params("id"))
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name is required")
			}
			updates["name"] = name
		}
		if body.Email != nil {
			updates["email"] = strings.TrimSpace(strings.ToLower(*body.Email))
		}
		if body.Phone != nil {
			updates["phone"] = strings.TrimSpace(*body.Phone)
		}
		if body.Address != nil {
			updates["address"] = strings.TrimSpace(*body.Address)
		}
		if len(updates) == 0 {
			return c.JSON(before)
		}

		if err := db.Model(&models.Customer{}).Where("id = ?", before.ID).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "customer could not be updated")
		}
		after, err := findCustomer(db, p.CompanyID, before.ID)
		if err != nil {
			return err
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityCustomer,
			EntityID:    after.ID,
			Action:      models.AuditActionUpdate,
			Description: "Customer updated: " + after.Name,
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

// DELETE /api/customers/:id
// Orders keep their customer snapshot; only the link is cleared.
func DeleteCustomerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		cust, err := findCustomer(db, p.CompanyID, c.Params("id"))
		if err != nil {
			return err
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Order{}).Where("customer_id = ?", cust.ID).Update("customer_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Customer{}, "id = ?", cust.ID).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "customer could not be deleted")
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityCustomer,
			EntityID:    cust.ID,
			Action:      models.AuditActionDelete,
			Description: "Customer deleted: " + cust.Name,
			Before:      cust,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

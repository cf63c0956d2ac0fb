package branding

import (
	"errors"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/audit"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/auth"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpdateBrandingRequest struct {
	PrimaryColor *string `json:"primary_color"`
	AccentColor  *string `json:"accent_color"`
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidColor):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCompanyNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "branding could not be loaded")
}

// GET /api/branding
func GetBrandingHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		t, err := svc.Load(c.UserContext(), p.CompanyID)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(t)
	}
}

// POST /api/branding/reload
func ReloadBrandingHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		t, err := svc.Reload(c.UserContext(), p.CompanyID)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(t)
	}
}

// PUT /api/admin/branding
func UpdateBrandingHandler(svc *Service, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body UpdateBrandingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		before, after, err := svc.Update(c.UserContext(), p.CompanyID, body.PrimaryColor, body.AccentColor)
		if err != nil {
			return toFiberError(err)
		}

		_ = audit.WriteLog(db, audit.LogOptions{
			CompanyID:   p.CompanyID,
			UserID:      p.UserID,
			UserName:    p.UserName,
			EntityType:  audit.EntityBranding,
			EntityID:    p.CompanyID,
			Action:      models.AuditActionUpdate,
			Description: "Branding colors changed",
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

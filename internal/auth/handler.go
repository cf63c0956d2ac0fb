package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/config"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 8

type RegisterCompanyRequest struct {
	CompanyName   string `json:"company_name"`
	CompanyDomain string `json:"company_domain"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type InviteRequest struct {
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

type AcceptInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CompanyID string          `json:"company_id"`
	Pending   bool            `json:"pending"`
	CreatedAt string          `json:"created_at"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		Pending:   u.Pending(),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// POST /api/auth/register-company
// Creates a tenant together with its first admin.
func RegisterCompanyHandler(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterCompanyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = normalizeEmail(body.Email)
		body.CompanyName = strings.TrimSpace(body.CompanyName)
		body.Name = strings.TrimSpace(body.Name)

		if body.CompanyName == "" || body.Email == "" || body.Name == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "company_name, name, email and password are required")
		}
		if len(body.Password) < minPasswordLen {
			return fiber.NewError(fiber.StatusBadRequest, "password must be at least 8 characters")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "password could not be hashed")
		}

		var user models.User
		err = db.Transaction(func(tx *gorm.DB) error {
			var count int64
			tx.Model(&models.Company{}).Where("name = ?", body.CompanyName).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "a company with this name already exists")
			}
			tx.Model(&models.User{}).Where("email = ?", body.Email).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "this email is already registered")
			}

			company := models.Company{Name: body.CompanyName, Domain: strings.TrimSpace(body.CompanyDomain)}
			if err := tx.Create(&company).Error; err != nil {
				return err
			}
			user = models.User{
				CompanyID:    company.ID,
				Name:         body.Name,
				Email:        body.Email,
				PasswordHash: string(hash),
				Role:         models.RoleAdmin,
			}
			return tx.Create(&user).Error
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "company could not be created")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "token could not be created")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

func LoginHandler(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = normalizeEmail(body.Email)

		var user models.User
		if err := db.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
		}
		if user.Pending() {
			return fiber.NewError(fiber.StatusUnauthorized, "invitation has not been accepted yet")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "token could not be created")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := CurrentUser(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := db.Preload("Company").First(&user, "id = ? AND company_id = ?", p.UserID, p.CompanyID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}

		resp := fiber.Map{"user": toUserResponse(user)}
		if user.Company != nil {
			resp["company"] = fiber.Map{
				"id":     user.Company.ID,
				"name":   user.Company.Name,
				"domain": user.Company.Domain,
			}
		}
		return c.JSON(resp)
	}
}

// POST /api/admin/team/invite
// Creates a pending user and returns the invitation token. Delivering the
// token by e-mail is left to the caller.
func InviteHandler(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := CurrentUser(c)
		if err != nil {
			return err
		}

		var body InviteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Email = normalizeEmail(body.Email)
		body.Name = strings.TrimSpace(body.Name)
		if body.Role == "" {
			body.Role = models.RoleMember
		}
		if body.Email == "" || !strings.Contains(body.Email, "@") {
			return fiber.NewError(fiber.StatusBadRequest, "a valid email is required")
		}
		if !body.Role.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "role must be admin or member")
		}
		if body.Name == "" {
			body.Name = body.Email
		}

		var count int64
		db.Model(&models.User{}).Where("email = ?", body.Email).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "this email is already registered")
		}

		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		expires := time.Now().Add(cfg.InviteTTL)
		user := models.User{
			CompanyID:       p.CompanyID,
			Name:            body.Name,
			Email:           body.Email,
			Role:            body.Role,
			InviteToken:     &token,
			InviteExpiresAt: &expires,
		}
		if err := db.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "invitation could not be created")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"user":         toUserResponse(user),
			"invite_token": token,
			"expires_at":   expires.Format(time.RFC3339),
		})
	}
}

// POST /api/auth/accept-invite
func AcceptInviteHandler(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AcceptInviteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Token == "" {
			return fiber.NewError(fiber.StatusBadRequest, "token is required")
		}
		if len(body.Password) < minPasswordLen {
			return fiber.NewError(fiber.StatusBadRequest, "password must be at least 8 characters")
		}

		var user models.User
		if err := db.Where("invite_token = ?", body.Token).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "invitation not found")
		}
		if user.InviteExpiresAt != nil && time.Now().After(*user.InviteExpiresAt) {
			return fiber.NewError(fiber.StatusGone, "invitation has expired")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "password could not be hashed")
		}

		if err := db.Model(&user).Updates(map[string]interface{}{
			"password_hash":     string(hash),
			"invite_token":      nil,
			"invite_expires_at": nil,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "invitation could not be accepted")
		}
		user.PasswordHash = string(hash)

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "token could not be created")
		}
		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

// GET /api/admin/team
func ListTeamHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := CurrentUser(c)
		if err != nil {
			return err
		}

		var users []models.User
		if err := db.Where("company_id = ?", p.CompanyID).Order("created_at ASC").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "team could not be listed")
		}

		resp := make([]UserResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, toUserResponse(u))
		}
		return c.JSON(resp)
	}
}

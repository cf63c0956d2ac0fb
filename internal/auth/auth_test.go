package auth_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/auth"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/database/dbtest"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"
)

func status(t *testing.T, app *fiber.App, method, path, bearer, body string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp.StatusCode
}

func TestJWTMiddlewareAndRoles(t *testing.T) {
	db := dbtest.New(t)
	cfg := dbtest.Config()
	co := dbtest.Company(t, db, "Duck Co")
	admin := dbtest.User(t, db, co.ID, "admin@duck.test", models.RoleAdmin)
	member := dbtest.User(t, db, co.ID, "member@duck.test", models.RoleMember)

	app := fiber.New()
	api := app.Group("/api", auth.JWTMiddleware(cfg))
	api.Get("/whoami", func(c *fiber.Ctx) error {
		p, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		return c.SendString(p.CompanyID)
	})
	api.Get("/admin/ping", auth.RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	other := *cfg
	other.JWTSecret = strings.Repeat("z", 32)
	forged := dbtest.Bearer(t, &other, admin)

	cases := []struct {
		name   string
		path   string
		bearer string
		want   int
	}{
		{"no header", "/api/whoami", "", fiber.StatusUnauthorized},
		{"not bearer", "/api/whoami", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "/api/whoami", "Bearer abc.def.ghi", fiber.StatusUnauthorized},
		{"wrong secret", "/api/whoami", forged, fiber.StatusUnauthorized},
		{"member reads", "/api/whoami", dbtest.Bearer(t, cfg, member), fiber.StatusOK},
		{"member on admin route", "/api/admin/ping", dbtest.Bearer(t, cfg, member), fiber.StatusForbidden},
		{"admin on admin route", "/api/admin/ping", dbtest.Bearer(t, cfg, admin), fiber.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := status(t, app, fiber.MethodGet, tc.path, tc.bearer, ""); got != tc.want {
				t.Errorf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestLoginAndInvites(t *testing.T) {
	db := dbtest.New(t)
	cfg := dbtest.Config()
	co := dbtest.Company(t, db, "Duck Co")

	hash, err := bcrypt.GenerateFromPassword([]byte("quackquack"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	u := models.User{CompanyID: co.ID, Name: "Ada", Email: "ada@duck.test", PasswordHash: string(hash), Role: models.RoleAdmin}
	if err := db.Create(&u).Error; err != nil {
		t.Fatal(err)
	}

	expired := time.Now().Add(-time.Hour)
	stale := "stale-token"
	pending := models.User{CompanyID: co.ID, Name: "Bo", Email: "bo@duck.test", Role: models.RoleMember, InviteToken: &stale, InviteExpiresAt: &expired}
	if err := db.Create(&pending).Error; err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	app.Post("/login", auth.LoginHandler(cfg, db))
	app.Post("/accept", auth.AcceptInviteHandler(cfg, db))

	if got := status(t, app, fiber.MethodPost, "/login", "", `{"email":" ADA@duck.test ","password":"quackquack"}`); got != fiber.StatusOK {
		t.Errorf("login status = %d", got)
	}
	if got := status(t, app, fiber.MethodPost, "/login", "", `{"email":"ada@duck.test","password":"nope"}`); got != fiber.StatusUnauthorized {
		t.Errorf("wrong password status = %d", got)
	}
	if got := status(t, app, fiber.MethodPost, "/login", "", `{"email":"bo@duck.test","password":"whatever1"}`); got != fiber.StatusUnauthorized {
		t.Errorf("pending login status = %d", got)
	}
	if got := status(t, app, fiber.MethodPost, "/accept", "", `{"token":"stale-token","password":"longenough"}`); got != fiber.StatusGone {
		t.Errorf("expired invite status = %d", got)
	}
	if got := status(t, app, fiber.MethodPost, "/accept", "", `{"token":"missing","password":"longenough"}`); got != fiber.StatusNotFound {
		t.Errorf("unknown invite status = %d", got)
	}
	if got := status(t, app, fiber.MethodPost, "/accept", "", `{"token":"stale-token","password":"short"}`); got != fiber.StatusBadRequest {
		t.Errorf("short password status = %d", got)
	}
}

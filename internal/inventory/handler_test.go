package inventory

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/auth"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/customfields"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/database/dbtest"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/gofiber/fiber/v2"
)

type harness struct {
	app    *fiber.App
	admin  string
	member string
	other  string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	db := dbtest.New(t)
	cfg := dbtest.Config()
	company := dbtest.Company(t, db, "Duck Co")
	rival := dbtest.Company(t, db, "Goose Co")
	admin := dbtest.User(t, db, company.ID, "admin@duck.test", models.RoleAdmin)
	member := dbtest.User(t, db, company.ID, "member@duck.test", models.RoleMember)
	other := dbtest.User(t, db, rival.ID, "admin@goose.test", models.RoleAdmin)

	svc := NewService(db, customfields.NewService(db))
	app := fiber.New()
	api := app.Group("/api", auth.JWTMiddleware(cfg))
	api.Get("/inventory", ListItemsHandler(svc))
	api.Get("/inventory/stats", StatsHandler(svc))
	api.Get("/inventory/export", ExportHandler(svc))
	api.Post("/inventory/actions", DispatchHandler(svc, db))
	api.Post("/inventory/import", ImportHandler(svc))
	api.Get("/inventory/:id", GetItemHandler(svc))
	api.Put("/inventory/:id", UpdateItemHandler(svc, db))
	api.Delete("/admin/inventory/:id", auth.RequireRole(models.RoleAdmin), DeleteItemHandler(svc, db))

	return harness{
		app:    app,
		admin:  dbtest.Bearer(t, cfg, admin),
		member: dbtest.Bearer(t, cfg, member),
		other:  dbtest.Bearer(t, cfg, other),
	}
}

func (h harness) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	resp, err := h.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func TestDispatchHandlerStatusCodes(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, "POST", "/api/inventory/actions", h.member, fiber.Map{
		"action": "add_new", "name": "Flour", "quantity": 20, "category": "raw", "unit": "kg", "reorder_level": 5, "price": "2.10",
	})
	if code != fiber.StatusCreated {
		t.Fatalf("add_new: %d %s", code, body)
	}
	var created ActionResult
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		body fiber.Map
		want int
	}{
		{"restock", fiber.Map{"action": "restock", "name": "flour", "quantity": 5}, fiber.StatusOK},
		{"duplicate", fiber.Map{"action": "add_new", "name": "FLOUR", "category": "raw", "unit": "kg", "reorder_level": 0, "price": 1}, fiber.StatusConflict},
		{"add_new without price", fiber.Map{"action": "add_new", "name": "Rye", "category": "raw", "unit": "kg", "reorder_level": 2}, fiber.StatusBadRequest},
		{"add_new without reorder level", fiber.Map{"action": "add_new", "name": "Rye", "category": "raw", "unit": "kg", "price": 1}, fiber.StatusBadRequest},
		{"huge restock", fiber.Map{"action": "restock", "name": "Flour", "quantity": int64(1) << 40}, fiber.StatusBadRequest},
		{"overdraw", fiber.Map{"action": "sample", "name": "Flour", "quantity": 500}, fiber.StatusUnprocessableEntity},
		{"system action", fiber.Map{"action": "order", "name": "Flour", "quantity": 1}, fiber.StatusBadRequest},
		{"negative", fiber.Map{"action": "restock", "name": "Flour", "quantity": -3}, fiber.StatusBadRequest},
		{"missing item", fiber.Map{"action": "restock", "name": "Rye", "quantity": 1}, fiber.StatusNotFound},
		{"no target", fiber.Map{"action": "restock", "quantity": 1}, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		if code, body := h.do(t, "POST", "/api/inventory/actions", h.member, tc.body); code != tc.want {
			t.Errorf("%s: got %d (%s), want %d", tc.name, code, body, tc.want)
		}
	}

	code, body = h.do(t, "GET", "/api/inventory/"+created.Item.ID, h.member, nil)
	if code != fiber.StatusOK {
		t.Fatalf("get: %d", code)
	}
	var view ItemView
	json.Unmarshal(body, &view)
	if view.Quantity != 25 {
		t.Errorf("quantity = %d", view.Quantity)
	}

	if code, _ := h.do(t, "GET", "/api/inventory/"+created.Item.ID, h.other, nil); code != fiber.StatusNotFound {
		t.Errorf("other company read: got %d", code)
	}
	if code, _ := h.do(t, "DELETE", "/api/admin/inventory/"+created.Item.ID, h.member, nil); code != fiber.StatusForbidden {
		t.Errorf("member delete: got %d", code)
	}
	if code, _ := h.do(t, "DELETE", "/api/admin/inventory/"+created.Item.ID, h.admin, nil); code != fiber.StatusNoContent {
		t.Errorf("admin delete: got %d", code)
	}
}

func TestUpdateHandlerIgnoresQuantity(t *testing.T) {
	h := newHarness(t)
	_, body := h.do(t, "POST", "/api/inventory/actions", h.member, fiber.Map{
		"action": "add_new", "name": "Oats", "quantity": 7, "category": "raw", "unit": "kg", "reorder_level": 1, "price": 1,
	})
	var created ActionResult
	json.Unmarshal(body, &created)

	code, body := h.do(t, "PUT", "/api/inventory/"+created.Item.ID, h.member, fiber.Map{"unit": "bag", "quantity": 999})
	if code != fiber.StatusOK {
		t.Fatalf("update: %d %s", code, body)
	}
	var item models.InventoryItem
	json.Unmarshal(body, &item)
	if item.Unit != "bag" || item.Quantity != 7 {
		t.Errorf("item = %+v", item)
	}
}

func TestImportAndExportHandlers(t *testing.T) {
	h := newHarness(t)
	h.do(t, "POST", "/api/inventory/actions", h.member, fiber.Map{
		"action": "add_new", "name": "Flour", "quantity": 1, "category": "raw", "unit": "kg", "reorder_level": 1, "price": 1,
	})

	upload := func(rows ...[]interface{}) int {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, _ := w.CreateFormFile("file", "restock.xlsx")
		part.Write(sheet(t, rows...).Bytes())
		w.Close()

		req := httptest.NewRequest("POST", "/api/inventory/import", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", h.member)
		resp, err := h.app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		return resp.StatusCode
	}

	if code := upload([]interface{}{"Name", "Qty"}, []interface{}{"Flour", "x"}); code != fiber.StatusBadRequest {
		t.Errorf("bad quantity: got %d", code)
	}
	if code := upload([]interface{}{"Barley", 3}); code != fiber.StatusNotFound {
		t.Errorf("unknown item: got %d", code)
	}
	if code := upload([]interface{}{"flour", 9}); code != fiber.StatusOK {
		t.Errorf("import: got %d", code)
	}

	req := httptest.NewRequest("GET", "/api/inventory/export", nil)
	req.Header.Set("Authorization", h.member)
	resp, err := h.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}

	_, body := h.do(t, "GET", "/api/inventory?q=flour", h.member, nil)
	var items []ItemView
	json.Unmarshal(body, &items)
	if len(items) != 1 || items[0].Quantity != 10 {
		t.Errorf("items after import = %+v", items)
	}
}

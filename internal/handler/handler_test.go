package handler

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

type envelope struct {
	Success      bool                `json:"success"`
	Error        string              `json:"error"`
	Code         interface{}         `json:"code"`
	Message      string              `json:"message"`
	Count        int                 `json:"count"`
	CurrentStock int                 `json:"current_stock"`
	Requested    int                 `json:"requested"`
	Data         jsoniter.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(model.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	uow := repository.NewUnitOfWork(db)
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	users := service.NewUserService(userRepo, repository.NewPrivilegeRepo(db), repository.NewRoleRepo(db))
	if err := users.SeedDefaults("admin123"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	hub := ws.NewHub()
	ledger := service.NewLedgerService(uow, productRepo, txRepo, hub)
	products := service.NewProductService(uow, productRepo, txRepo, hub)
	inventory := service.NewInventoryService(repository.NewInventoryRepo(db), ledger)

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	RegisterRoutes(app, Services{
		Auth:                service.NewAuthService(userRepo),
		Users:               users,
		Products:            products,
		Ledger:              ledger,
		Inventory:           inventory,
		Dashboard:           service.NewDashboardService(txRepo, inventory, ledger),
		Exports:             service.NewExportService(products, ledger, inventory),
		Backups:             service.NewBackupService(db, config.DatabaseConfig{Driver: config.DriverSQLite}, t.TempDir()),
		Activity:            service.NewActivityLogService(repository.NewActivityLogRepo(db)),
		BackupRetentionDays: 30,
	})
	return &testServer{app: app, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"username": username, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d (%s)", username, status, env.Error)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login %s: no token in %s", username, env.Data)
	}
	return data.Token
}

func (s *testServer) createProduct(t *testing.T, token, uniqueCode string, minStock int) model.Product {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/products", token, fiber.Map{
		"unique_code": uniqueCode,
		"name":        "Product " + uniqueCode,
		"unit":        "ea",
		"unit_price":  "1500",
		"min_stock":   minStock,
	})
	if status != http.StatusCreated {
		t.Fatalf("create product: status %d (%s)", status, env.Error)
	}
	var p model.Product
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	return p
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, http.MethodGet, "/api/health", "", nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("health: status %d success %v", status, env.Success)
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/products", "", nil)
	if status != http.StatusUnauthorized || env.Code != string(service.KindUnauthorized) {
		t.Fatalf("no token: status %d code %v", status, env.Code)
	}

	status, env = s.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"username": "admin", "password": "wrong"})
	if status != http.StatusUnauthorized || env.Success {
		t.Fatalf("bad password: status %d", status)
	}

	token := s.login(t, "admin", "admin123")
	status, env = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me: status %d (%s)", status, env.Error)
	}

	// a second login ends the first session
	second := s.login(t, "admin", "admin123")
	if status, _ = s.do(t, http.MethodGet, "/api/auth/me", token, nil); status != http.StatusUnauthorized {
		t.Fatalf("stale token: got %d, want 401", status)
	}

	if status, env = s.do(t, http.MethodPost, "/api/auth/logout", second, nil); status != http.StatusOK {
		t.Fatalf("logout: status %d (%s)", status, env.Error)
	}
	if status, _ = s.do(t, http.MethodGet, "/api/auth/me", second, nil); status != http.StatusUnauthorized {
		t.Fatalf("after logout: got %d, want 401", status)
	}

	var logins int64
	s.db.Model(&model.ActivityLog{}).Where("action_type = ?", model.ActionLogin).Count(&logins)
	if logins != 2 {
		t.Fatalf("login audit entries = %d, want 2", logins)
	}
}

func TestRefreshToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin123")

	status, env := s.do(t, http.MethodPost, "/api/auth/refresh", token, nil)
	if status != http.StatusOK {
		t.Fatalf("refresh: status %d (%s)", status, env.Error)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("refresh: no token in %s", env.Data)
	}
	if status, _ = s.do(t, http.MethodGet, "/api/auth/me", data.Token, nil); status != http.StatusOK {
		t.Fatalf("refreshed token: got %d, want 200", status)
	}
	if status, _ = s.do(t, http.MethodGet, "/api/auth/me", token, nil); status != http.StatusUnauthorized {
		t.Fatalf("old token: got %d, want 401", status)
	}
	if status, _ = s.do(t, http.MethodPost, "/api/auth/refresh", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("refresh without token: got %d, want 401", status)
	}
}

func TestOwnActivityHistory(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123")

	var role model.Role
	if err := s.db.Where("code = ?", model.RoleUser).First(&role).Error; err != nil {
		t.Fatalf("find role: %v", err)
	}
	status, env := s.do(t, http.MethodPost, "/api/users", admin, fiber.Map{
		"username":  "clerk",
		"email":     "clerk@example.com",
		"password":  "clerk123",
		"full_name": "Stock Clerk",
		"role_id":   role.ID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create user: status %d (%s)", status, env.Error)
	}
	var clerkUser, adminUser model.User
	s.db.Where("username = ?", "clerk").First(&clerkUser)
	s.db.Where("username = ?", "admin").First(&adminUser)

	clerk := s.login(t, "clerk", "clerk123")
	status, env = s.do(t, http.MethodGet, "/api/activity-logs/user/"+cast.ToString(clerkUser.ID), clerk, nil)
	if status != http.StatusOK {
		t.Fatalf("own history: status %d (%s)", status, env.Error)
	}
	if env.Count != 1 {
		t.Fatalf("own history: count %d, want the single login", env.Count)
	}

	status, env = s.do(t, http.MethodGet, "/api/activity-logs/user/"+cast.ToString(adminUser.ID), clerk, nil)
	if status != http.StatusForbidden || env.Code != string(service.KindForbidden) {
		t.Fatalf("other user's history: status %d code %v, want 403", status, env.Code)
	}

	status, env = s.do(t, http.MethodGet, "/api/activity-logs/user/"+cast.ToString(clerkUser.ID), admin, nil)
	if status != http.StatusOK || env.Count != 1 {
		t.Fatalf("admin reading clerk history: status %d count %d", status, env.Count)
	}
}

func TestPrivilegesAreEnforced(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123")

	var role model.Role
	if err := s.db.Where("code = ?", model.RoleUser).First(&role).Error; err != nil {
		t.Fatalf("find role: %v", err)
	}
	status, env := s.do(t, http.MethodPost, "/api/users", admin, fiber.Map{
		"username":  "clerk",
		"email":     "clerk@example.com",
		"password":  "clerk123",
		"full_name": "Stock Clerk",
		"role_id":   role.ID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create user: status %d (%s)", status, env.Error)
	}

	clerk := s.login(t, "clerk", "clerk123")
	if status, env = s.do(t, http.MethodGet, "/api/products", clerk, nil); status != http.StatusOK {
		t.Fatalf("clerk products: status %d (%s)", status, env.Error)
	}
	for _, path := range []string{"/api/backups", "/api/activity-logs", "/api/users"} {
		status, env = s.do(t, http.MethodGet, path, clerk, nil)
		if path == "/api/users" {
			// user:view is not admin-only
			if status != http.StatusOK {
				t.Fatalf("GET %s: status %d", path, status)
			}
			continue
		}
		if status != http.StatusForbidden || env.Code != string(service.KindForbidden) {
			t.Fatalf("GET %s: status %d code %v, want 403 FORBIDDEN", path, status, env.Code)
		}
	}
	if status, _ = s.do(t, http.MethodPost, "/api/transactions/recompute", clerk, nil); status != http.StatusForbidden {
		t.Fatalf("clerk recompute: got %d, want 403", status)
	}
}

func TestLedgerEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin123")
	p := s.createProduct(t, token, "SKU-1", 5)
	if p.InternalCode != model.FormatInternalCode(1) || p.CurrentStock != 0 {
		t.Fatalf("created product = %+v", p)
	}

	status, env := s.do(t, http.MethodPost, "/api/transactions/inbound", token, fiber.Map{
		"product_id": p.ID, "quantity": 10, "transaction_date": "2025-03-01",
	})
	if status != http.StatusCreated {
		t.Fatalf("inbound: status %d (%s)", status, env.Error)
	}

	status, env = s.do(t, http.MethodPost, "/api/transactions/outbound", token, fiber.Map{
		"product_id": p.ID, "quantity": 11,
	})
	if status != http.StatusBadRequest || env.Code != string(service.KindInsufficientStock) {
		t.Fatalf("oversell: status %d code %v", status, env.Code)
	}
	if env.CurrentStock != 10 || env.Requested != 11 {
		t.Fatalf("oversell details: current %d requested %d", env.CurrentStock, env.Requested)
	}

	status, env = s.do(t, http.MethodPost, "/api/transactions/outbound", token, fiber.Map{
		"product_id": p.ID, "quantity": 7, "reason": "sale",
	})
	if status != http.StatusCreated {
		t.Fatalf("outbound: status %d (%s)", status, env.Error)
	}

	status, env = s.do(t, http.MethodGet, "/api/transactions?type=outbound", token, nil)
	if status != http.StatusOK || env.Count != 1 {
		t.Fatalf("list outbound: status %d count %d", status, env.Count)
	}

	status, env = s.do(t, http.MethodGet, "/api/inventory/low-stock", token, nil)
	if status != http.StatusOK || env.Count != 1 {
		t.Fatalf("low stock: status %d count %d", status, env.Count)
	}

	status, env = s.do(t, http.MethodPost, "/api/transactions/recompute", token, nil)
	if status != http.StatusOK {
		t.Fatalf("recompute: status %d (%s)", status, env.Error)
	}

	var stored model.Product
	s.db.First(&stored, p.ID)
	if stored.CurrentStock != 3 {
		t.Fatalf("stock = %d, want 3", stored.CurrentStock)
	}
}

func TestErrorResponses(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin123")
	s.createProduct(t, token, "DUP", 0)

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   service.ErrorKind
	}{
		{"bad id", http.MethodGet, "/api/products/abc", nil, http.StatusBadRequest, service.KindInvalidInput},
		{"missing product", http.MethodGet, "/api/products/999", nil, http.StatusNotFound, service.KindNotFound},
		{"duplicate code", http.MethodPost, "/api/products", fiber.Map{"unique_code": "DUP", "name": "x", "unit": "ea"}, http.StatusConflict, service.KindConflict},
		{"validation", http.MethodPost, "/api/products", fiber.Map{"name": "no code", "unit": "ea"}, http.StatusBadRequest, service.KindInvalidInput},
		{"zero quantity", http.MethodPost, "/api/transactions/inbound", fiber.Map{"product_id": 1, "quantity": 0}, http.StatusBadRequest, service.KindInvalidInput},
		{"unknown product", http.MethodPost, "/api/transactions/inbound", fiber.Map{"product_id": 42, "quantity": 1}, http.StatusNotFound, service.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := s.do(t, tc.method, tc.path, token, tc.body)
			if status != tc.status || env.Code != string(tc.code) || env.Success {
				t.Fatalf("got status %d code %v, want %d %s", status, env.Code, tc.status, tc.code)
			}
			if env.Error == "" {
				t.Fatal("error message is empty")
			}
		})
	}
}

func TestExportTemplateDownload(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin123")

	req := httptest.NewRequest(http.MethodGet, "/api/export/template/products?format=csv", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if cd := resp.Header.Get(fiber.HeaderContentDisposition); !strings.Contains(cd, "filename*=UTF-8''") {
		t.Fatalf("content-disposition = %q", cd)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ABC-123") {
		t.Fatalf("template body missing sample row: %q", body)
	}
}

func TestCustomExport(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin123")
	keep := s.createProduct(t, token, "KEEP-1", 3)
	s.createProduct(t, token, "SKIP-1", 3)

	raw, _ := json.Marshal(fiber.Map{"export_type": "products", "product_ids": []uint{keep.ID}})
	req := httptest.NewRequest(http.MethodPost, "/api/export/custom?format=csv", bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("custom export: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "KEEP-1") || strings.Contains(string(body), "SKIP-1") {
		t.Fatalf("unexpected custom export body: %q", body)
	}

	status, env := s.do(t, http.MethodPost, "/api/export/custom", token, fiber.Map{"export_type": "backups"})
	if status != http.StatusBadRequest || env.Code != string(service.KindInvalidInput) {
		t.Fatalf("bad export_type: status %d code %v", status, env.Code)
	}
}

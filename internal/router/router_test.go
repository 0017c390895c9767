package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wardrobe-ledger/internal/cache"
	"github.com/wardrobe-ledger/internal/config"
	"github.com/wardrobe-ledger/internal/logger"
	"github.com/wardrobe-ledger/internal/models"
	"github.com/wardrobe-ledger/internal/provider"
	"github.com/wardrobe-ledger/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type apiEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type routerTestEnv struct {
	engine    *gin.Engine
	container *provider.Container
	db        *gorm.DB
}

func setupRouterTest(t *testing.T) *routerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.L = zap.NewNop()

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{SecretKey: "router-secret", ExpireHours: 1},
		Security: config.SecurityConfig{
			LoginRateLimit: config.RateLimitConfig{WindowSeconds: 60, MaxAttempts: 3},
			WriteRateLimit: config.RateLimitConfig{WindowSeconds: 60, MaxAttempts: 100},
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8, RequireLetter: true, RequireNumber: true},
		},
		Inventory: config.InventoryConfig{Timezone: "UTC", LowStockThreshold: 2},
		Report:    config.ReportConfig{TopLimitDefault: 10},
	}
	container := provider.NewContainer(cfg)

	mr := miniredis.RunT(t)
	cache.UseClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() {
		cache.UseClient(nil, "")
		_ = sqlDB.Close()
	})

	ctx := context.Background()
	if _, err := container.AuthService.CreateOperator(ctx, service.CreateOperatorInput{Username: "boss", Password: "boss1234", Role: "owner"}); err != nil {
		t.Fatalf("create owner failed: %v", err)
	}
	if _, err := container.AuthService.CreateOperator(ctx, service.CreateOperatorInput{Username: "clerk", Password: "clerk1234", Role: "clerk"}); err != nil {
		t.Fatalf("create clerk failed: %v", err)
	}

	return &routerTestEnv{engine: SetupRouter(cfg, container), container: container, db: db}
}

func (e *routerTestEnv) do(t *testing.T, method, path, token string, body interface{}) apiEnvelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s http status want 200 got %d", method, path, w.Code)
	}
	var resp apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal %s %s failed: %v body=%s", method, path, err, w.Body.String())
	}
	return resp
}

func (e *routerTestEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	if resp.StatusCode != 0 {
		t.Fatalf("login %s failed: %d %s", username, resp.StatusCode, resp.Msg)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login token missing: %v", err)
	}
	return data.Token
}

func (e *routerTestEnv) createVariant(t *testing.T, baseCode string) *models.Variant {
	t.Helper()
	product := &models.Product{Name: "测试款", BaseCode: baseCode, Tags: models.StringArray{}}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.Variant{
		ProductID: product.ID,
		Color:     "黑",
		Size:      "M",
		CostPrice: models.NewCost(30),
		SalePrice: models.NewMoney(99),
		SKU:       models.BuildSKU(baseCode, "黑", "M"),
	}
	if err := e.db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func TestHealthAndPublicConfig(t *testing.T) {
	env := setupRouterTest(t)

	resp := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if resp.StatusCode != 0 {
		t.Fatalf("health status_code want 0 got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/api/v1/public/config", "", nil)
	if resp.StatusCode != 0 {
		t.Fatalf("config status_code want 0 got %d", resp.StatusCode)
	}
}

func TestAuthorizedRoutesRequireToken(t *testing.T) {
	env := setupRouterTest(t)

	resp := env.do(t, http.MethodGet, "/api/v1/products", "", nil)
	if resp.StatusCode != 401 {
		t.Fatalf("missing token want 401 got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/api/v1/products", "not-a-jwt", nil)
	if resp.StatusCode != 401 {
		t.Fatalf("bad token want 401 got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "boss", "password": "wrong-pass1"})
	if resp.StatusCode != 401 || resp.Msg != "Invalid username or password" {
		t.Fatalf("wrong password want 401 got %d %s", resp.StatusCode, resp.Msg)
	}
}

func TestClerkPermissions(t *testing.T) {
	env := setupRouterTest(t)
	clerk := env.login(t, "clerk", "clerk1234")
	variant := env.createVariant(t, "TS01")

	if resp := env.do(t, http.MethodGet, "/api/v1/me", clerk, nil); resp.StatusCode != 0 {
		t.Fatalf("clerk /me want 0 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, "/api/v1/products", clerk, nil); resp.StatusCode != 0 {
		t.Fatalf("clerk list products want 0 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, "/api/v1/reports/daily", clerk, nil); resp.StatusCode != 403 {
		t.Fatalf("clerk reports want 403 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, "/api/v1/operators", clerk, nil); resp.StatusCode != 403 {
		t.Fatalf("clerk operators want 403 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodPost, "/api/v1/products", clerk, map[string]string{"name": "x"}); resp.StatusCode != 403 {
		t.Fatalf("clerk create product want 403 got %d", resp.StatusCode)
	}

	resp := env.do(t, http.MethodPost, "/api/v1/stock/movements", clerk, map[string]interface{}{
		"variant_id": variant.ID, "type": "ADJUST", "qty": 5,
	})
	if resp.StatusCode != 403 {
		t.Fatalf("clerk adjust want 403 got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/api/v1/stock/movements", clerk, map[string]interface{}{
		"variant_id": variant.ID, "type": "IN", "qty": 5, "unit_cost": "30",
	})
	if resp.StatusCode != 0 {
		t.Fatalf("clerk stock in want 0 got %d %s", resp.StatusCode, resp.Msg)
	}
}

func TestSaleFlowThroughRouter(t *testing.T) {
	env := setupRouterTest(t)
	owner := env.login(t, "boss", "boss1234")
	variant := env.createVariant(t, "TS02")

	resp := env.do(t, http.MethodPost, "/api/v1/stock/receive", owner, map[string]interface{}{
		"variant_id": variant.ID, "qty": 2, "unit_cost": "30",
	})
	if resp.StatusCode != 0 {
		t.Fatalf("receive want 0 got %d %s", resp.StatusCode, resp.Msg)
	}

	shortage := env.do(t, http.MethodPost, "/api/v1/sales", owner, map[string]interface{}{
		"items": []map[string]interface{}{{"variant_id": variant.ID, "qty": 3, "unit_price": "99"}},
	})
	if shortage.StatusCode != 409 {
		t.Fatalf("shortage want 409 got %d %s", shortage.StatusCode, shortage.Msg)
	}

	created := env.do(t, http.MethodPost, "/api/v1/sales", owner, map[string]interface{}{
		"items": []map[string]interface{}{{"variant_id": variant.ID, "qty": 2, "unit_price": "99"}},
	})
	if created.StatusCode != 0 {
		t.Fatalf("create sale want 0 got %d %s", created.StatusCode, created.Msg)
	}
	var sale struct {
		ID     string `json:"id"`
		SaleNo string `json:"sale_no"`
	}
	if err := json.Unmarshal(created.Data, &sale); err != nil || sale.ID == "" || sale.SaleNo == "" {
		t.Fatalf("sale payload invalid: %v %s", err, string(created.Data))
	}

	if resp := env.do(t, http.MethodGet, "/api/v1/sales/"+sale.ID, owner, nil); resp.StatusCode != 0 {
		t.Fatalf("get sale want 0 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, "/api/v1/reports/daily?start=2000-01-01&end=2100-01-01", owner, nil); resp.StatusCode != 0 {
		t.Fatalf("daily report want 0 got %d %s", resp.StatusCode, resp.Msg)
	}
	if resp := env.do(t, http.MethodDelete, "/api/v1/sales/"+sale.ID, owner, nil); resp.StatusCode != 0 {
		t.Fatalf("delete sale want 0 got %d %s", resp.StatusCode, resp.Msg)
	}
	if resp := env.do(t, http.MethodGet, "/api/v1/sales/"+sale.ID, owner, nil); resp.StatusCode != 404 {
		t.Fatalf("deleted sale want 404 got %d", resp.StatusCode)
	}
}

func TestDisabledOperatorTokenRejected(t *testing.T) {
	env := setupRouterTest(t)
	clerkToken := env.login(t, "clerk", "clerk1234")

	clerk, err := env.container.OperatorRepo.GetByUsername("clerk")
	if err != nil || clerk == nil {
		t.Fatalf("load clerk failed: %v", err)
	}
	inactive := false
	if _, err := env.container.AuthService.UpdateOperator(context.Background(), clerk.ID, service.UpdateOperatorInput{IsActive: &inactive}); err != nil {
		t.Fatalf("disable clerk failed: %v", err)
	}

	resp := env.do(t, http.MethodGet, "/api/v1/me", clerkToken, nil)
	if resp.StatusCode != 401 {
		t.Fatalf("disabled operator want 401 got %d", resp.StatusCode)
	}
}

func TestPermissionCatalog(t *testing.T) {
	env := setupRouterTest(t)
	items := buildPermissionCatalog(env.engine)
	if len(items) == 0 {
		t.Fatalf("catalog should not be empty")
	}
	seen := map[string]string{}
	for _, item := range items {
		seen[item.Permission] = item.Module
	}
	if seen["POST:/sales"] != "sales" {
		t.Fatalf("catalog missing POST:/sales, got %v", seen)
	}
	if seen["PUT:/me/password"] != "operators" {
		t.Fatalf("me routes should belong to operators module")
	}
	if _, ok := seen["POST:/auth/login"]; ok {
		t.Fatalf("login should not appear in catalog")
	}
}

func TestOwnerGrantsClerkReportAccess(t *testing.T) {
	env := setupRouterTest(t)
	owner := env.login(t, "boss", "boss1234")
	clerk := env.login(t, "clerk", "clerk1234")

	if resp := env.do(t, http.MethodGet, "/api/v1/reports/daily", clerk, nil); resp.StatusCode != 403 {
		t.Fatalf("clerk reports before grant want 403 got %d", resp.StatusCode)
	}
	resp := env.do(t, http.MethodPost, "/api/v1/authz/policies", owner, map[string]string{
		"role": "clerk", "object": "/reports/daily", "action": "GET",
	})
	if resp.StatusCode != 0 {
		t.Fatalf("grant want 0 got %d %s", resp.StatusCode, resp.Msg)
	}
	if resp := env.do(t, http.MethodGet, "/api/v1/reports/daily", clerk, nil); resp.StatusCode != 0 {
		t.Fatalf("clerk reports after grant want 0 got %d %s", resp.StatusCode, resp.Msg)
	}
	if resp := env.do(t, http.MethodPost, "/api/v1/authz/policies", clerk, map[string]string{
		"role": "clerk", "object": "/*", "action": "*",
	}); resp.StatusCode != 403 {
		t.Fatalf("clerk must not grant policies, got %d", resp.StatusCode)
	}

	me := env.do(t, http.MethodGet, "/api/v1/authz/me", clerk, nil)
	if me.StatusCode != 0 || !bytes.Contains(me.Data, []byte("/reports/daily")) {
		t.Fatalf("authz me should list granted policy: %d %s", me.StatusCode, string(me.Data))
	}
}

func TestTriggerDailyDigestWithoutQueue(t *testing.T) {
	env := setupRouterTest(t)
	owner := env.login(t, "boss", "boss1234")
	clerk := env.login(t, "clerk", "clerk1234")

	if resp := env.do(t, http.MethodPost, "/api/v1/reports/daily-digest", clerk, map[string]string{"date": "2024-03-01"}); resp.StatusCode != 403 {
		t.Fatalf("clerk should not trigger digest, got %d", resp.StatusCode)
	}

	resp := env.do(t, http.MethodPost, "/api/v1/reports/daily-digest", owner, map[string]string{"date": "2024-03-01"})
	if resp.StatusCode != 0 {
		t.Fatalf("trigger digest failed: %d %s", resp.StatusCode, resp.Msg)
	}
	var data struct {
		Queued bool `json:"queued"`
		Digest struct {
			Date string `json:"date"`
		} `json:"digest"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode digest failed: %v", err)
	}
	if data.Queued || data.Digest.Date != "2024-03-01" {
		t.Fatalf("digest should be computed inline: %s", string(resp.Data))
	}

	if resp := env.do(t, http.MethodPost, "/api/v1/reports/daily-digest", owner, map[string]string{"date": "03/01/2024"}); resp.StatusCode != 400 {
		t.Fatalf("bad date want 400 got %d", resp.StatusCode)
	}
}

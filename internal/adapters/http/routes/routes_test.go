package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"realestate-crm/internal/adapters/http/middleware"
	"realestate-crm/internal/adapters/persistence/models"
	"realestate-crm/internal/config"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/pkg/export"
	"realestate-crm/internal/pkg/jwt"
	"realestate-crm/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Kind    string          `json:"kind"`
	Error   string          `json:"error"`
	Fields  []string        `json:"fields"`
}

type testAPI struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config

	admin *models.User
	cons1 *models.User
	cons2 *models.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	cfg := &config.Config{
		AppMode:     "dev",
		PhoneRegion: "TR",
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Cookie: config.CookieConfig{SameSite: "Lax"},
	}

	db := testutil.NewDB(t)
	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	Setup(app, db, cfg)

	return &testAPI{
		t:     t,
		app:   app,
		db:    db,
		cfg:   cfg,
		admin: testutil.CreateUser(t, db, "admin", domain.RoleAdmin),
		cons1: testutil.CreateUser(t, db, "cons1", domain.RoleConsultant),
		cons2: testutil.CreateUser(t, db, "cons2", domain.RoleConsultant),
	}
}

func (a *testAPI) token(u *models.User) string {
	a.t.Helper()
	tok, err := jwt.GenerateAccessToken(u.ID, u.Username, u.Role, a.cfg.JWT.Secret, a.cfg.JWT.AccessTokenMins)
	require.NoError(a.t, err)
	return tok
}

func (a *testAPI) do(method, path string, as *models.User, body interface{}) *http.Response {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(as))
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) apiResponse {
	t.Helper()
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestEntitiesRequireAuthentication(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodGet, "/api/v1/entities/clients", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, string(domain.KindUnauthenticated), decode(t, resp).Kind)
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodGet, "/api/v1/entities/clients", api.cons1, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, api.db.Model(&models.User{}).Where("id = ?", api.cons1.ID).Update("status", domain.StatusInactive).Error)

	resp = api.do(http.MethodGet, "/api/v1/entities/clients", api.cons1, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestClientLifecycle(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodPost, "/api/v1/entities/clients", api.cons1, map[string]interface{}{
		"first_name":    "Mehmet",
		"last_name":     "Demir",
		"consultant_id": api.cons2.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "private, no-store", resp.Header.Get(fiber.HeaderCacheControl))

	var client models.Client
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &client))
	assert.Equal(t, api.cons1.ID, client.ConsultantID)

	// another consultant cannot touch it
	resp = api.do(http.MethodPut, "/api/v1/entities/clients/"+client.ID, api.cons2, map[string]interface{}{"notes": "x"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, string(domain.KindForbidden), decode(t, resp).Kind)

	// the owner cannot hand it over
	resp = api.do(http.MethodPut, "/api/v1/entities/clients/"+client.ID, api.cons1, map[string]interface{}{"consultant_id": api.cons2.ID})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, string(domain.KindValidation), body.Kind)
	assert.Equal(t, []string{"consultant_id"}, body.Fields)

	resp = api.do(http.MethodGet, "/api/v1/entities/clients/"+client.ID, api.admin, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = api.do(http.MethodDelete, "/api/v1/entities/clients/"+client.ID, api.cons1, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = api.do(http.MethodGet, "/api/v1/entities/clients/"+client.ID, api.admin, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListPagination(t *testing.T) {
	api := newTestAPI(t)
	for i := 0; i < 3; i++ {
		testutil.CreateClient(t, api.db, api.cons1.ID)
	}
	testutil.CreateClient(t, api.db, api.cons2.ID)

	resp := api.do(http.MethodGet, "/api/v1/entities/clients?page=1&limit=2", api.cons1, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page struct {
		Data []models.Client `json:"data"`
		Meta struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
			HasNext    bool  `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &page))
	assert.Len(t, page.Data, 2)
	assert.EqualValues(t, 3, page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.True(t, page.Meta.HasNext)

	resp = api.do(http.MethodGet, "/api/v1/entities/clients", api.admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &page))
	assert.Len(t, page.Data, 4)
}

func TestUsersAreAdminOnly(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodGet, "/api/v1/entities/users", api.cons1, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = api.do(http.MethodGet, "/api/v1/entities/users", api.admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw := decode(t, resp).Data
	assert.NotContains(t, string(raw), "password")

	resp = api.do(http.MethodPost, "/api/v1/entities/users", api.admin, map[string]interface{}{
		"first_name": "Dup",
		"last_name":  "User",
		"username":   "cons1",
		"email":      "dup@example.com",
		"password":   "password123",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, string(domain.KindConflict), decode(t, resp).Kind)
}

func TestTransactionDerivation(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodPost, "/api/v1/entities/transactions", api.cons1, map[string]interface{}{
		"amount":          100000,
		"commission_rate": 3,
		"status":          "completed",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var tx models.Transaction
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &tx))
	assert.True(t, tx.CommissionAmount.Equal(decimal.NewFromInt(3000)))
	assert.True(t, tx.TaxAmount.Equal(decimal.NewFromInt(540)))
	assert.True(t, tx.NetAmount.Equal(decimal.NewFromInt(96460)))

	resp = api.do(http.MethodPost, "/api/v1/entities/transactions", api.cons1, map[string]interface{}{
		"amount":     100000,
		"net_amount": 1,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []string{"net_amount"}, decode(t, resp).Fields)

	resp = api.do(http.MethodGet, "/api/v1/dashboard/stats", api.cons1, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var stats struct {
		TotalRevenue      string `json:"total_revenue"`
		TotalTransactions int64  `json:"total_transactions"`
	}
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &stats))
	assert.Equal(t, "100000.00", stats.TotalRevenue)
	assert.EqualValues(t, 1, stats.TotalTransactions)

	resp = api.do(http.MethodGet, "/api/v1/dashboard/stats", api.cons2, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &stats))
	assert.Equal(t, "0", stats.TotalRevenue)
}

func TestMalformedBody(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entities/clients", strings.NewReader(`[1,2]`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+api.token(api.cons1))

	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAccountingClose(t *testing.T) {
	api := newTestAPI(t)
	testutil.CreateTransaction(t, api.db, api.cons1.ID, domain.StatusCompleted, 100000,
		time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC))

	resp := api.do(http.MethodPost, "/api/v1/entities/accounting/close", api.cons1, map[string]int{"month": 5, "year": 2024})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = api.do(http.MethodPost, "/api/v1/entities/accounting/close", api.admin, map[string]int{"month": 13, "year": 2024})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = api.do(http.MethodPost, "/api/v1/entities/accounting/close", api.admin, map[string]int{"month": 5, "year": 2024})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var rec models.AccountingRecord
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &rec))
	assert.True(t, rec.TotalRevenue.Equal(decimal.NewFromInt(3000)))
	assert.True(t, rec.OfficeShare.Equal(decimal.NewFromInt(1800)))
}

func TestReportExportEndpoint(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodPost, "/api/v1/entities/reports", api.cons1, map[string]interface{}{
		"report_type": "client_count",
		"title":       "Clients",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var report models.Report
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &report))

	resp = api.do(http.MethodGet, "/api/v1/entities/reports/"+report.ID+"/export", api.cons2, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = api.do(http.MethodGet, "/api/v1/entities/reports/"+report.ID+"/export", api.cons1, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, export.ContentTypeXLSX, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), ".xlsx")
}

func TestLoginSetsCookies(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodPost, "/api/v1/auth/login", nil, map[string]string{
		"username": "cons1",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = api.do(http.MethodPost, "/api/v1/auth/login", nil, map[string]string{
		"username": "cons1",
		"password": testutil.DefaultPassword,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var access *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			access = c
		}
	}
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: access.Value})
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodGet, "/api/v1/profile", api.cons1, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = api.do(http.MethodPut, "/api/v1/profile", api.cons1, map[string]interface{}{"role": "admin"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = api.do(http.MethodPut, "/api/v1/profile/password", api.cons1, map[string]string{"old_password": ""})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

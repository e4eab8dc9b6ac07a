package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"order-service/internal/model"
	"order-service/internal/service"
	"order-service/pkg/config"
	"order-service/pkg/jwtutil"
	"order-service/pkg/mailer"
	"order-service/pkg/validator"
)

type testAPI struct {
	e   *echo.Echo
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	log := zap.NewNop()
	v := validator.New()
	j := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	invoices := service.NewInvoiceService(db, 0.19, log)
	emails := service.NewEmailService(db, mailer.NewLogSender(log), 1, log)

	e := echo.New()
	e.Validator = v
	e.GET("/health", NewHealthHandler(db).Check)
	RegisterRoutes(e, Services{
		Auth:     service.NewAuthService(db, j, v, log),
		Clients:  service.NewClientService(db, v, log),
		Products: service.NewProductService(db, v, log),
		Orders:   service.NewOrderService(db, invoices, emails, v, false, log),
		Invoices: invoices,
		Emails:   emails,
		Reports:  service.NewReportService(db),
	}, j, RouteOptions{})

	return &testAPI{e: e, db: db, jwt: j}
}

func (a *testAPI) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := a.jwt.GenerateToken(1, role+"@example.com", role)
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/clients", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token no proporcionado", message(t, rec))

	rec = api.do(http.MethodGet, "/api/clients", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token inválido o expirado", message(t, rec))
}

func TestRoleRestrictions(t *testing.T) {
	api := newTestAPI(t)
	empleado := api.token(t, model.RoleEmpleado)
	admin := api.token(t, model.RoleAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"empleado lists clients", http.MethodGet, "/api/clients", empleado, http.StatusOK},
		{"empleado cannot delete clients", http.MethodDelete, "/api/clients/1", empleado, http.StatusForbidden},
		{"empleado cannot read reports", http.MethodGet, "/api/reports/resumen", empleado, http.StatusForbidden},
		{"empleado cannot read email logs", http.MethodGet, "/api/email-logs", empleado, http.StatusForbidden},
		{"admin reads reports", http.MethodGet, "/api/reports/resumen", admin, http.StatusOK},
		{"admin reads email logs", http.MethodGet, "/api/email-logs", admin, http.StatusOK},
		{"unknown role", http.MethodGet, "/api/orders", api.token(t, "guest"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(tt.method, tt.path, tt.token, "")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestOrderLifecycle(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, model.RoleEmpleado)

	rec := api.do(http.MethodPost, "/api/clients", tok,
		`{"name":"Ana","lastname":"Pérez","email":"ana@example.com","phone":"555-0100"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var client model.Client
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &client))

	rec = api.do(http.MethodPost, "/api/products", tok, `{"name":"Teclado","price":10.00,"stock":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))

	body := fmt.Sprintf(`{"clientId":%d,"products":[{"productId":%d,"quantity":2}]}`, client.ID, product.ID)
	rec = api.do(http.MethodPost, "/api/orders", tok, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Order   model.Order   `json:"order"`
		Invoice model.Invoice `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Order.Total.Equal(decimal.RequireFromString("20.00")), created.Order.Total.String())
	assert.Equal(t, model.OrderStatusPending, created.Order.Status)
	require.Len(t, created.Order.Items, 1)
	assert.True(t, strings.HasPrefix(created.Invoice.Number, "FACT-"))
	assert.True(t, created.Invoice.Tax.Equal(decimal.RequireFromString("3.80")), created.Invoice.Tax.String())
	assert.True(t, created.Invoice.Total.Equal(decimal.RequireFromString("23.80")), created.Invoice.Total.String())

	// A second invoice for the same order is rejected
	rec = api.do(http.MethodPost, "/api/invoices/generate", tok, fmt.Sprintf(`{"orderId":%d}`, created.Order.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "La orden ya tiene una factura", message(t, rec))

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/invoices/%d/send", created.Invoice.ID), tok, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", created.Order.ID), tok, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodDelete, fmt.Sprintf("/api/orders/%d", created.Order.ID), api.token(t, model.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Orden eliminada correctamente", message(t, rec))
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, model.RoleEmpleado)

	client := model.Client{Name: "Ana", Lastname: "Pérez", Email: "ana@example.com", Phone: "1"}
	require.NoError(t, api.db.Create(&client).Error)

	rec := api.do(http.MethodPost, "/api/orders", tok,
		fmt.Sprintf(`{"clientId":%d,"products":[{"productId":99,"quantity":1}]}`, client.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Producto con ID 99 no encontrado", message(t, rec))
}

func TestDuplicateClientEmail(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, model.RoleAdmin)
	payload := `{"name":"Ana","lastname":"Pérez","email":"ana@example.com","phone":"555"}`

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/clients", tok, payload).Code)

	rec := api.do(http.MethodPost, "/api/clients", tok, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "El email ya está registrado", message(t, rec))
}

func TestNotFoundAndBadID(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, model.RoleAdmin)

	rec := api.do(http.MethodGet, "/api/orders/999", tok, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Orden no encontrada", message(t, rec))

	rec = api.do(http.MethodGet, "/api/invoices/999", tok, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/products/abc", tok, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ID inválido", message(t, rec))
}

func TestReportRejectsBadDates(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/reports/ventas?desde=ayer&hasta=2026-01-31", api.token(t, model.RoleAdmin), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterLoginMe(t *testing.T) {
	api := newTestAPI(t)

	// Role in the public payload is ignored
	rec := api.do(http.MethodPost, "/api/auth/register", "",
		`{"name":"Luis","email":"luis@example.com","password":"secreto1","role":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secreto1")

	rec = api.do(http.MethodPost, "/api/auth/login", "", `{"email":"luis@example.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Credenciales inválidas", message(t, rec))

	rec = api.do(http.MethodPost, "/api/auth/login", "", `{"email":"luis@example.com","password":"secreto1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, model.RoleEmpleado, login.User.Role)

	rec = api.do(http.MethodGet, "/api/auth/me", login.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "luis@example.com")

	rec = api.do(http.MethodPost, "/api/auth/users", login.Token,
		`{"name":"X","email":"x@example.com","password":"secreto1","role":"admin"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPayloadValidation(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, model.RoleAdmin)

	tests := []struct {
		name string
		path string
		body string
		msg  string
	}{
		{"client missing phone", "/api/clients", `{"name":"Ana","lastname":"P","email":"ana@example.com"}`, "Todos los datos son requeridos"},
		{"client bad email", "/api/clients", `{"name":"Ana","lastname":"P","email":"ana.example.com","phone":"1"}`, "El email no es valido"},
		{"product without price", "/api/products", `{"name":"Teclado"}`, "Nombre y precio son requeridos"},
		{"product negative price", "/api/products", `{"name":"Teclado","price":-1}`, "El precio no puede ser negativo"},
		{"product negative stock", "/api/products", `{"name":"Teclado","price":1,"stock":-2}`, "El stock no puede ser negativo"},
		{"order without lines", "/api/orders", `{"clientId":1,"products":[]}`, "Datos incompletos o inválidos"},
		{"order zero quantity", "/api/orders", `{"clientId":1,"products":[{"productId":1,"quantity":0}]}`, "Datos incompletos o inválidos"},
		{"order huge quantity", "/api/orders", `{"clientId":1,"products":[{"productId":1,"quantity":100001}]}`, "Datos incompletos o inválidos"},
		{"user short password", "/api/auth/users", `{"email":"x@example.com","password":"123"}`, "La contraseña debe tener al menos 6 caracteres"},
		{"user unknown role", "/api/auth/users", `{"email":"x@example.com","password":"secreto1","role":"root"}`, "Rol inválido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, tt.path, tok, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.msg, message(t, rec))
		})
	}

	var count int64
	require.NoError(t, api.db.Model(&model.Client{}).Count(&count).Error)
	assert.Zero(t, count)
}

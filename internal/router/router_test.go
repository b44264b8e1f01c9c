package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vending/internal/auth"
	"vending/internal/config"
	"vending/internal/db"
	"vending/internal/handler"
	"vending/internal/repository"
	"vending/internal/service"
)

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, loginRateLimit int) *echo.Echo {
	t.Helper()
	gdb, err := db.NewSQLite("file:"+uuid.NewString()+"?mode=memory&cache=shared", false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		RequestTimeout: 5 * time.Second,
		LoginRateLimit: loginRateLimit,
	}

	userRepo := repository.NewUserRepository(gdb)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	sessions := auth.NewSessionStore(repository.NewSessionRepository(gdb))

	authService := service.NewAuthService(userRepo, jwtService, sessions)
	userService := service.NewUserService(userRepo, sessions, nil)
	walletService := service.NewWalletService(userRepo, nil)
	productService := service.NewProductService(repository.NewProductRepository(gdb), nil)
	purchaseService := service.NewPurchaseService(repository.NewTransactor(gdb), nil)

	e := echo.New()
	Register(e, cfg, auth.NewGuard(jwtService, sessions),
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService, walletService),
		handler.NewProductHandler(productService, purchaseService),
	)
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func registerAndLogin(t *testing.T, e *echo.Echo, username, role string) string {
	t.Helper()
	code, _ := call(t, e, http.MethodPost, "/api/v1/user", "", map[string]string{
		"username": username, "password": "password123", "role": role,
	})
	require.Equal(t, http.StatusCreated, code)

	code, env := call(t, e, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username, "password": "password123",
	})
	require.Equal(t, http.StatusOK, code)
	var result service.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestPurchaseFlow(t *testing.T) {
	e := newTestServer(t, 0)
	seller := registerAndLogin(t, e, "seller", "seller")
	buyer := registerAndLogin(t, e, "buyer", "buyer")

	code, env := call(t, e, http.MethodPost, "/api/v1/products", seller, map[string]interface{}{
		"product_name": "Cola", "cost": 10, "amount_available": 25,
	})
	require.Equal(t, http.StatusCreated, code)
	var product struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))

	for _, coin := range []int{100, 100} {
		code, _ = call(t, e, http.MethodPost, "/api/v1/user/deposit", buyer, map[string]int{"amount": coin})
		require.Equal(t, http.StatusOK, code)
	}

	code, env = call(t, e, http.MethodPost, "/api/v1/products/buy", buyer, map[string]interface{}{
		"product_id": product.ID, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, code)
	var result service.PurchaseResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, int64(20), result.TotalCost)
	assert.Equal(t, []int64{100, 50, 20, 10}, result.Balance)
	assert.Equal(t, int64(23), result.Product.AmountAvailable)

	code, env = call(t, e, http.MethodGet, "/api/v1/user", buyer, nil)
	require.Equal(t, http.StatusOK, code)
	var profile struct {
		Deposit int64 `json:"deposit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, int64(180), profile.Deposit)

	code, env = call(t, e, http.MethodPost, "/api/v1/user/reset", buyer, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, int64(0), profile.Deposit)

	code, env = call(t, e, http.MethodPost, "/api/v1/products/buy", buyer, map[string]interface{}{
		"product_id": product.ID, "quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Insufficient balance", env.Message)
}

func TestGuardResponses(t *testing.T) {
	e := newTestServer(t, 0)
	buyer := registerAndLogin(t, e, "buyer", "buyer")

	code, env := call(t, e, http.MethodGet, "/api/v1/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Authorization token is required.", env.Message)

	code, env = call(t, e, http.MethodGet, "/api/v1/user", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid Token.", env.Message)

	code, env = call(t, e, http.MethodPost, "/api/v1/products", buyer, map[string]interface{}{
		"product_name": "Cola", "cost": 10, "amount_available": 1,
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You do not have permission to access this route", env.Message)
}

func TestSellerCannotBuy(t *testing.T) {
	e := newTestServer(t, 0)
	seller := registerAndLogin(t, e, "seller", "seller")

	code, env := call(t, e, http.MethodPost, "/api/v1/products/buy", seller, map[string]interface{}{
		"product_id": uuid.NewString(), "quantity": 1,
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "You do not have permission to access this route", env.Message)
}

func TestLogoutAllRevokesTokens(t *testing.T) {
	e := newTestServer(t, 0)
	first := registerAndLogin(t, e, "buyer", "buyer")

	code, env := call(t, e, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "buyer", "password": "password123",
	})
	require.Equal(t, http.StatusOK, code)
	var second service.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.Equal(t, service.ActiveSessionWarning, second.Message)

	code, env = call(t, e, http.MethodPost, "/api/v1/auth/logout/all", first, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "You have successfully logged out from all sessions", env.Message)

	for _, token := range []string{first, second.Token} {
		code, env = call(t, e, http.MethodGet, "/api/v1/user", token, nil)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Invalid Token.", env.Message)
	}
}

func TestRoleChangeRevokesTokens(t *testing.T) {
	e := newTestServer(t, 0)
	token := registerAndLogin(t, e, "alice", "buyer")

	code, _ := call(t, e, http.MethodPut, "/api/v1/user", token, map[string]string{
		"username": "alice", "role": "seller",
	})
	require.Equal(t, http.StatusOK, code)

	code, _ = call(t, e, http.MethodGet, "/api/v1/user", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestDeleteAccount(t *testing.T) {
	e := newTestServer(t, 0)
	token := registerAndLogin(t, e, "alice", "buyer")

	code, env := call(t, e, http.MethodDelete, "/api/v1/user", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Account deleted successfully", env.Message)

	code, _ = call(t, e, http.MethodGet, "/api/v1/user", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestValidationMessages(t *testing.T) {
	e := newTestServer(t, 0)
	seller := registerAndLogin(t, e, "seller", "seller")
	buyer := registerAndLogin(t, e, "buyer", "buyer")

	tests := []struct {
		name    string
		method  string
		path    string
		token   string
		body    interface{}
		status  int
		message string
	}{
		{"invalid coin", http.MethodPost, "/api/v1/user/deposit", buyer, map[string]int{"amount": 15}, http.StatusBadRequest, "Invalid coin. Accepted coins are 5,10,20,50 and 100"},
		{"cost not multiple of 5", http.MethodPost, "/api/v1/products", seller, map[string]interface{}{"product_name": "Gum", "cost": 12, "amount_available": 1}, http.StatusBadRequest, "Cost must be multiple of 5"},
		{"cost too high", http.MethodPost, "/api/v1/products", seller, map[string]interface{}{"product_name": "Gum", "cost": 105, "amount_available": 1}, http.StatusBadRequest, "Cost can not be more than 100"},
		{"missing product name", http.MethodPost, "/api/v1/products", seller, map[string]interface{}{"cost": 10, "amount_available": 1}, http.StatusBadRequest, "Product name is required"},
		{"short password", http.MethodPost, "/api/v1/user", "", map[string]string{"username": "x", "password": "short", "role": "buyer"}, http.StatusBadRequest, "Password can not be less than 8"},
		{"bad role", http.MethodPost, "/api/v1/user", "", map[string]string{"username": "x", "password": "password123", "role": "admin"}, http.StatusBadRequest, "Invalid role value"},
		{"duplicate username", http.MethodPost, "/api/v1/user", "", map[string]string{"username": "buyer", "password": "password123", "role": "buyer"}, http.StatusBadRequest, "Username already exist!"},
		{"wrong password", http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "buyer", "password": "nope-nope"}, http.StatusUnauthorized, "Invalid username/password"},
		{"bad product id", http.MethodGet, "/api/v1/products/abc", "", nil, http.StatusBadRequest, "Invalid Id value"},
		{"unknown product", http.MethodGet, "/api/v1/products/" + uuid.NewString(), "", nil, http.StatusNotFound, "Product not found"},
		{"zero quantity", http.MethodPost, "/api/v1/products/buy", buyer, map[string]interface{}{"product_id": uuid.NewString(), "quantity": 0}, http.StatusBadRequest, "Quantity is required"},
		{"buy unknown product", http.MethodPost, "/api/v1/products/buy", buyer, map[string]interface{}{"product_id": uuid.NewString(), "quantity": 1}, http.StatusNotFound, "Product not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, e, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestProductOwnership(t *testing.T) {
	e := newTestServer(t, 0)
	owner := registerAndLogin(t, e, "owner", "seller")
	other := registerAndLogin(t, e, "other", "seller")

	code, env := call(t, e, http.MethodPost, "/api/v1/products", owner, map[string]interface{}{
		"product_name": "Cola", "cost": 10, "amount_available": 3,
	})
	require.Equal(t, http.StatusCreated, code)
	var product struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &product))

	update := map[string]interface{}{"product_name": "Cola", "cost": 20, "amount_available": 0}
	code, env = call(t, e, http.MethodPut, "/api/v1/products/"+product.ID, other, update)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Product not found", env.Message)

	code, _ = call(t, e, http.MethodDelete, "/api/v1/products/"+product.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = call(t, e, http.MethodPut, "/api/v1/products/"+product.ID, owner, update)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Product updated successfully", env.Message)

	code, env = call(t, e, http.MethodPost, "/api/v1/products", owner, map[string]interface{}{
		"product_name": "Cola", "cost": 10, "amount_available": 3,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "You have a product with same name", env.Message)

	code, env = call(t, e, http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, float64(0), list[0]["amount_available"])

	code, env = call(t, e, http.MethodDelete, "/api/v1/products/"+product.ID, owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Product deleted successfully", env.Message)
}

func TestLoginRateLimit(t *testing.T) {
	e := newTestServer(t, 2)
	creds := map[string]string{"username": "ghost", "password": "password123"}

	for i := 0; i < 2; i++ {
		code, _ := call(t, e, http.MethodPost, "/api/v1/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, code)
	}
	code, env := call(t, e, http.MethodPost, "/api/v1/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.NotEmpty(t, env.Message)
}

func TestHealthz(t *testing.T) {
	e := newTestServer(t, 0)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/service"
)

type stubService struct {
	registerUser *repository.User
	registerErr  error

	authUser *repository.User
	authErr  error

	user    *repository.User
	userErr error

	products    []repository.Product
	productsErr error
	category    string

	product    *repository.Product
	productErr error

	productOrderErr error

	ordersResp []repository.Order
	ordersErr  error

	addOrderErr error
	addedFor    string
}

func (s *stubService) RegisterUser(ctx context.Context, phone, password, name string) (*repository.User, error) {
	return s.registerUser, s.registerErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, phone, password string) (*repository.User, error) {
	return s.authUser, s.authErr
}

func (s *stubService) GetUser(ctx context.Context, id string) (*repository.User, error) {
	return s.user, s.userErr
}

func (s *stubService) ListProducts(ctx context.Context, category string) ([]repository.Product, error) {
	s.category = category
	return s.products, s.productsErr
}

func (s *stubService) GetProduct(ctx context.Context, id string) (*repository.Product, error) {
	return s.product, s.productErr
}

func (s *stubService) CreateProductOrder(ctx context.Context, o repository.ProductOrder) (repository.ProductOrder, error) {
	o.ID = "po1"
	return o, s.productOrderErr
}

func (s *stubService) AddOrder(ctx context.Context, userID, trackingNumber, note string) (repository.Order, error) {
	s.addedFor = userID
	return repository.Order{ID: "o1", UserID: userID, TrackingNumber: trackingNumber, Status: "CREATED"}, s.addOrderErr
}

func (s *stubService) GetOrdersByUser(ctx context.Context, userID string) ([]repository.Order, error) {
	return s.ordersResp, s.ordersErr
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth)
}

func serve(t *testing.T, h *Handler, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	t.Cleanup(func() { res.Body.Close() })

	var body map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}
	return res, body
}

func authorized(t *testing.T, h *Handler, req *http.Request, userID string) *http.Request {
	t.Helper()

	token, err := h.authMiddleware.IssueToken(userID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRegister_Success(t *testing.T) {
	svc := &stubService{
		registerUser: &repository.User{ID: "u1", Phone: "+97699112233", Name: "Bat", PasswordHash: []byte("x"), CreatedAt: time.Now()},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(credentialsRequest{
		Phone:    "99112233",
		Password: "secret1",
	})

	res, resp := serve(t, h, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body)))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	token, _ := resp["token"].(string)
	userID, err := h.authMiddleware.ParseToken(token)
	if err != nil || userID != "u1" {
		t.Fatalf("token does not identify user: id=%q err=%v", userID, err)
	}
	user, _ := resp["user"].(map[string]any)
	if user["phone"] != "+97699112233" || user["hasPassword"] != true {
		t.Fatalf("user = %v", user)
	}
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "duplicate", err: repository.ErrUserExists, status: http.StatusConflict, message: "User already exists"},
		{name: "bad phone", err: service.ErrInvalidPhone, status: http.StatusBadRequest, message: "Invalid phone number"},
		{name: "short password", err: service.ErrPasswordTooShort, status: http.StatusBadRequest, message: "Password is too short"},
		{name: "internal", err: context.DeadlineExceeded, status: http.StatusInternalServerError, message: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{registerErr: tt.err})

			res, resp := serve(t, h, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte(`{"phone":"1","password":"2"}`))))
			if res.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.status)
			}
			if resp["success"] != false || resp["error"] != tt.message {
				t.Fatalf("body = %v, want error %q", resp, tt.message)
			}
		})
	}
}

func TestLogin_UnauthorizedOnInvalidCredentials(t *testing.T) {
	h := newTestHandler(t, &stubService{authErr: service.ErrInvalidCredentials})

	body, _ := json.Marshal(credentialsRequest{Phone: "99112233", Password: "secret1"})
	res, _ := serve(t, h, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestLogin_BadJSON(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res, _ := serve(t, h, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{"))))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestProfile_RequiresToken(t *testing.T) {
	svc := &stubService{user: &repository.User{ID: "u1", Phone: "+97699112233"}}
	h := newTestHandler(t, svc)

	res, _ := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil))
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}

	req := authorized(t, h, httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil), "u1")
	res, resp := serve(t, h, req)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	user, _ := resp["user"].(map[string]any)
	if user["id"] != "u1" || user["name"] != nil {
		t.Fatalf("user = %v", user)
	}
}

func TestListProducts_BareArray(t *testing.T) {
	svc := &stubService{
		products: []repository.Product{
			{ID: "p1", Name: "Бууз", Price: 3500, Category: "Хоол"},
		},
	}
	h := newTestHandler(t, svc)

	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?category=%D0%A5%D0%BE%D0%BE%D0%BB", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var items []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0]["_id"] != "p1" || items[0]["image"] != nil {
		t.Fatalf("items = %v", items)
	}
	if svc.category != "Хоол" {
		t.Fatalf("category = %q, want Хоол", svc.category)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	h := newTestHandler(t, &stubService{productErr: repository.ErrProductNotFound})

	res, resp := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/products/missing", nil))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
	if resp["error"] != "Product not found" {
		t.Fatalf("body = %v", resp)
	}
}

func TestCreateProductOrder(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body := []byte(`{"customerName":"Bat","phone":"99112233","quantity":2}`)
	res, resp := serve(t, h, httptest.NewRequest(http.MethodPost, "/api/products/p1/order", bytes.NewReader(body)))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	order, _ := resp["order"].(map[string]any)
	if order["_id"] != "po1" || order["productId"] != "p1" {
		t.Fatalf("order = %v", order)
	}

	h = newTestHandler(t, &stubService{productOrderErr: service.ErrInvalidOrder})
	res, _ = serve(t, h, httptest.NewRequest(http.MethodPost, "/api/products/p1/order", bytes.NewReader(body)))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestOrders_RequireToken(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res, _ := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}

	req := authorized(t, h, httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader([]byte(`{"trackingNumber":"TRK1"}`))), "u7")
	res, resp := serve(t, h, req)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	if svc.addedFor != "u7" {
		t.Fatalf("order created for %q, want u7", svc.addedFor)
	}
	order, _ := resp["order"].(map[string]any)
	if order["trackingNumber"] != "TRK1" || order["status"] != "CREATED" {
		t.Fatalf("order = %v", order)
	}
}

func TestGetOrders_EmptyList(t *testing.T) {
	h := newTestHandler(t, &stubService{ordersResp: []repository.Order{}})

	req := authorized(t, h, httptest.NewRequest(http.MethodGet, "/api/orders", nil), "u1")
	res, resp := serve(t, h, req)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}
	orders, ok := resp["orders"].([]any)
	if !ok || len(orders) != 0 {
		t.Fatalf("orders = %v", resp["orders"])
	}
}

func TestSetupRouter_ExtraMiddlewareGuardsAPI(t *testing.T) {
	h := newTestHandler(t, &stubService{})
	warmup := middleware.NewWarmup(time.Hour)

	rec := httptest.NewRecorder()
	h.SetupRouter(warmup.Middleware).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	rec = httptest.NewRecorder()
	h.SetupRouter(warmup.Middleware).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestNotFound_JSON(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res, resp := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
	if resp["success"] != false {
		t.Fatalf("body = %v", resp)
	}
}

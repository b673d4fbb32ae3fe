// Package handler содержит HTTP-обработчики API локального бэкенда витрины.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, phone, password, name string) (*repository.User, error)
	AuthenticateUser(ctx context.Context, phone, password string) (*repository.User, error)
	GetUser(ctx context.Context, id string) (*repository.User, error)
	ListProducts(ctx context.Context, category string) ([]repository.Product, error)
	GetProduct(ctx context.Context, id string) (*repository.Product, error)
	CreateProductOrder(ctx context.Context, o repository.ProductOrder) (repository.ProductOrder, error)
	AddOrder(ctx context.Context, userID, trackingNumber, note string) (repository.Order, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]repository.Order, error)
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type credentialsRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.service.RegisterUser(r.Context(), req.Phone, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserExists):
			writeError(w, http.StatusConflict, "User already exists")
		case errors.Is(err, service.ErrInvalidPhone), errors.Is(err, service.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, credentialsMessage(err))
		default:
			h.logger.Error("register user error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.respondWithSession(w, http.StatusCreated, u)
}

// Login выполняет аутентификацию пользователя и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid phone or password")
		case errors.Is(err, service.ErrInvalidPhone), errors.Is(err, service.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, credentialsMessage(err))
		default:
			h.logger.Error("login user error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.respondWithSession(w, http.StatusOK, u)
}

func credentialsMessage(err error) string {
	if errors.Is(err, service.ErrInvalidPhone) {
		return "Invalid phone number"
	}
	return "Password is too short"
}

func (h *Handler) respondWithSession(w http.ResponseWriter, status int, u *repository.User) {
	token, err := h.authMiddleware.IssueToken(u.ID)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err), zap.String("userID", u.ID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, status, map[string]any{
		"success": true,
		"token":   token,
		"user":    toUserResponse(u),
	})
}

// Profile возвращает профиль текущего пользователя.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("get profile error", zap.Error(err), zap.String("userID", userID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    toUserResponse(u),
	})
}

// ListProducts возвращает каталог голым массивом.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("list products error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct возвращает товар по идентификатору.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("get product error", zap.Error(err), zap.String("productID", id))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"product": toProductResponse(*p),
	})
}

type productOrderRequest struct {
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	Quantity     int    `json:"quantity"`
	Note         string `json:"note"`
}

// CreateProductOrder оформляет заказ товара.
func (h *Handler) CreateProductOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req productOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.service.CreateProductOrder(r.Context(), repository.ProductOrder{
		ProductID:    id,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Quantity:     req.Quantity,
		Note:         req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			writeError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, service.ErrInvalidOrder):
			writeError(w, http.StatusBadRequest, "Customer name and phone are required")
		default:
			h.logger.Error("create product order error", zap.Error(err), zap.String("productID", id))
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"order": productOrderResponse{
			ID:           o.ID,
			ProductID:    o.ProductID,
			CustomerName: o.CustomerName,
			Phone:        o.Phone,
			Quantity:     o.Quantity,
			Note:         optional(o.Note),
			CreatedAt:    o.CreatedAt.Format(time.RFC3339),
		},
	})
}

// GetOrders возвращает список заказов текущего пользователя.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get orders error", zap.Error(err), zap.String("userID", userID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orders":  resp,
	})
}

type orderRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Note           string `json:"note"`
}

// CreateOrder регистрирует заказ текущего пользователя по трек-номеру.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.service.AddOrder(r.Context(), userID, req.TrackingNumber, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrder):
			writeError(w, http.StatusBadRequest, "Tracking number is required")
		case errors.Is(err, repository.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "Unauthorized")
		default:
			h.logger.Error("create order error", zap.Error(err), zap.String("userID", userID))
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"order":   toOrderResponse(o),
	})
}

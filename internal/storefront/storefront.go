// Package storefront предоставляет типизированные операции витрины поверх конвейера запросов:
// авторизацию, каталог товаров и заказы.
package storefront

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/api"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/session"
	"github.com/mmeshcher/storefront/internal/validation"
)

var (
	ErrInvalidPhone          = errors.New("invalid phone number")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrMissingCustomer       = errors.New("customer name and phone are required")
	ErrMissingProduct        = errors.New("product id is required")
	ErrMissingTrackingNumber = errors.New("tracking number is required")
)

// Credentials содержит данные формы входа или регистрации.
// Confirm и Name используются только при регистрации.
type Credentials struct {
	Phone    string
	Password string
	Confirm  string
	Name     string
}

// ProductOrderForm описывает форму заказа конкретного товара.
type ProductOrderForm struct {
	CustomerName string
	Phone        string
	Quantity     int
	Note         string
}

// OrderForm описывает форму регистрации посылки по трек-номеру.
type OrderForm struct {
	TrackingNumber string
	Note           string
}

type authRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type productOrderRequest struct {
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	Quantity     int    `json:"quantity"`
	Note         string `json:"note,omitempty"`
}

type orderRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Note           string `json:"note,omitempty"`
}

// Service выполняет операции витрины от имени одной сессии.
type Service struct {
	api     api.Requester
	session *session.Session
	logger  *zap.Logger
}

// NewService создаёт сервис поверх конвейера запросов и сессии.
func NewService(requester api.Requester, sess *session.Session, logger *zap.Logger) *Service {
	if sess == nil {
		sess = session.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:     requester,
		session: sess,
		logger:  logger,
	}
}

// Session возвращает сессию сервиса.
func (s *Service) Session() *session.Session {
	return s.session
}

// Register регистрирует пользователя и открывает сессию.
func (s *Service) Register(ctx context.Context, creds Credentials) (model.AuthSession, error) {
	phone, password, err := validateCredentials(creds)
	if err != nil {
		return model.AuthSession{}, err
	}
	if password != strings.TrimSpace(creds.Confirm) {
		return model.AuthSession{}, ErrPasswordMismatch
	}

	body := authRequest{
		Phone:    phone,
		Password: password,
		Name:     strings.TrimSpace(creds.Name),
	}
	return s.authenticate(ctx, "/api/auth/register", body)
}

// Login выполняет вход и открывает сессию.
func (s *Service) Login(ctx context.Context, creds Credentials) (model.AuthSession, error) {
	phone, password, err := validateCredentials(creds)
	if err != nil {
		return model.AuthSession{}, err
	}

	body := authRequest{Phone: phone, Password: password}
	return s.authenticate(ctx, "/api/auth/login", body)
}

func (s *Service) authenticate(ctx context.Context, path string, body authRequest) (model.AuthSession, error) {
	env, err := s.api.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return model.AuthSession{}, err
	}

	auth, ok := model.NormalizeAuthSession(env.Payload)
	if !ok {
		return model.AuthSession{}, api.Malformed("Invalid auth response")
	}

	s.session.Start(auth.Token, auth.User)
	s.logger.Debug("session started", zap.String("path", path))
	return auth, nil
}

// validateCredentials возвращает номер в формате E.164 и пароль без окружающих пробелов.
func validateCredentials(creds Credentials) (string, string, error) {
	phone, ok := validation.NormalizePhone(creds.Phone)
	if !ok {
		return "", "", ErrInvalidPhone
	}
	password := strings.TrimSpace(creds.Password)
	if !validation.IsValidPassword(password) {
		return "", "", ErrPasswordTooShort
	}
	return phone, password, nil
}

// Logout завершает сессию.
func (s *Service) Logout() {
	s.session.Clear()
}

// Profile запрашивает профиль текущего пользователя и обновляет его в сессии.
func (s *Service) Profile(ctx context.Context) (model.User, error) {
	token := s.session.Token()
	if token == "" {
		return model.User{}, ErrNotAuthenticated
	}

	env, err := s.api.Do(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/api/auth/profile",
		Token:  token,
	})
	if err != nil {
		return model.User{}, err
	}

	profile, ok := model.NormalizeProfileSession(env.Payload)
	if !ok {
		return model.User{}, api.Malformed("Invalid profile response")
	}

	s.session.SetUser(profile.User)
	return profile.User, nil
}

// ListProducts возвращает каталог. Если задана категория, остаются только товары этой категории
// в порядке, полученном от сервера.
func (s *Service) ListProducts(ctx context.Context, category *model.Category) ([]model.Product, error) {
	req := api.Request{Method: http.MethodGet, Path: "/api/products"}
	if category != nil {
		req.Query = url.Values{"category": []string{string(*category)}}
	}

	env, err := s.api.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	items, ok := model.FindList(env.Payload, "products")
	if !ok {
		return nil, api.Malformed("Invalid products response")
	}

	products := model.NormalizeProducts(items)
	if category == nil {
		return products, nil
	}

	filtered := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.Category.Equal(*category) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id string) (model.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Product{}, ErrMissingProduct
	}

	env, err := s.api.Do(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/api/products/" + url.PathEscape(id),
	})
	if err != nil {
		return model.Product{}, err
	}

	product, ok := model.NormalizeProduct(env.Field("product"))
	if !ok {
		return model.Product{}, api.Malformed("Invalid product response")
	}
	return product, nil
}

// CreateProductOrder оформляет заказ товара. Количество меньше единицы заменяется единицей.
func (s *Service) CreateProductOrder(ctx context.Context, productID string, form ProductOrderForm) (model.OrderReceipt, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return model.OrderReceipt{}, ErrMissingProduct
	}

	body := productOrderRequest{
		CustomerName: strings.TrimSpace(form.CustomerName),
		Phone:        strings.TrimSpace(form.Phone),
		Quantity:     max(form.Quantity, 1),
		Note:         strings.TrimSpace(form.Note),
	}
	if body.CustomerName == "" || body.Phone == "" {
		return model.OrderReceipt{}, ErrMissingCustomer
	}

	env, err := s.api.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/api/products/" + url.PathEscape(productID) + "/order",
		Body:   body,
	})
	if err != nil {
		return model.OrderReceipt{}, err
	}

	receipt, ok := model.NormalizeOrderReceipt(env.Field("order"))
	if !ok {
		return model.OrderReceipt{}, api.Malformed("Invalid order response")
	}
	return receipt, nil
}

// ListOrders возвращает заказы текущего пользователя.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	token := s.session.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	env, err := s.api.Do(ctx, api.Request{
		Method: http.MethodGet,
		Path:   "/api/orders",
		Token:  token,
	})
	if err != nil {
		return nil, err
	}

	items, ok := model.FindList(env.Payload, "orders")
	if !ok {
		return nil, api.Malformed("Invalid orders response")
	}
	return model.NormalizeOrders(items), nil
}

// CreateOrder регистрирует заказ по трек-номеру.
func (s *Service) CreateOrder(ctx context.Context, form OrderForm) (model.Order, error) {
	token := s.session.Token()
	if token == "" {
		return model.Order{}, ErrNotAuthenticated
	}

	body := orderRequest{
		TrackingNumber: strings.TrimSpace(form.TrackingNumber),
		Note:           strings.TrimSpace(form.Note),
	}
	if body.TrackingNumber == "" {
		return model.Order{}, ErrMissingTrackingNumber
	}

	env, err := s.api.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/api/orders",
		Body:   body,
		Token:  token,
	})
	if err != nil {
		return model.Order{}, err
	}

	order, ok := model.NormalizeOrder(env.Field("order"))
	if !ok {
		return model.Order{}, api.Malformed("Invalid create order response")
	}
	return order, nil
}

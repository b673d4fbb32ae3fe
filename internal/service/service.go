// Package service реализует бизнес-логику локального бэкенда витрины.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/validation"
)

var (
	// ErrInvalidCredentials возвращается при неверном телефоне или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidOrder       = errors.New("invalid order")
)

// OrderStatusCreated задаёт статус нового заказа.
const OrderStatusCreated = "CREATED"

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, phone, name string, passwordHash []byte) (string, error)
	GetUserByPhone(ctx context.Context, phone string) (*repository.User, error)
	GetUserByID(ctx context.Context, id string) (*repository.User, error)
	TouchLogin(ctx context.Context, id string) error
	ListProducts(ctx context.Context, category string) ([]repository.Product, error)
	GetProduct(ctx context.Context, id string) (*repository.Product, error)
	AddProductOrder(ctx context.Context, o repository.ProductOrder) (repository.ProductOrder, error)
	AddOrder(ctx context.Context, o repository.Order) (repository.Order, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]repository.Order, error)
}

// Service содержит бизнес-логику локального бэкенда.
type Service struct {
	repo     Repository
	hashCost int
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		hashCost: bcrypt.DefaultCost,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя.
func (s *Service) RegisterUser(ctx context.Context, phone, password, name string) (*repository.User, error) {
	normalized, err := checkCredentials(phone, password)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, normalized, strings.TrimSpace(name), hashed)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

// AuthenticateUser проверяет телефон и пароль и возвращает пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, phone, password string) (*repository.User, error) {
	normalized, err := checkCredentials(phone, password)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.TouchLogin(ctx, u.ID); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, u.ID)
}

func checkCredentials(phone, password string) (string, error) {
	normalized, ok := validation.NormalizePhone(phone)
	if !ok {
		return "", ErrInvalidPhone
	}
	if !validation.IsValidPassword(password) {
		return "", ErrPasswordTooShort
	}
	return normalized, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id string) (*repository.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListProducts возвращает каталог, при необходимости отфильтрованный по категории.
func (s *Service) ListProducts(ctx context.Context, category string) ([]repository.Product, error) {
	return s.repo.ListProducts(ctx, strings.TrimSpace(category))
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id string) (*repository.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// CreateProductOrder оформляет заказ товара.
func (s *Service) CreateProductOrder(ctx context.Context, o repository.ProductOrder) (repository.ProductOrder, error) {
	o.CustomerName = strings.TrimSpace(o.CustomerName)
	o.Phone = strings.TrimSpace(o.Phone)
	if o.CustomerName == "" || o.Phone == "" {
		return repository.ProductOrder{}, fmt.Errorf("%w: customer name and phone are required", ErrInvalidOrder)
	}
	if o.Quantity < 1 {
		o.Quantity = 1
	}
	return s.repo.AddProductOrder(ctx, o)
}

// AddOrder регистрирует заказ пользователя по трек-номеру.
func (s *Service) AddOrder(ctx context.Context, userID, trackingNumber, note string) (repository.Order, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return repository.Order{}, fmt.Errorf("%w: tracking number is required", ErrInvalidOrder)
	}

	return s.repo.AddOrder(ctx, repository.Order{
		UserID:         userID,
		TrackingNumber: trackingNumber,
		Status:         OrderStatusCreated,
		Note:           strings.TrimSpace(note),
	})
}

// GetOrdersByUser возвращает список заказов пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID string) ([]repository.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

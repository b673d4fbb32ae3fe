// Package repository содержит хранилище данных локального бэкенда витрины в памяти процесса.
package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserExists возвращается при попытке создать пользователя с уже занятым телефоном.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
)

// User представляет учётную запись пользователя.
type User struct {
	ID           string
	Phone        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// Product описывает товар каталога.
type Product struct {
	ID          string
	Name        string
	Price       float64
	Category    string
	Image       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Order описывает заказ пользователя по трек-номеру.
type Order struct {
	ID             string
	UserID         string
	TrackingNumber string
	Status         string
	Note           string
	Price          float64
	WeightKg       float64
	CreatedAt      time.Time
}

// ProductOrder описывает заказ товара из каталога.
type ProductOrder struct {
	ID           string
	ProductID    string
	CustomerName string
	Phone        string
	Quantity     int
	Note         string
	CreatedAt    time.Time
}

// MemoryRepository хранит данные в памяти. Безопасен для конкурентного использования.
type MemoryRepository struct {
	mu            sync.RWMutex
	now           func() time.Time
	usersByID     map[string]*User
	usersByPhone  map[string]string
	products      []Product
	orders        []Order
	productOrders []ProductOrder
}

// NewMemoryRepository создаёт пустое хранилище.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:          time.Now,
		usersByID:    make(map[string]*User),
		usersByPhone: make(map[string]string),
	}
}

// Close освобождает ресурсы хранилища.
func (r *MemoryRepository) Close() error {
	return nil
}

// CreateUser сохраняет нового пользователя и возвращает его идентификатор.
func (r *MemoryRepository) CreateUser(ctx context.Context, phone, name string, passwordHash []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.usersByPhone[phone]; ok {
		return "", ErrUserExists
	}

	u := &User{
		ID:           uuid.NewString(),
		Phone:        phone,
		Name:         name,
		PasswordHash: append([]byte(nil), passwordHash...),
		CreatedAt:    r.now().UTC(),
	}
	r.usersByID[u.ID] = u
	r.usersByPhone[phone] = u.ID
	return u.ID, nil
}

// GetUserByPhone возвращает пользователя по телефону.
func (r *MemoryRepository) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usersByPhone[phone]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *r.usersByID[id]
	return &u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.usersByID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// TouchLogin фиксирует время последнего входа.
func (r *MemoryRepository) TouchLogin(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.usersByID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.LastLoginAt = r.now().UTC()
	return nil
}

// AddProduct добавляет товар в каталог и возвращает его с присвоенным идентификатором.
func (r *MemoryRepository) AddProduct(ctx context.Context, p Product) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := r.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.products = append(r.products, p)
	return p, nil
}

// ListProducts возвращает товары, начиная с самых новых. Пустая категория означает все товары.
func (r *MemoryRepository) ListProducts(ctx context.Context, category string) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetProduct возвращает товар по идентификатору.
func (r *MemoryRepository) GetProduct(ctx context.Context, id string) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrProductNotFound
}

// AddProductOrder сохраняет заказ товара. Товар должен существовать.
func (r *MemoryRepository) AddProductOrder(ctx context.Context, o ProductOrder) (ProductOrder, error) {
	if err := ctx.Err(); err != nil {
		return ProductOrder{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for _, p := range r.products {
		if p.ID == o.ProductID {
			found = true
			break
		}
	}
	if !found {
		return ProductOrder{}, ErrProductNotFound
	}

	o.ID = uuid.NewString()
	o.CreatedAt = r.now().UTC()
	r.productOrders = append(r.productOrders, o)
	return o, nil
}

// AddOrder сохраняет заказ пользователя по трек-номеру.
func (r *MemoryRepository) AddOrder(ctx context.Context, o Order) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.usersByID[o.UserID]; !ok {
		return Order{}, ErrUserNotFound
	}

	o.ID = uuid.NewString()
	o.CreatedAt = r.now().UTC()
	r.orders = append(r.orders, o)
	return o, nil
}

// GetOrdersByUser возвращает заказы пользователя, начиная с самых новых.
func (r *MemoryRepository) GetOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Order, 0)
	for i := len(r.orders) - 1; i >= 0; i-- {
		if r.orders[i].UserID == userID {
			out = append(out, r.orders[i])
		}
	}
	return out, nil
}

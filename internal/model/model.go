// Package model содержит записи витрины и нормализаторы ответов API.
package model

import "time"

// Product описывает товар каталога.
type Product struct {
	ID          string
	Name        string
	Price       float64
	Category    Category
	Image       *string
	Description *string
	CreatedAt   *string
	UpdatedAt   *string
}

// Created возвращает дату создания товара или нулевое время.
func (p Product) Created() time.Time {
	return parseTime(p.CreatedAt)
}

// OrderStatusCreated задаёт статус заказа по умолчанию.
const OrderStatusCreated = "CREATED"

// Order описывает заказ доставки пользователя.
type Order struct {
	ID             string
	TrackingNumber string
	Status         string
	Note           *string
	Price          float64
	WeightKg       float64
	CreatedAt      *string
}

// Created возвращает дату создания заказа или нулевое время.
func (o Order) Created() time.Time {
	return parseTime(o.CreatedAt)
}

// User описывает профиль пользователя.
type User struct {
	ID                  string
	Phone               string
	Name                *string
	Email               *string
	Role                *string
	ClassroomAccess     bool
	AvatarURL           *string
	Age                 *int
	LastVerifiedAt      *string
	LastLoginAt         *string
	LastPasswordResetAt *string
	CreatedAt           *string
	UpdatedAt           *string
	HasPassword         bool
}

// DisplayName возвращает имя пользователя или его телефон.
func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Phone
}

// AuthSession описывает ответ регистрации и входа.
type AuthSession struct {
	Token string
	User  *User
}

// ProfileSession описывает ответ запроса профиля.
type ProfileSession struct {
	User User
}

// OrderReceipt подтверждает оформление заказа товара.
type OrderReceipt struct {
	OrderID string
}

// ShortID возвращает последние шесть символов идентификатора заказа.
func (r OrderReceipt) ShortID() string {
	if len(r.OrderID) <= 6 {
		return r.OrderID
	}
	return r.OrderID[len(r.OrderID)-6:]
}

func parseTime(value *string) time.Time {
	if value == nil || *value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, *value); err == nil {
			return t
		}
	}
	return time.Time{}
}

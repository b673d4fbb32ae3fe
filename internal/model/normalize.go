package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var defaultListKeys = []string{"items", "data", "results"}

// NormalizeProduct строит Product из произвольного JSON-значения.
func NormalizeProduct(raw any) (Product, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Product{}, false
	}

	id, ok := requiredString(obj, "_id", "id")
	if !ok {
		return Product{}, false
	}
	name, ok := requiredString(obj, "name")
	if !ok {
		return Product{}, false
	}
	price, ok := toNumber(obj["price"])
	if !ok {
		return Product{}, false
	}

	category, _ := obj["category"].(string)

	return Product{
		ID:          id,
		Name:        name,
		Price:       price,
		Category:    ParseCategory(category),
		Image:       optionalString(obj, "image"),
		Description: optionalString(obj, "description"),
		CreatedAt:   optionalString(obj, "createdAt"),
		UpdatedAt:   optionalString(obj, "updatedAt"),
	}, true
}

// NormalizeOrder строит Order из произвольного JSON-значения.
func NormalizeOrder(raw any) (Order, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Order{}, false
	}

	id, ok := requiredString(obj, "_id", "id")
	if !ok {
		return Order{}, false
	}
	tracking, ok := requiredString(obj, "trackingNumber")
	if !ok {
		return Order{}, false
	}
	price, ok := toNumber(obj["price"])
	if !ok {
		return Order{}, false
	}
	weight, ok := toNumber(obj["weightKg"])
	if !ok {
		return Order{}, false
	}

	status, ok := obj["status"].(string)
	if !ok {
		status = OrderStatusCreated
	}

	return Order{
		ID:             id,
		TrackingNumber: tracking,
		Status:         status,
		Note:           optionalString(obj, "note"),
		Price:          price,
		WeightKg:       weight,
		CreatedAt:      optionalString(obj, "createdAt"),
	}, true
}

// NormalizeUser строит User из произвольного JSON-значения.
func NormalizeUser(raw any) (User, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return User{}, false
	}

	id, ok := requiredString(obj, "id", "_id")
	if !ok {
		return User{}, false
	}
	phone, ok := requiredString(obj, "phone")
	if !ok {
		return User{}, false
	}

	var age *int
	if v, present := obj["age"]; present && v != nil {
		if n, ok := toNumber(v); ok {
			a := int(n)
			age = &a
		}
	}

	classroom, _ := obj["classroomAccess"].(bool)
	hasPassword, _ := obj["hasPassword"].(bool)

	return User{
		ID:                  id,
		Phone:               phone,
		Name:                optionalString(obj, "name"),
		Email:               optionalString(obj, "email"),
		Role:                optionalString(obj, "role"),
		ClassroomAccess:     classroom,
		AvatarURL:           optionalString(obj, "avatarUrl"),
		Age:                 age,
		LastVerifiedAt:      optionalString(obj, "lastVerifiedAt"),
		LastLoginAt:         optionalString(obj, "lastLoginAt"),
		LastPasswordResetAt: optionalString(obj, "lastPasswordResetAt"),
		CreatedAt:           optionalString(obj, "createdAt"),
		UpdatedAt:           optionalString(obj, "updatedAt"),
		HasPassword:         hasPassword,
	}, true
}

// NormalizeAuthSession строит AuthSession из ответа регистрации или входа.
// Токен обязателен; пользователь может отсутствовать.
func NormalizeAuthSession(raw any) (AuthSession, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return AuthSession{}, false
	}

	token, ok := requiredString(obj, "token")
	if !ok {
		return AuthSession{}, false
	}

	session := AuthSession{Token: token}
	if u, ok := NormalizeUser(obj["user"]); ok {
		session.User = &u
	}
	return session, true
}

// NormalizeProfileSession строит ProfileSession из ответа запроса профиля.
func NormalizeProfileSession(raw any) (ProfileSession, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return ProfileSession{}, false
	}

	u, ok := NormalizeUser(obj["user"])
	if !ok {
		return ProfileSession{}, false
	}
	return ProfileSession{User: u}, true
}

// NormalizeOrderReceipt извлекает идентификатор созданного заказа из объекта order.
func NormalizeOrderReceipt(raw any) (OrderReceipt, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return OrderReceipt{}, false
	}

	id, ok := requiredString(obj, "_id", "id")
	if !ok {
		return OrderReceipt{}, false
	}
	return OrderReceipt{OrderID: id}, true
}

// FindList находит массив в ответе: голый массив или поле объекта с одним из ключей.
// После переданных ключей проверяются items, data и results; объект data просматривается на один уровень.
func FindList(raw any, keys ...string) ([]any, bool) {
	if items, ok := raw.([]any); ok {
		return items, true
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	all := append(append([]string(nil), keys...), defaultListKeys...)
	for _, key := range all {
		if items, ok := obj[key].([]any); ok {
			return items, true
		}
	}

	if nested, ok := obj["data"].(map[string]any); ok {
		for _, key := range all {
			if items, ok := nested[key].([]any); ok {
				return items, true
			}
		}
	}

	return nil, false
}

// NormalizeList применяет нормализатор к каждому элементу и отбрасывает отвергнутые, сохраняя порядок.
func NormalizeList[T any](items []any, normalize func(any) (T, bool)) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if v, ok := normalize(item); ok {
			out = append(out, v)
		}
	}
	return out
}

// NormalizeProducts нормализует список товаров.
func NormalizeProducts(items []any) []Product {
	return NormalizeList(items, NormalizeProduct)
}

// NormalizeOrders нормализует список заказов.
func NormalizeOrders(items []any) []Order {
	return NormalizeList(items, NormalizeOrder)
}

func requiredString(obj map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func optionalString(obj map[string]any, key string) *string {
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// toNumber приводит число или числовую строку к float64. Отсутствующее или пустое значение даёт 0.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, true
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

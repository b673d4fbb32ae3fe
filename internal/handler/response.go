package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mmeshcher/storefront/internal/repository"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type userResponse struct {
	ID              string  `json:"id"`
	Phone           string  `json:"phone"`
	Name            *string `json:"name"`
	Role            string  `json:"role"`
	ClassroomAccess bool    `json:"classroomAccess"`
	HasPassword     bool    `json:"hasPassword"`
	LastLoginAt     *string `json:"lastLoginAt"`
	CreatedAt       string  `json:"createdAt"`
}

type productResponse struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type productOrderResponse struct {
	ID           string  `json:"_id"`
	ProductID    string  `json:"productId"`
	CustomerName string  `json:"customerName"`
	Phone        string  `json:"phone"`
	Quantity     int     `json:"quantity"`
	Note         *string `json:"note"`
	CreatedAt    string  `json:"createdAt"`
}

type orderResponse struct {
	ID             string  `json:"_id"`
	TrackingNumber string  `json:"trackingNumber"`
	Status         string  `json:"status"`
	Note           *string `json:"note"`
	Price          float64 `json:"price"`
	WeightKg       float64 `json:"weightKg"`
	CreatedAt      string  `json:"createdAt"`
}

func toUserResponse(u *repository.User) userResponse {
	resp := userResponse{
		ID:          u.ID,
		Phone:       u.Phone,
		Name:        optional(u.Name),
		Role:        "customer",
		HasPassword: len(u.PasswordHash) > 0,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
	if !u.LastLoginAt.IsZero() {
		resp.LastLoginAt = optional(u.LastLoginAt.Format(time.RFC3339))
	}
	return resp
}

func toProductResponse(p repository.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Category:    p.Category,
		Image:       optional(p.Image),
		Description: optional(p.Description),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func toOrderResponse(o repository.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		TrackingNumber: o.TrackingNumber,
		Status:         o.Status,
		Note:           optional(o.Note),
		Price:          o.Price,
		WeightKg:       o.WeightKg,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

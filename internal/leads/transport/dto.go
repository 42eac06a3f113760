// Package transport defines request/response DTOs for the leads API.
package transport

import (
	"time"

	"dialer_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	BusinessName    string     `json:"businessName,omitempty"`
	ContactName     string     `json:"contactName,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Email           string     `json:"email,omitempty"`
	Address         string     `json:"address,omitempty"`
	City            string     `json:"city,omitempty"`
	Industry        string     `json:"industry,omitempty"`
	Score           string     `json:"score"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ToLeadResponse maps a domain lead to its API shape.
func ToLeadResponse(lead domain.Lead) LeadResponse {
	return LeadResponse{
		ID:              lead.ID,
		BusinessName:    lead.BusinessName,
		ContactName:     lead.ContactName,
		Phone:           lead.Phone,
		Email:           lead.Email,
		Address:         lead.Address,
		City:            lead.City,
		Industry:        lead.Industry,
		Score:           lead.Score,
		Status:          lead.Status,
		Notes:           lead.Notes,
		LastContactedAt: lead.LastContactedAt,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

// ListLeadsQuery holds the supported list filters.
type ListLeadsQuery struct {
	Status string `form:"status"`
	Score  string `form:"score"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

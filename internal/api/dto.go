package api

import (
	"time"

	"github.com/kazukitoyoda1215-max/Supporton/internal/console"
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// LoginRequest is the request body for POST /login.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token     string    `json:"token" validate:"required"`
	ExpiresAt time.Time `json:"expiresAt" validate:"required"`
}

// ConfigResponse is returned by PUT /config. Sync is set when spreadsheet
// mode triggered an immediate sync.
type ConfigResponse struct {
	Config models.AppConfig    `json:"config"`
	Sync   *console.SyncReport `json:"sync,omitempty"`
}

// AddChildRequest is the request body for POST /flow/children.
type AddChildRequest struct {
	Path  []string `json:"path"`
	Title string   `json:"title" example:"解約" validate:"required"`
}

// SaveContentRequest is the request body for PUT /flow/content.
type SaveContentRequest struct {
	Path     []string `json:"path" validate:"required"`
	Content  string   `json:"content"`
	Template string   `json:"template"`
}

// SearchResponse wraps flow search hits.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// SearchResult is a single flow search hit.
type SearchResult struct {
	ID    string   `json:"id" validate:"required"`
	Title string   `json:"title" validate:"required"`
	Path  []string `json:"path" validate:"required"`
}

// AddPhoneRequest is the request body for POST /phones.
type AddPhoneRequest struct {
	Number string           `json:"number" example:"0120-000-000" validate:"required"`
	Name   string           `json:"name" validate:"required"`
	Note   string           `json:"note"`
	Type   models.PhoneType `json:"type" example:"safe"`
}

// PhoneListResponse wraps directory listings.
type PhoneListResponse struct {
	Phones []models.PhoneEntry `json:"phones" validate:"required"`
	Total  int                 `json:"total" validate:"required"`
}

// MaterialTextRequest selects materials by id.
type MaterialTextRequest struct {
	IDs []string `json:"ids"`
}

// MaterialTextResponse carries the composed message.
type MaterialTextResponse struct {
	Text string `json:"text"`
}

package api

import (
	"github.com/artpar/packlist/internal/core/domain"
)

// =============================================================================
// Request Types
// =============================================================================

// ItemRequest is the request body for creating or updating an item.
type ItemRequest struct {
	Name     string  `json:"name"`
	Function string  `json:"function"`
	Weight   float64 `json:"weight"`
	Volume   float64 `json:"volume"`
	Price    float64 `json:"price"`
	Amount   int     `json:"amount"`
}

// PackRequest is the request body for creating or updating a pack.
// On update, an absent items or packs list leaves those edges unchanged and
// an empty list removes them.
type PackRequest struct {
	Name     string                  `json:"name"`
	Function string                  `json:"function"`
	Items    []domain.SelectionEntry `json:"items,omitempty"`
	Packs    []domain.SelectionEntry `json:"packs,omitempty"`
}

// SelectionRequest is the request body for replacing a pack's edges.
type SelectionRequest struct {
	Selections []domain.SelectionEntry `json:"selections"`
}

// =============================================================================
// Response Types
// =============================================================================

// ItemResponse is the response for item operations.
type ItemResponse struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Function string  `json:"function"`
	Weight   float64 `json:"weight"`
	Volume   float64 `json:"volume"`
	Price    float64 `json:"price"`
	Amount   int     `json:"amount"`
}

// PackResponse is the response for pack operations.
type PackResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Function string `json:"function"`
}

// ItemEntryResponse is an item with its selected quantity in a pack.
type ItemEntryResponse struct {
	ItemResponse
	Selected int `json:"selected"`
}

// PackEntryResponse is a pack with its selected quantity in another pack.
type PackEntryResponse struct {
	PackResponse
	Selected int `json:"selected"`
}

// AttributesResponse is the resolved aggregate of a pack.
// BuildableAmount is null when no component limits the pack.
type AttributesResponse struct {
	PackID          int64        `json:"pack_id"`
	Name            string       `json:"name"`
	Function        string       `json:"function"`
	Weight          float64      `json:"weight"`
	Volume          float64      `json:"volume"`
	Price           float64      `json:"price"`
	BuildableAmount *int         `json:"buildable_amount"`
	Unbounded       bool         `json:"unbounded"`
	Units           domain.Units `json:"units"`
}

// CycleCheckResponse is the response for a cycle guard query.
type CycleCheckResponse struct {
	PackID      int64 `json:"pack_id"`
	CandidateID int64 `json:"candidate_id"`
	WouldCycle  bool  `json:"would_cycle"`
}

// ListItemsResponse is the response for listing items.
type ListItemsResponse struct {
	Items  []ItemResponse `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ListPacksResponse is the response for listing packs.
type ListPacksResponse struct {
	Packs  []PackResponse `json:"packs"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ItemEntriesResponse is the response for pack item membership queries.
type ItemEntriesResponse struct {
	PackID   int64               `json:"pack_id"`
	Included bool                `json:"included"`
	Items    []ItemEntryResponse `json:"items"`
}

// PackEntriesResponse is the response for pack sub-pack membership queries.
type PackEntriesResponse struct {
	PackID   int64               `json:"pack_id"`
	Included bool                `json:"included"`
	Packs    []PackEntryResponse `json:"packs"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

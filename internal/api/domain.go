package api

import "github.com/FACorreiaa/go-day-planner/internal/types"

// Response represents a generic API response for success or error messages.
type Response struct {
	Success   bool   `json:"success" example:"false"`
	Message   string `json:"message,omitempty" example:"Operation successful"`
	Error     string `json:"error,omitempty" example:"Resource not found"`
	RequestID string `json:"request_id,omitempty"`
}

// PlanResponse wraps a created or fetched itinerary.
type PlanResponse struct {
	Success   bool             `json:"success" example:"true"`
	Itinerary *types.Itinerary `json:"itinerary"`
}

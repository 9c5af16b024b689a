package handler

import (
	"docproc/internal/domain"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// LineItemsRequest carries line items for matching or saving.
type LineItemsRequest struct {
	Items []domain.LineItem `json:"items" binding:"required"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// DocumentWithDownloadURL represents a document with a link to its stored original.
type DocumentWithDownloadURL struct {
	Document    domain.Document `json:"document"`
	DownloadURL string          `json:"download_url" example:"https://s3.amazonaws.com/docproc-uploads/...?X-Amz-Signature=..."`
}

// Response wraps a successful response.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}

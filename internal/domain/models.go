package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded source document and its lifecycle state.
type Document struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	Filename      string         `db:"filename" json:"filename"`
	ContentType   string         `db:"content_type" json:"content_type"`
	FileSize      int64          `db:"file_size" json:"file_size"`
	StorageBucket string         `db:"storage_bucket" json:"storage_bucket,omitempty"`
	StorageKey    string         `db:"storage_key" json:"storage_key,omitempty"`
	UploadDate    time.Time      `db:"upload_date" json:"upload_date"`
	Status        DocumentStatus `db:"status" json:"status"`
	ProcessedAt   *time.Time     `db:"processed_at" json:"processed_at"`
}

// NewDocument returns a document in the uploaded state with a fresh identifier.
func NewDocument(name string) *Document {
	return &Document{
		ID:         uuid.New(),
		Filename:   name,
		UploadDate: time.Now().UTC(),
		Status:     DocumentStatusUploaded,
	}
}

// MarkProcessed advances the document to processed. Calling it on a document
// that is already processed leaves it untouched.
func (d *Document) MarkProcessed(at time.Time) {
	if d.Status == DocumentStatusProcessed {
		return
	}
	d.Status = DocumentStatusProcessed
	t := at.UTC()
	d.ProcessedAt = &t
}

// IsProcessed reports whether line items have been committed for the document.
func (d *Document) IsProcessed() bool {
	return d.Status == DocumentStatusProcessed
}

// HasStoredObject reports whether the original payload was kept in object storage.
func (d *Document) HasStoredObject() bool {
	return d.StorageKey != ""
}

// LineItem is one reconciled row of a document.
type LineItem struct {
	DocumentID       uuid.UUID `db:"document_id" json:"-"`
	LineNumber       int       `db:"line_number" json:"line_number"`
	ProductCode      string    `db:"product_code" json:"product_code"`
	ManufacturerCode string    `db:"manufacturer_code" json:"manufacturer_code"`
	Description      string    `db:"description" json:"description"`
	Quantity         float64   `db:"quantity" json:"quantity"`
	UnitPrice        float64   `db:"unit_price" json:"unit_price"`
	UnitType         string    `db:"unit_type" json:"unit_type"`
	TotalPrice       float64   `db:"total_price" json:"total_price"`
	MatchedProductID string    `db:"matched_product_id" json:"matched_product_id"`
}

// MatchQuery is what the matching capability sees of a line item.
type MatchQuery struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
}

// MatchResult is the outcome for one query position. ProductID is NoMatch
// when the catalog declined to match.
type MatchResult struct {
	ProductID string `json:"product_id"`
}

// Matched reports whether the position resolved to a catalog product.
func (r MatchResult) Matched() bool {
	return r.ProductID != "" && r.ProductID != NoMatch
}

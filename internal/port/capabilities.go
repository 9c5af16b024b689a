package port

import (
	"context"
	"io"

	"docproc/internal/domain"
)

// ExtractInput carries the source document handed to the extraction capability.
type ExtractInput struct {
	Filename string
	Body     io.Reader
	Size     int64
}

// LineItemExtractor turns a source document into normalized line items.
type LineItemExtractor interface {
	Extract(ctx context.Context, input ExtractInput) ([]domain.LineItem, error)
}

// ProductMatcher resolves match queries to catalog products. The result has
// the same length and order as queries.
type ProductMatcher interface {
	Match(ctx context.Context, queries []domain.MatchQuery) ([]domain.MatchResult, error)
}

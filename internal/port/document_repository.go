package port

import (
	"context"

	"github.com/google/uuid"

	"docproc/internal/domain"
)

// DocumentRepository defines the contract for document persistence.
// Documents are created here; their status only changes through LineItemRepository.Commit.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, offset, limit int) ([]domain.Document, int, error)
	Ping(ctx context.Context) error
}

// LineItemRepository defines the contract for line item persistence.
type LineItemRepository interface {
	ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.LineItem, error)
	// Commit writes items and marks the document processed as one transaction.
	// On any failure nothing is written and the document keeps its prior status.
	Commit(ctx context.Context, docID uuid.UUID, items []domain.LineItem, policy domain.ResavePolicy) (*domain.Document, error)
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docproc/internal/domain"
	"docproc/internal/port"
)

const documentColumns = `id, filename, content_type, file_size, storage_bucket, storage_key,
	upload_date, status, processed_at`

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *domain.Document) error {
	query := `INSERT INTO documents (
		id, filename, content_type, file_size, storage_bucket, storage_key,
		upload_date, status, processed_at
	) VALUES (
		:id, :filename, :content_type, :file_size, :storage_bucket, :storage_key,
		:upload_date, :status, :processed_at
	)`

	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return classifyError("documentRepo.Create", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.GetContext(ctx, &doc,
		"SELECT "+documentColumns+" FROM documents WHERE id = $1", docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, classifyError("documentRepo.GetByID", err)
	}
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context, offset, limit int) ([]domain.Document, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM documents"); err != nil {
		return nil, 0, classifyError("documentRepo.List count", err)
	}

	docs := []domain.Document{}
	err := r.db.SelectContext(ctx, &docs,
		`SELECT `+documentColumns+` FROM documents
		 ORDER BY upload_date DESC, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, classifyError("documentRepo.List", err)
	}
	return docs, total, nil
}

func (r *documentRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("documentRepo.Ping: %w", err)
	}
	return nil
}

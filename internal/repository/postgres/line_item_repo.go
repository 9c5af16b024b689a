package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docproc/internal/domain"
	"docproc/internal/port"
)

const lineItemColumns = `document_id, line_number, product_code, manufacturer_code, description,
	quantity, unit_price, unit_type, total_price, matched_product_id`

const lineItemColumnCount = 10

// insertBatchSize keeps a single INSERT well under PostgreSQL's 65535 bind
// parameter limit.
const insertBatchSize = 1000

type lineItemRepo struct {
	db *sqlx.DB
}

// NewLineItemRepo creates a new PostgreSQL-backed LineItemRepository.
func NewLineItemRepo(db *sqlx.DB) port.LineItemRepository {
	return &lineItemRepo{db: db}
}

func (r *lineItemRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.LineItem, error) {
	items := []domain.LineItem{}
	err := r.db.SelectContext(ctx, &items,
		"SELECT "+lineItemColumns+" FROM line_items WHERE document_id = $1 ORDER BY line_number",
		docID)
	if err != nil {
		return nil, classifyError("lineItemRepo.ListByDocument", err)
	}
	return items, nil
}

// Commit runs as one SERIALIZABLE transaction: the document row is locked,
// the re-save policy applied, every item inserted and the document marked
// processed. Any failure rolls the whole unit back.
func (r *lineItemRepo) Commit(ctx context.Context, docID uuid.UUID, items []domain.LineItem, policy domain.ResavePolicy) (*domain.Document, error) {
	const op = "lineItemRepo.Commit"

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, classifyError(op, err)
	}

	doc, err := commitTx(ctx, tx, docID, items, policy)
	if err != nil {
		rollback(tx, docID)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		rollback(tx, docID)
		return nil, classifyError(op, err)
	}

	log.Printf("lineItemRepo.Commit: document %s processed with %d line items", docID, len(items))
	return doc, nil
}

func commitTx(ctx context.Context, tx *sqlx.Tx, docID uuid.UUID, items []domain.LineItem, policy domain.ResavePolicy) (*domain.Document, error) {
	const op = "lineItemRepo.Commit"

	var doc domain.Document
	err := tx.GetContext(ctx, &doc,
		"SELECT "+documentColumns+" FROM documents WHERE id = $1 FOR UPDATE", docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, classifyError(op+" lock", err)
	}

	replace, err := prepareCommit(&doc, policy, time.Now())
	if err != nil {
		return nil, err
	}
	if replace {
		res, err := tx.ExecContext(ctx, "DELETE FROM line_items WHERE document_id = $1", docID)
		if err != nil {
			return nil, classifyError(op+" replace", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			log.Printf("lineItemRepo.Commit: replacing %d previous line items of document %s", n, docID)
		}
	}

	for start := 0; start < len(items); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(items) {
			end = len(items)
		}
		query, args := buildInsert(docID, items[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, classifyError(op+" insert", err)
		}
	}

	err = tx.GetContext(ctx, &doc,
		`UPDATE documents SET status = $1, processed_at = $2
		 WHERE id = $3 RETURNING `+documentColumns,
		doc.Status, doc.ProcessedAt, docID)
	if err != nil {
		return nil, classifyError(op+" status", err)
	}
	return &doc, nil
}

// prepareCommit applies the re-save policy and advances doc to processed in
// memory. It reports whether previously stored items must be deleted. A
// re-save keeps the original processed_at.
func prepareCommit(doc *domain.Document, policy domain.ResavePolicy, now time.Time) (bool, error) {
	const op = "lineItemRepo.Commit"

	if !doc.Status.CanTransitionTo(domain.DocumentStatusProcessed) {
		e := domain.NewError(domain.ErrConstraintViolation, op, nil)
		e.Detail = fmt.Sprintf("document %s has status %q", doc.ID, doc.Status)
		return false, e
	}

	replace := false
	if doc.IsProcessed() {
		if policy == domain.ResaveReject {
			return false, domain.NewError(domain.ErrConstraintViolation, op, domain.ErrDocumentAlreadyProcessed)
		}
		replace = true
	}

	doc.MarkProcessed(now)
	return replace, nil
}

// buildInsert renders a multi-row INSERT for items, all bound to docID.
func buildInsert(docID uuid.UUID, items []domain.LineItem) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO line_items (")
	sb.WriteString(lineItemColumns)
	sb.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(items)*lineItemColumnCount)
	for i := range items {
		it := &items[i]
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := 0; c < lineItemColumnCount; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*lineItemColumnCount+c+1)
		}
		sb.WriteString(")")

		args = append(args,
			docID, it.LineNumber, it.ProductCode, it.ManufacturerCode, it.Description,
			it.Quantity, it.UnitPrice, it.UnitType, it.TotalPrice, it.MatchedProductID)
	}
	return sb.String(), args
}

func rollback(tx *sqlx.Tx, docID uuid.UUID) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Printf("lineItemRepo.Commit: rollback for document %s failed: %v", docID, err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docproc/internal/config"
	"docproc/internal/domain"
	"docproc/internal/export"
	"docproc/internal/port"
)

const defaultStorageTimeout = 30 * time.Second

// UploadInput is the DTO for document upload requests.
type UploadInput struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// IngestionService coordinates the document pipeline: upload, extraction,
// matching and the atomic save of reconciled line items. Extraction and
// matching are independent round trips; nothing is chained automatically.
type IngestionService interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Document, error)
	List(ctx context.Context, offset, limit int) ([]domain.Document, int, error)
	GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	DownloadURL(ctx context.Context, docID uuid.UUID) (string, error)
	ListItems(ctx context.Context, docID uuid.UUID) ([]domain.LineItem, error)
	Extract(ctx context.Context, input port.ExtractInput) ([]domain.LineItem, error)
	Match(ctx context.Context, items []domain.LineItem) ([]domain.LineItem, error)
	Finalize(ctx context.Context, docID uuid.UUID, items []domain.LineItem) (*domain.Document, error)
	Export(ctx context.Context, docID uuid.UUID, format domain.ExportFormat) (*export.File, error)
}

type ingestionService struct {
	docRepo   port.DocumentRepository
	itemRepo  port.LineItemRepository
	extractor port.LineItemExtractor
	matcher   port.ProductMatcher
	storage   port.ObjectStorage
	cfg       *config.StorageConfig
	policy    domain.ResavePolicy
	timeout   time.Duration
}

// NewIngestionService creates a new IngestionService implementation.
func NewIngestionService(
	docRepo port.DocumentRepository,
	itemRepo port.LineItemRepository,
	extractor port.LineItemExtractor,
	matcher port.ProductMatcher,
	storage port.ObjectStorage,
	cfg *config.StorageConfig,
	ingestCfg *config.IngestConfig,
) IngestionService {
	policy := domain.ResavePolicy(ingestCfg.ResavePolicy)
	if !domain.ValidResavePolicies[policy] {
		policy = domain.ResaveReplace
	}
	timeout := ingestCfg.StorageTimeout
	if timeout <= 0 {
		timeout = defaultStorageTimeout
	}
	return &ingestionService{
		docRepo:   docRepo,
		itemRepo:  itemRepo,
		extractor: extractor,
		matcher:   matcher,
		storage:   storage,
		cfg:       cfg,
		policy:    policy,
		timeout:   timeout,
	}
}

// withStorageTimeout bounds storage work by the configured timeout unless the
// caller already set a deadline.
func (s *ingestionService) withStorageTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *ingestionService) Upload(ctx context.Context, input UploadInput) (*domain.Document, error) {
	const op = "ingestionService.Upload"

	if input.File == nil || input.Header == nil {
		return nil, domain.NewError(domain.ErrInvalidInput, op, errors.New("no file provided"))
	}

	// Validate file extension
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	// Validate file size
	if input.Header.Size > s.cfg.MaxFileSizeBytes() {
		return nil, domain.ErrFileTooLarge
	}

	// Read first 512 bytes for magic-byte content type detection
	buf := make([]byte, 512)
	n, err := io.ReadFull(input.File, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	if n == 0 {
		return nil, domain.NewError(domain.ErrInvalidInput, op, errors.New("file is empty"))
	}
	contentType := http.DetectContentType(buf[:n])
	if _, ok := domain.AllowedContentTypes[contentType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	// Seek back to beginning for upload
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	doc := domain.NewDocument(input.Header.Filename)
	doc.ContentType = contentType
	doc.FileSize = input.Header.Size

	ctx, cancel := s.withStorageTimeout(ctx)
	defer cancel()

	log.Printf("ingestionService.Upload: storing document %s (%s, %s, %d bytes)",
		doc.ID, input.Header.Filename, contentType, input.Header.Size)

	if s.storage.Enabled() {
		key := fmt.Sprintf("documents/%s/%s", doc.ID, input.Header.Filename)
		_, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.cfg.Bucket,
			Key:         key,
			Body:        input.File,
			ContentType: contentType,
			Size:        input.Header.Size,
		})
		if err != nil {
			log.Printf("ingestionService.Upload: object upload failed for document %s: %v", doc.ID, err)
			return nil, domain.ErrUploadFailed
		}
		doc.StorageBucket = s.cfg.Bucket
		doc.StorageKey = key
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		log.Printf("ingestionService.Upload: failed to create document %s: %v", doc.ID, err)
		if doc.HasStoredObject() {
			s.removeStoredObject(ctx, doc)
		}
		return nil, err
	}

	return doc, nil
}

// removeStoredObject deletes the original of a document whose row could not be
// created. It runs on its own deadline, detached from ctx, since an expired
// request context is a common reason the insert failed.
func (s *ingestionService) removeStoredObject(ctx context.Context, doc *domain.Document) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.storage.Delete(cleanupCtx, doc.StorageBucket, doc.StorageKey); err != nil {
		log.Printf("ingestionService.Upload: orphaned object %s/%s: %v", doc.StorageBucket, doc.StorageKey, err)
	}
}

func (s *ingestionService) List(ctx context.Context, offset, limit int) ([]domain.Document, int, error) {
	return s.docRepo.List(ctx, offset, limit)
}

func (s *ingestionService) GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	return s.docRepo.GetByID(ctx, docID)
}

// DownloadURL returns a presigned link to the stored original, or "" when the
// original was not kept.
func (s *ingestionService) DownloadURL(ctx context.Context, docID uuid.UUID) (string, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return "", err
	}
	if !doc.HasStoredObject() || !s.storage.Enabled() {
		return "", nil
	}
	return s.storage.GetPresignedURL(ctx, doc.StorageBucket, doc.StorageKey, s.cfg.PresignExpiry)
}

func (s *ingestionService) ListItems(ctx context.Context, docID uuid.UUID) ([]domain.LineItem, error) {
	if _, err := s.docRepo.GetByID(ctx, docID); err != nil {
		return nil, err
	}
	return s.itemRepo.ListByDocument(ctx, docID)
}

func (s *ingestionService) Extract(ctx context.Context, input port.ExtractInput) ([]domain.LineItem, error) {
	if input.Size > s.cfg.MaxFileSizeBytes() {
		return nil, domain.ErrFileTooLarge
	}
	return s.extractor.Extract(ctx, input)
}

// Match sends description and quantity of every item to the matcher and
// returns a copy of items with MatchedProductID set by position. Positions
// the matcher left empty become domain.NoMatch. items is never modified.
func (s *ingestionService) Match(ctx context.Context, items []domain.LineItem) ([]domain.LineItem, error) {
	queries := make([]domain.MatchQuery, len(items))
	for i := range items {
		queries[i] = items[i].Query()
	}

	results, err := s.matcher.Match(ctx, queries)
	if err != nil {
		return nil, err
	}

	merged := make([]domain.LineItem, len(items))
	copy(merged, items)
	for i := range merged {
		merged[i].MatchedProductID = domain.NoMatch
		if i < len(results) && results[i].ProductID != "" {
			merged[i].MatchedProductID = results[i].ProductID
		}
	}
	return merged, nil
}

// Finalize commits items for the document and marks it processed, all or
// nothing. Items are stored as given; totals are not recomputed.
func (s *ingestionService) Finalize(ctx context.Context, docID uuid.UUID, items []domain.LineItem) (*domain.Document, error) {
	const op = "ingestionService.Finalize"

	if len(items) == 0 {
		return nil, domain.NewError(domain.ErrInvalidInput, op, errors.New("no line items to save"))
	}
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return nil, domain.NewError(domain.ErrInvalidInput, op, fmt.Errorf("item %d: %w", i+1, err))
		}
	}

	ctx, cancel := s.withStorageTimeout(ctx)
	defer cancel()

	log.Printf("ingestionService.Finalize: saving %d line items for document %s (policy %s)", len(items), docID, s.policy)

	doc, err := s.itemRepo.Commit(ctx, docID, items, s.policy)
	if err != nil {
		log.Printf("ingestionService.Finalize: document %s: %v", docID, err)
		return nil, err
	}
	return doc, nil
}

func (s *ingestionService) Export(ctx context.Context, docID uuid.UUID, format domain.ExportFormat) (*export.File, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.ListByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	return export.Render(doc, items, format)
}

package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docproc/internal/domain"
	"docproc/internal/export"
	"docproc/internal/port"
	"docproc/internal/service"
)

// MockIngestionService is a mock implementation of service.IngestionService.
type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Upload(ctx context.Context, input service.UploadInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockIngestionService) List(ctx context.Context, offset, limit int) ([]domain.Document, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Document), args.Int(1), args.Error(2)
}

func (m *MockIngestionService) GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockIngestionService) DownloadURL(ctx context.Context, docID uuid.UUID) (string, error) {
	args := m.Called(ctx, docID)
	return args.String(0), args.Error(1)
}

func (m *MockIngestionService) ListItems(ctx context.Context, docID uuid.UUID) ([]domain.LineItem, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *MockIngestionService) Extract(ctx context.Context, input port.ExtractInput) ([]domain.LineItem, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *MockIngestionService) Match(ctx context.Context, items []domain.LineItem) ([]domain.LineItem, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *MockIngestionService) Finalize(ctx context.Context, docID uuid.UUID, items []domain.LineItem) (*domain.Document, error) {
	args := m.Called(ctx, docID, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockIngestionService) Export(ctx context.Context, docID uuid.UUID, format domain.ExportFormat) (*export.File, error) {
	args := m.Called(ctx, docID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.File), args.Error(1)
}

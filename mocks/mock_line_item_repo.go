package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docproc/internal/domain"
)

// MockLineItemRepo is a mock implementation of port.LineItemRepository.
type MockLineItemRepo struct {
	mock.Mock
}

func (m *MockLineItemRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.LineItem, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *MockLineItemRepo) Commit(ctx context.Context, docID uuid.UUID, items []domain.LineItem, policy domain.ResavePolicy) (*domain.Document, error) {
	args := m.Called(ctx, docID, items, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

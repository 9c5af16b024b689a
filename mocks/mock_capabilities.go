package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docproc/internal/domain"
	"docproc/internal/port"
)

// MockExtractor is a mock implementation of port.LineItemExtractor.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, input port.ExtractInput) ([]domain.LineItem, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

// MockMatcher is a mock implementation of port.ProductMatcher.
type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) Match(ctx context.Context, queries []domain.MatchQuery) ([]domain.MatchResult, error) {
	args := m.Called(ctx, queries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchResult), args.Error(1)
}

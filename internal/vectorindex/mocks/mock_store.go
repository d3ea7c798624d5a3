package mocks

import (
	"context"

	"warrantyai/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Init(ctx context.Context, dimensions int, modelName string) error {
	args := m.Called(ctx, dimensions, modelName)
	return args.Error(0)
}

func (m *MockStore) Replace(ctx context.Context, modelName, documentID string, chunks []model.Chunk) error {
	args := m.Called(ctx, modelName, documentID, chunks)
	return args.Error(0)
}

func (m *MockStore) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	args := m.Called(ctx, tenantID, documentID)
	return args.Error(0)
}

func (m *MockStore) Search(ctx context.Context, modelName string, vector []float32, k int, tenantID string) ([]model.Match, error) {
	args := m.Called(ctx, modelName, vector, k, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Match), args.Error(1)
}

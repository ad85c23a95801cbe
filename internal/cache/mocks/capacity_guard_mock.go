package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCapacityGuard struct {
	mock.Mock
}

func NewMockCapacityGuard() *MockCapacityGuard {
	return &MockCapacityGuard{}
}

func (m *MockCapacityGuard) WarmUp(ctx context.Context, eventID int, capacity int) error {
	args := m.Called(ctx, eventID, capacity)
	return args.Error(0)
}

func (m *MockCapacityGuard) Reserve(ctx context.Context, eventID int) (bool, bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *MockCapacityGuard) Release(ctx context.Context, eventID int) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

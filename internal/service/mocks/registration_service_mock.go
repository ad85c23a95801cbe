package mocks

import (
	"context"

	"event-lifecycle/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockRegistrationService struct {
	mock.Mock
}

func NewMockRegistrationService() *MockRegistrationService {
	return &MockRegistrationService{}
}

func (m *MockRegistrationService) Register(ctx context.Context, actor model.Actor, req model.CreateRegistrationRequest) (*model.Registration, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationService) Cancel(ctx context.Context, actor model.Actor, registrationID uuid.UUID, reason string) (*model.Registration, error) {
	args := m.Called(ctx, actor, registrationID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationService) GetByRegistrationID(ctx context.Context, actor model.Actor, registrationID uuid.UUID) (*model.Registration, error) {
	args := m.Called(ctx, actor, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationService) ListMine(ctx context.Context, actor model.Actor) ([]*model.Registration, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Registration), args.Error(1)
}

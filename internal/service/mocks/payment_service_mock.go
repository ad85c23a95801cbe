package mocks

import (
	"context"

	"event-lifecycle/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPaymentService struct {
	mock.Mock
}

func NewMockPaymentService() *MockPaymentService {
	return &MockPaymentService{}
}

func (m *MockPaymentService) UploadProof(ctx context.Context, actor model.Actor, registrationID uuid.UUID, proofRef string) (*model.Registration, error) {
	args := m.Called(ctx, actor, registrationID, proofRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockPaymentService) ListPending(ctx context.Context, actor model.Actor, eventID uuid.UUID, status *model.RegistrationStatus) ([]*model.Registration, error) {
	args := m.Called(ctx, actor, eventID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Registration), args.Error(1)
}

func (m *MockPaymentService) Approve(ctx context.Context, actor model.Actor, registrationID uuid.UUID, notes string) (*model.Registration, error) {
	args := m.Called(ctx, actor, registrationID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockPaymentService) Reject(ctx context.Context, actor model.Actor, registrationID uuid.UUID, notes string) (*model.Registration, error) {
	args := m.Called(ctx, actor, registrationID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockPaymentService) ReissueQR(ctx context.Context, actor model.Actor, registrationID uuid.UUID) (*model.Registration, error) {
	args := m.Called(ctx, actor, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

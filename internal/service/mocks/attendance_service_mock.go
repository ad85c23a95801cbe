package mocks

import (
	"context"

	"event-lifecycle/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAttendanceService struct {
	mock.Mock
}

func NewMockAttendanceService() *MockAttendanceService {
	return &MockAttendanceService{}
}

func (m *MockAttendanceService) Scan(ctx context.Context, actor model.Actor, payload string, method model.ScanMethod) (*model.CheckInResult, error) {
	args := m.Called(ctx, actor, payload, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckInResult), args.Error(1)
}

func (m *MockAttendanceService) Override(ctx context.Context, actor model.Actor, registrationID uuid.UUID, markAttended bool, reason string) (*model.Registration, error) {
	args := m.Called(ctx, actor, registrationID, markAttended, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockAttendanceService) Dashboard(ctx context.Context, actor model.Actor, eventID uuid.UUID) (*model.AttendanceStats, error) {
	args := m.Called(ctx, actor, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AttendanceStats), args.Error(1)
}

func (m *MockAttendanceService) Export(ctx context.Context, actor model.Actor, eventID uuid.UUID) (*model.ExportResult, error) {
	args := m.Called(ctx, actor, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExportResult), args.Error(1)
}

func (m *MockAttendanceService) AuditLog(ctx context.Context, actor model.Actor, eventID uuid.UUID) ([]*model.Registration, error) {
	args := m.Called(ctx, actor, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Registration), args.Error(1)
}

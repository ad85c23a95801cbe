package mocks

import (
	"context"

	"event-lifecycle/internal/model"
	"event-lifecycle/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockRegistrationRepository struct {
	mock.Mock
}

func NewMockRegistrationRepository() *MockRegistrationRepository {
	return &MockRegistrationRepository{}
}

func (m *MockRegistrationRepository) CreateConfirmed(ctx context.Context, reg *model.Registration) (*model.Registration, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) CreatePendingApproval(ctx context.Context, reg *model.Registration) (*model.Registration, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) FindByID(ctx context.Context, id int) (*model.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) FindByRegistrationID(ctx context.Context, registrationID uuid.UUID) (*model.Registration, error) {
	args := m.Called(ctx, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) FindByTicketID(ctx context.Context, ticketID string) (*model.Registration, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) FindActiveByParticipantAndEvent(ctx context.Context, participantID, eventID int) (*model.Registration, error) {
	args := m.Called(ctx, participantID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) ListByEvent(ctx context.Context, eventID int, status *model.RegistrationStatus) ([]*model.Registration, error) {
	args := m.Called(ctx, eventID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) ListByParticipant(ctx context.Context, participantID int) ([]*model.Registration, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) SetPaymentProof(ctx context.Context, id int, proofRef string) (*model.Registration, error) {
	args := m.Called(ctx, id, proofRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) Approve(ctx context.Context, p repository.ApproveParams) (*model.Registration, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) Reject(ctx context.Context, id int, reviewedBy int, notes *string) (*model.Registration, error) {
	args := m.Called(ctx, id, reviewedBy, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) Cancel(ctx context.Context, p repository.CancelParams) (*model.Registration, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) MarkAttended(ctx context.Context, id int, scannedBy int, method model.ScanMethod) (*model.Registration, error) {
	args := m.Called(ctx, id, scannedBy, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) SetManualOverride(ctx context.Context, p repository.OverrideParams) (*model.Registration, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) SetQRCode(ctx context.Context, id int, qrCode string) (*model.Registration, error) {
	args := m.Called(ctx, id, qrCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *MockRegistrationRepository) Stats(ctx context.Context, eventID int) (*model.AttendanceStats, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AttendanceStats), args.Error(1)
}

func (m *MockRegistrationRepository) ExportRows(ctx context.Context, eventID int) ([]model.ExportRow, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExportRow), args.Error(1)
}

func (m *MockRegistrationRepository) ListOverridden(ctx context.Context, eventID int) ([]*model.Registration, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Registration), args.Error(1)
}

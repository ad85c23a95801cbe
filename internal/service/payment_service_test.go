package service_test

import (
	"context"
	"testing"

	"event-lifecycle/internal/model"
	queueMocks "event-lifecycle/internal/queue/mocks"
	"event-lifecycle/internal/repository"
	repoMocks "event-lifecycle/internal/repository/mocks"
	"event-lifecycle/internal/service"
	apperrors "event-lifecycle/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupPaymentMocks() (*repoMocks.MockRegistrationRepository, *repoMocks.MockEventRepository, *queueMocks.MockNotificationQueue) {
	return repoMocks.NewMockRegistrationRepository(),
		repoMocks.NewMockEventRepository(),
		queueMocks.NewMockNotificationQueue()
}

func pendingApprovalReg(regID uuid.UUID) *model.Registration {
	return &model.Registration{
		ID:             3,
		RegistrationID: regID,
		ParticipantID:  7,
		EventID:        2,
		Status:         model.RegistrationStatusPendingApproval,
		PaymentStatus:  model.PaymentStatusPending,
		Merchandise:    &model.MerchandiseDetails{Size: "L", Color: "white", Quantity: 2},
		Approval:       &model.PaymentApproval{Status: model.ApprovalStatusPending},
	}
}

func TestPaymentService_UploadProof(t *testing.T) {
	ctx := context.Background()
	regID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(pendingApprovalReg(regID), nil).Once()
		repo.On("SetPaymentProof", mock.Anything, 3, "upload/ref-1").
			Return(pendingApprovalReg(regID), nil).Once()

		_, err := svc.UploadProof(ctx, model.Actor{ID: 7, Role: model.RoleParticipant}, regID, "upload/ref-1")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Failed - 非本人", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(pendingApprovalReg(regID), nil).Once()

		_, err := svc.UploadProof(ctx, model.Actor{ID: 8, Role: model.RoleParticipant}, regID, "upload/ref-1")

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		repo.AssertNotCalled(t, "SetPaymentProof")
	})

	t.Run("Failed - 空引用", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)

		_, err := svc.UploadProof(ctx, model.Actor{ID: 7, Role: model.RoleParticipant}, regID, "")

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestPaymentService_Approve(t *testing.T) {
	ctx := context.Background()
	regID := uuid.New()
	organizer := model.Actor{ID: 10, Role: model.RoleOrganizer}

	t.Run("Success - 核准當下扣庫存", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)
		event := merchEvent()

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(pendingApprovalReg(regID), nil).Once()
		eventRepo.On("FindByID", mock.Anything, 2).Return(event, nil).Once()
		repo.On("Approve", mock.Anything, mock.MatchedBy(func(p repository.ApproveParams) bool {
			return p.RegistrationID == 3 && p.EventID == 2 && p.Quantity == 2 &&
				p.ReviewedBy == 10 && p.ConsumeStock &&
				p.TicketID == "TKT-test" && p.QRCode != nil
		})).Return(&model.Registration{ID: 3, RegistrationID: regID, Status: model.RegistrationStatusConfirmed}, nil).Once()
		q.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		approved, err := svc.Approve(ctx, organizer, regID, "looks good")

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusConfirmed, approved.Status)
		repo.AssertExpectations(t)
	})

	t.Run("Success - QR 簽發失敗仍然核准", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{qrErr: true}, q)
		event := merchEvent()

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(pendingApprovalReg(regID), nil).Once()
		eventRepo.On("FindByID", mock.Anything, 2).Return(event, nil).Once()
		repo.On("Approve", mock.Anything, mock.MatchedBy(func(p repository.ApproveParams) bool {
			return p.QRCode == nil && p.TicketID == "TKT-test"
		})).Return(&model.Registration{ID: 3, RegistrationID: regID, Status: model.RegistrationStatusConfirmed}, nil).Once()
		q.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		approved, err := svc.Approve(ctx, organizer, regID, "")

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusConfirmed, approved.Status)
	})

	t.Run("Failed - 已不在待審核狀態", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)
		event := merchEvent()
		reg := pendingApprovalReg(regID)
		reg.Status = model.RegistrationStatusConfirmed

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(reg, nil).Once()
		eventRepo.On("FindByID", mock.Anything, 2).Return(event, nil).Once()

		_, err := svc.Approve(ctx, organizer, regID, "")

		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		repo.AssertNotCalled(t, "Approve")
	})

	t.Run("Failed - 輸掉庫存競賽，停留在待審核", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)
		event := merchEvent()

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(pendingApprovalReg(regID), nil).Once()
		eventRepo.On("FindByID", mock.Anything, 2).Return(event, nil).Once()
		repo.On("Approve", mock.Anything, mock.Anything).Return(nil, apperrors.ErrStockExceeded).Once()

		_, err := svc.Approve(ctx, organizer, regID, "")

		assert.ErrorIs(t, err, apperrors.ErrStockExceeded)
		q.AssertNotCalled(t, "Publish")
	})

	t.Run("Failed - 非本活動主辦方", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)
		event := merchEvent() // organizer 10

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(pendingApprovalReg(regID), nil).Once()
		eventRepo.On("FindByID", mock.Anything, 2).Return(event, nil).Once()

		_, err := svc.Approve(ctx, model.Actor{ID: 55, Role: model.RoleOrganizer}, regID, "")

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestPaymentService_Reject(t *testing.T) {
	ctx := context.Background()
	regID := uuid.New()
	organizer := model.Actor{ID: 10, Role: model.RoleOrganizer}

	t.Run("Success - 駁回不碰庫存", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)
		event := merchEvent()

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(pendingApprovalReg(regID), nil).Once()
		eventRepo.On("FindByID", mock.Anything, 2).Return(event, nil).Once()
		repo.On("Reject", mock.Anything, 3, 10, mock.MatchedBy(func(notes *string) bool {
			return notes != nil && *notes == "proof unreadable"
		})).Return(&model.Registration{ID: 3, RegistrationID: regID, Status: model.RegistrationStatusRejected}, nil).Once()
		q.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		rejected, err := svc.Reject(ctx, organizer, regID, "proof unreadable")

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusRejected, rejected.Status)
		// 駁回後票券與 QR 都不存在
		assert.Nil(t, rejected.TicketID)
		assert.Nil(t, rejected.QRCode)
	})
}

func TestPaymentService_ReissueQR(t *testing.T) {
	ctx := context.Background()
	regID := uuid.New()
	admin := model.Actor{ID: 99, Role: model.RoleAdmin}
	ticketID := "TKT-test"

	t.Run("Success - confirmed 且 QR 缺漏才補發", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)
		event := merchEvent()
		qr := "payload-TKT-test"

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(&model.Registration{
			ID: 3, RegistrationID: regID, EventID: 2,
			Status: model.RegistrationStatusConfirmed, TicketID: &ticketID,
		}, nil).Once()
		eventRepo.On("FindByID", mock.Anything, 2).Return(event, nil).Once()
		repo.On("SetQRCode", mock.Anything, 3, "payload-TKT-test").Return(&model.Registration{
			ID: 3, RegistrationID: regID, Status: model.RegistrationStatusConfirmed,
			TicketID: &ticketID, QRCode: &qr,
		}, nil).Once()

		updated, err := svc.ReissueQR(ctx, admin, regID)

		require.NoError(t, err)
		assert.NotNil(t, updated.QRCode)
	})

	t.Run("Failed - QR 已存在", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)
		event := merchEvent()
		qr := "payload-TKT-test"

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(&model.Registration{
			ID: 3, RegistrationID: regID, EventID: 2,
			Status: model.RegistrationStatusConfirmed, TicketID: &ticketID, QRCode: &qr,
		}, nil).Once()
		eventRepo.On("FindByID", mock.Anything, 2).Return(event, nil).Once()

		_, err := svc.ReissueQR(ctx, admin, regID)

		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		repo.AssertNotCalled(t, "SetQRCode")
	})
}

func TestPaymentService_ListPending(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - 預設只列待審核", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)
		event := merchEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("ListByEvent", mock.Anything, 2, mock.MatchedBy(func(status *model.RegistrationStatus) bool {
			return status != nil && *status == model.RegistrationStatusPendingApproval
		})).Return([]*model.Registration{}, nil).Once()

		_, err := svc.ListPending(ctx, model.Actor{ID: 10, Role: model.RoleOrganizer}, event.EventID, nil)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Failed - 參加者不可列", func(t *testing.T) {
		repo, eventRepo, q := setupPaymentMocks()
		svc := service.NewPaymentService(repo, eventRepo, stubIssuer{}, q)
		event := merchEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()

		_, err := svc.ListPending(ctx, model.Actor{ID: 7, Role: model.RoleParticipant}, event.EventID, nil)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

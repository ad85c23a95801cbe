package service_test

import (
	"context"
	"errors"
	"testing"

	cacheMocks "event-lifecycle/internal/cache/mocks"
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

// stubIssuer 測試用票券簽發器，可注入失敗情境
type stubIssuer struct {
	ticketErr bool
	qrErr     bool
}

func (s stubIssuer) NewTicketID() (string, error) {
	if s.ticketErr {
		return "", errors.New("entropy exhausted")
	}
	return "TKT-test", nil
}

func (s stubIssuer) QRPayload(ticketID string) (string, error) {
	if s.qrErr {
		return "", errors.New("encode failed")
	}
	return "payload-" + ticketID, nil
}

func (s stubIssuer) ResolveTicketID(payload string) (string, error) {
	return payload, nil
}

func setupRegistrationMocks() (*repoMocks.MockRegistrationRepository, *repoMocks.MockEventRepository, *cacheMocks.MockCapacityGuard, *queueMocks.MockNotificationQueue) {
	return repoMocks.NewMockRegistrationRepository(),
		repoMocks.NewMockEventRepository(),
		cacheMocks.NewMockCapacityGuard(),
		queueMocks.NewMockNotificationQueue()
}

func freeEvent() *model.Event {
	capacity := 100
	return &model.Event{
		ID:              1,
		EventID:         uuid.New(),
		OrganizerID:     10,
		Name:            "free meetup",
		Type:            model.EventTypeNormal,
		Status:          model.EventStatusPublished,
		Price:           0,
		MaxParticipants: &capacity,
	}
}

func merchEvent() *model.Event {
	stock := 50
	return &model.Event{
		ID:             2,
		EventID:        uuid.New(),
		OrganizerID:    10,
		Name:           "merch drop",
		Type:           model.EventTypeMerchandise,
		Status:         model.EventStatusPublished,
		Price:          350,
		AvailableStock: &stock,
	}
}

func TestRegistrationService_Register_Free(t *testing.T) {
	ctx := context.Background()
	participant := model.Actor{ID: 7, Role: model.RoleParticipant}

	t.Run("Success - 當場確認並簽發票券", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("FindActiveByParticipantAndEvent", mock.Anything, 7, 1).Return(nil, apperrors.ErrRegistrationNotFound).Once()
		guard.On("Reserve", mock.Anything, 1).Return(true, true, nil).Once()
		repo.On("CreateConfirmed", mock.Anything, mock.MatchedBy(func(reg *model.Registration) bool {
			return reg.Status == model.RegistrationStatusConfirmed &&
				reg.TicketID != nil && *reg.TicketID == "TKT-test" &&
				reg.QRCode != nil && *reg.QRCode == "payload-TKT-test"
		})).Return(&model.Registration{ID: 1, Status: model.RegistrationStatusConfirmed, ParticipantID: 7}, nil).Once()
		q.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		created, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{EventID: event.EventID})

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusConfirmed, created.Status)
		repo.AssertExpectations(t)
		guard.AssertExpectations(t)
		q.AssertExpectations(t)
	})

	t.Run("Failed - 重複報名", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("FindActiveByParticipantAndEvent", mock.Anything, 7, 1).
			Return(&model.Registration{ID: 9, Status: model.RegistrationStatusConfirmed}, nil).Once()

		_, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{EventID: event.EventID})

		assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)
		repo.AssertNotCalled(t, "CreateConfirmed")
	})

	t.Run("Failed - 活動未發佈", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()
		event.Status = model.EventStatusDraft

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()

		_, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{EventID: event.EventID})

		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("Failed - Redis 前哨擋下超量請求", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("FindActiveByParticipantAndEvent", mock.Anything, 7, 1).Return(nil, apperrors.ErrRegistrationNotFound).Once()
		guard.On("Reserve", mock.Anything, 1).Return(false, true, apperrors.ErrCapacityExceeded).Once()

		_, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{EventID: event.EventID})

		assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)
		repo.AssertNotCalled(t, "CreateConfirmed")
	})

	t.Run("Failed - Redis 故障放行，DB 裁決後回補前哨", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("FindActiveByParticipantAndEvent", mock.Anything, 7, 1).Return(nil, apperrors.ErrRegistrationNotFound).Once()
		guard.On("Reserve", mock.Anything, 1).Return(false, false, errors.New("connection refused")).Once()
		// Redis 故障時 warmed=false，DB 失敗也不應該回補
		repo.On("CreateConfirmed", mock.Anything, mock.Anything).Return(nil, apperrors.ErrCapacityExceeded).Once()

		_, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{EventID: event.EventID})

		assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)
		guard.AssertNotCalled(t, "Release")
	})

	t.Run("Failed - DB 寫入失敗時歸還前哨名額", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("FindActiveByParticipantAndEvent", mock.Anything, 7, 1).Return(nil, apperrors.ErrRegistrationNotFound).Once()
		guard.On("Reserve", mock.Anything, 1).Return(true, true, nil).Once()
		repo.On("CreateConfirmed", mock.Anything, mock.Anything).Return(nil, apperrors.ErrCapacityExceeded).Once()
		guard.On("Release", mock.Anything, 1).Return(nil).Once()

		_, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{EventID: event.EventID})

		assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)
		guard.AssertExpectations(t)
	})

	t.Run("Success - 通知發佈失敗不影響報名", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("FindActiveByParticipantAndEvent", mock.Anything, 7, 1).Return(nil, apperrors.ErrRegistrationNotFound).Once()
		guard.On("Reserve", mock.Anything, 1).Return(true, true, nil).Once()
		repo.On("CreateConfirmed", mock.Anything, mock.Anything).
			Return(&model.Registration{ID: 1, Status: model.RegistrationStatusConfirmed}, nil).Once()
		q.On("Publish", mock.Anything, mock.Anything).Return(errors.New("stream unavailable")).Once()

		created, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{EventID: event.EventID})

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusConfirmed, created.Status)
	})

	t.Run("Failed - 免費活動不接受商品明細", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("FindActiveByParticipantAndEvent", mock.Anything, 7, 1).Return(nil, apperrors.ErrRegistrationNotFound).Once()

		_, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{
			EventID:     event.EventID,
			Merchandise: &model.MerchandiseDetails{Size: "M", Color: "black", Quantity: 1},
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestRegistrationService_Register_Approval(t *testing.T) {
	ctx := context.Background()
	participant := model.Actor{ID: 7, Role: model.RoleParticipant}

	t.Run("Success - 周邊商品進入待審核，不碰庫存", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := merchEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("FindActiveByParticipantAndEvent", mock.Anything, 7, 2).Return(nil, apperrors.ErrRegistrationNotFound).Once()
		repo.On("CreatePendingApproval", mock.Anything, mock.MatchedBy(func(reg *model.Registration) bool {
			return reg.Status == model.RegistrationStatusPendingApproval &&
				reg.AmountPaid == 700 && // 350 * 2
				reg.TicketID == nil &&
				reg.Approval != nil && reg.Approval.Status == model.ApprovalStatusPending
		})).Return(&model.Registration{ID: 3, Status: model.RegistrationStatusPendingApproval}, nil).Once()
		q.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		created, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{
			EventID:     event.EventID,
			Merchandise: &model.MerchandiseDetails{Size: "L", Color: "white", Quantity: 2},
		})

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusPendingApproval, created.Status)
		guard.AssertNotCalled(t, "Reserve")
		repo.AssertExpectations(t)
	})

	t.Run("Failed - 商品明細不完整", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := merchEvent()

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("FindActiveByParticipantAndEvent", mock.Anything, 7, 2).Return(nil, apperrors.ErrRegistrationNotFound).Once()

		_, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{
			EventID:     event.EventID,
			Merchandise: &model.MerchandiseDetails{Size: "", Color: "white", Quantity: 2},
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		repo.AssertNotCalled(t, "CreatePendingApproval")
	})

	t.Run("Success - 付費一般活動也走審核路徑", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()
		event.Price = 200

		eventRepo.On("FindByEventID", mock.Anything, event.EventID).Return(event, nil).Once()
		repo.On("FindActiveByParticipantAndEvent", mock.Anything, 7, 1).Return(nil, apperrors.ErrRegistrationNotFound).Once()
		repo.On("CreatePendingApproval", mock.Anything, mock.MatchedBy(func(reg *model.Registration) bool {
			return reg.AmountPaid == 200 && reg.Merchandise == nil
		})).Return(&model.Registration{ID: 4, Status: model.RegistrationStatusPendingApproval}, nil).Once()
		q.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		created, err := svc.Register(ctx, participant, model.CreateRegistrationRequest{EventID: event.EventID})

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusPendingApproval, created.Status)
	})
}

func TestRegistrationService_Cancel(t *testing.T) {
	ctx := context.Background()
	regID := uuid.New()

	t.Run("Success - 本人取消 confirmed，歸還名額", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()
		owner := model.Actor{ID: 7, Role: model.RoleParticipant}

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(&model.Registration{
			ID: 1, RegistrationID: regID, ParticipantID: 7, EventID: 1,
			Status: model.RegistrationStatusConfirmed,
		}, nil).Once()
		eventRepo.On("FindByID", mock.Anything, 1).Return(event, nil).Once()
		repo.On("Cancel", mock.Anything, mock.MatchedBy(func(p repository.CancelParams) bool {
			return p.RegistrationID == 1 && p.ReleaseCapacity && len(p.AllowedFrom) == 2
		})).Return(&model.Registration{ID: 1, RegistrationID: regID, Status: model.RegistrationStatusCancelled}, nil).Once()
		guard.On("Release", mock.Anything, 1).Return(nil).Once()
		q.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		cancelled, err := svc.Cancel(ctx, owner, regID, "plans changed")

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusCancelled, cancelled.Status)
		guard.AssertExpectations(t)
	})

	t.Run("Success - 管理員可取消 pending_approval", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := merchEvent()
		admin := model.Actor{ID: 99, Role: model.RoleAdmin}

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(&model.Registration{
			ID: 3, RegistrationID: regID, ParticipantID: 7, EventID: 2,
			Status: model.RegistrationStatusPendingApproval,
		}, nil).Once()
		eventRepo.On("FindByID", mock.Anything, 2).Return(event, nil).Once()
		repo.On("Cancel", mock.Anything, mock.MatchedBy(func(p repository.CancelParams) bool {
			// 周邊商品不歸還庫存
			return !p.ReleaseCapacity && len(p.AllowedFrom) == 3
		})).Return(&model.Registration{ID: 3, RegistrationID: regID, Status: model.RegistrationStatusCancelled}, nil).Once()
		q.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		_, err := svc.Cancel(ctx, admin, regID, "")

		require.NoError(t, err)
		guard.AssertNotCalled(t, "Release")
	})

	t.Run("Failed - 別人的報名", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent()
		stranger := model.Actor{ID: 8, Role: model.RoleParticipant}

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(&model.Registration{
			ID: 1, RegistrationID: regID, ParticipantID: 7, EventID: 1,
			Status: model.RegistrationStatusConfirmed,
		}, nil).Once()
		eventRepo.On("FindByID", mock.Anything, 1).Return(event, nil).Once()

		_, err := svc.Cancel(ctx, stranger, regID, "")

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		repo.AssertNotCalled(t, "Cancel")
	})

	t.Run("Failed - 非本人主辦方", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)
		event := freeEvent() // organizer 10
		otherOrganizer := model.Actor{ID: 55, Role: model.RoleOrganizer}

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(&model.Registration{
			ID: 1, RegistrationID: regID, ParticipantID: 7, EventID: 1,
			Status: model.RegistrationStatusConfirmed,
		}, nil).Once()
		eventRepo.On("FindByID", mock.Anything, 1).Return(event, nil).Once()

		_, err := svc.Cancel(ctx, otherOrganizer, regID, "")

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestRegistrationService_GetByRegistrationID(t *testing.T) {
	ctx := context.Background()
	regID := uuid.New()

	t.Run("Success - 本人可讀", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(&model.Registration{
			ID: 1, RegistrationID: regID, ParticipantID: 7,
		}, nil).Once()

		reg, err := svc.GetByRegistrationID(ctx, model.Actor{ID: 7, Role: model.RoleParticipant}, regID)

		require.NoError(t, err)
		assert.Equal(t, 7, reg.ParticipantID)
	})

	t.Run("Failed - 不相干主辦方", func(t *testing.T) {
		repo, eventRepo, guard, q := setupRegistrationMocks()
		svc := service.NewRegistrationService(repo, eventRepo, guard, stubIssuer{}, q)

		repo.On("FindByRegistrationID", mock.Anything, regID).Return(&model.Registration{
			ID: 1, RegistrationID: regID, ParticipantID: 7, EventID: 1,
		}, nil).Once()
		eventRepo.On("FindByID", mock.Anything, 1).Return(freeEvent(), nil).Once()

		_, err := svc.GetByRegistrationID(ctx, model.Actor{ID: 55, Role: model.RoleOrganizer}, regID)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

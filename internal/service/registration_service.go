package service

import (
	"context"
	"errors"
	"time"

	"event-lifecycle/internal/cache"
	"event-lifecycle/internal/model"
	"event-lifecycle/internal/queue"
	"event-lifecycle/internal/repository"
	"event-lifecycle/internal/ticket"
	apperrors "event-lifecycle/pkg/app_errors"
	"event-lifecycle/pkg/logger"
	"event-lifecycle/pkg/metrics"
	"event-lifecycle/pkg/tracing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RegistrationService interface {
	// Register 建立報名：免費一般活動當場確認並吃名額，
	// 付費/周邊商品活動進入人工審核，此時不碰庫存
	Register(ctx context.Context, actor model.Actor, req model.CreateRegistrationRequest) (*model.Registration, error)
	Cancel(ctx context.Context, actor model.Actor, registrationID uuid.UUID, reason string) (*model.Registration, error)
	GetByRegistrationID(ctx context.Context, actor model.Actor, registrationID uuid.UUID) (*model.Registration, error)
	ListMine(ctx context.Context, actor model.Actor) ([]*model.Registration, error)
}

type RegistrationServiceImpl struct {
	repo      repository.RegistrationRepository
	eventRepo repository.EventRepository
	guard     cache.CapacityGuard
	issuer    ticket.Issuer
	queue     queue.NotificationQueue
}

func NewRegistrationService(
	repo repository.RegistrationRepository,
	eventRepo repository.EventRepository,
	guard cache.CapacityGuard,
	issuer ticket.Issuer,
	notificationQueue queue.NotificationQueue,
) RegistrationService {
	return &RegistrationServiceImpl{
		repo:      repo,
		eventRepo: eventRepo,
		guard:     guard,
		issuer:    issuer,
		queue:     notificationQueue,
	}
}

func (s *RegistrationServiceImpl) Register(ctx context.Context, actor model.Actor, req model.CreateRegistrationRequest) (*model.Registration, error) {
	ctx, span := tracing.StartSpan(ctx, "RegistrationService.Register")
	defer span.End()

	event, err := s.eventRepo.FindByEventID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	if !event.AcceptsRegistrations() {
		return nil, apperrors.ErrInvalidState
	}

	// 同一人同一活動只允許一筆有效報名
	existing, err := s.repo.FindActiveByParticipantAndEvent(ctx, actor.ID, event.ID)
	if err != nil && !errors.Is(err, apperrors.ErrRegistrationNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrAlreadyRegistered
	}

	if event.RequiresApproval() {
		return s.registerForApproval(ctx, actor, event, req)
	}
	return s.registerFree(ctx, actor, event, req)
}

// registerForApproval 審核路徑：pending_approval 下單，庫存留到核准才扣
func (s *RegistrationServiceImpl) registerForApproval(ctx context.Context, actor model.Actor, event *model.Event, req model.CreateRegistrationRequest) (*model.Registration, error) {
	quantity := 1
	if event.Type == model.EventTypeMerchandise {
		if req.Merchandise == nil || req.Merchandise.Quantity < 1 ||
			req.Merchandise.Size == "" || req.Merchandise.Color == "" {
			return nil, apperrors.ErrInvalidInput
		}
		quantity = req.Merchandise.Quantity
	} else if req.Merchandise != nil {
		// 一般活動不接受商品明細
		return nil, apperrors.ErrInvalidInput
	}

	reg := &model.Registration{
		RegistrationID: uuid.New(),
		ParticipantID:  actor.ID,
		EventID:        event.ID,
		Status:         model.RegistrationStatusPendingApproval,
		PaymentStatus:  model.PaymentStatusPending,
		AmountPaid:     event.Price * float64(quantity),
		PaymentMethod:  req.PaymentMethod,
		Merchandise:    req.Merchandise,
		Approval:       &model.PaymentApproval{Status: model.ApprovalStatusPending},
	}

	created, err := s.repo.CreatePendingApproval(ctx, reg)
	if err != nil {
		metrics.RegistrationsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, err
	}

	metrics.RegistrationsCreatedTotal.WithLabelValues("approval").Inc()
	s.publish(ctx, model.NotificationRegistrationReceived, created, event, nil)
	return created, nil
}

// registerFree 免費路徑：確認、吃名額、簽發票券，一次完成
func (s *RegistrationServiceImpl) registerFree(ctx context.Context, actor model.Actor, event *model.Event, req model.CreateRegistrationRequest) (*model.Registration, error) {
	if req.Merchandise != nil {
		return nil, apperrors.ErrInvalidInput
	}

	// Redis 前哨先擋掉搶票尖峰的超量請求；資料庫條件更新仍是最終裁決
	_, warmed, err := s.guard.Reserve(ctx, event.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCapacityExceeded) {
			metrics.RegistrationsFailedTotal.WithLabelValues("capacity").Inc()
			return nil, err
		}
		// Redis 故障不擋報名，放行走 DB
		logger.WithComponent("service").Warn("capacity guard unavailable", zap.Error(err))
		warmed = false
	}

	rollbackGuard := func() {
		if warmed {
			// 歸還一定要執行，不跟隨請求的生命週期
			if err := s.guard.Release(context.Background(), event.ID); err != nil {
				logger.WithComponent("service").Error("capacity guard release failed",
					zap.Int("event_id", event.ID), zap.Error(err))
			}
		}
	}

	ticketID, err := s.issuer.NewTicketID()
	if err != nil {
		rollbackGuard()
		return nil, apperrors.ErrInternalServerError
	}

	// QR 簽發失敗不擋確認：記 warning，之後可補發
	var qrCode *string
	if qr, err := s.issuer.QRPayload(ticketID); err != nil {
		metrics.QRIssueFailedTotal.Inc()
		logger.WithComponent("service").Warn("qr payload generation failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
	} else {
		qrCode = &qr
	}

	reg := &model.Registration{
		RegistrationID: uuid.New(),
		ParticipantID:  actor.ID,
		EventID:        event.ID,
		TicketID:       &ticketID,
		QRCode:         qrCode,
		Status:         model.RegistrationStatusConfirmed,
		PaymentStatus:  model.PaymentStatusCompleted,
		AmountPaid:     0,
		PaymentMethod:  req.PaymentMethod,
	}

	created, err := s.repo.CreateConfirmed(ctx, reg)
	if err != nil {
		rollbackGuard()
		if errors.Is(err, apperrors.ErrCapacityExceeded) {
			metrics.RegistrationsFailedTotal.WithLabelValues("capacity").Inc()
		} else {
			metrics.RegistrationsFailedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	metrics.RegistrationsCreatedTotal.WithLabelValues("free").Inc()
	s.publish(ctx, model.NotificationRegistrationConfirmed, created, event, nil)
	return created, nil
}

func (s *RegistrationServiceImpl) Cancel(ctx context.Context, actor model.Actor, registrationID uuid.UUID, reason string) (*model.Registration, error) {
	ctx, span := tracing.StartSpan(ctx, "RegistrationService.Cancel")
	defer span.End()

	reg, err := s.repo.FindByRegistrationID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}

	// 參加者只能取消自己的 pending/confirmed；主辦方/管理員可取消任何非終態
	var allowedFrom []model.RegistrationStatus
	switch {
	case reg.IsOwnedBy(actor.ID):
		allowedFrom = []model.RegistrationStatus{
			model.RegistrationStatusPending,
			model.RegistrationStatusConfirmed,
		}
	case actor.Role == model.RoleAdmin,
		actor.Role == model.RoleOrganizer && event.IsOwnedBy(actor.ID):
		allowedFrom = []model.RegistrationStatus{
			model.RegistrationStatusPending,
			model.RegistrationStatusPendingApproval,
			model.RegistrationStatusConfirmed,
		}
	default:
		return nil, apperrors.ErrForbidden
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	cancelled, err := s.repo.Cancel(ctx, repository.CancelParams{
		RegistrationID: reg.ID,
		Reason:         reasonPtr,
		AllowedFrom:    allowedFrom,
		// 周邊商品庫存不自動歸還（沿用來源系統行為）
		ReleaseCapacity: event.Type == model.EventTypeNormal,
	})
	if err != nil {
		return nil, err
	}

	// confirmed 的免費活動報名取消後，回補 Redis 前哨名額
	if reg.Status == model.RegistrationStatusConfirmed && event.Type == model.EventTypeNormal && !event.RequiresApproval() {
		if err := s.guard.Release(context.Background(), event.ID); err != nil {
			logger.WithComponent("service").Warn("capacity guard release failed", zap.Error(err))
		}
	}

	metrics.RegistrationsCancelledTotal.Inc()
	s.publish(ctx, model.NotificationRegistrationCancelled, cancelled, event, nil)
	return cancelled, nil
}

func (s *RegistrationServiceImpl) GetByRegistrationID(ctx context.Context, actor model.Actor, registrationID uuid.UUID) (*model.Registration, error) {
	reg, err := s.repo.FindByRegistrationID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.IsOwnedBy(actor.ID) || actor.Role == model.RoleAdmin {
		return reg, nil
	}
	if actor.Role == model.RoleOrganizer {
		event, err := s.eventRepo.FindByID(ctx, reg.EventID)
		if err != nil {
			return nil, err
		}
		if event.IsOwnedBy(actor.ID) {
			return reg, nil
		}
	}
	return nil, apperrors.ErrForbidden
}

func (s *RegistrationServiceImpl) ListMine(ctx context.Context, actor model.Actor) ([]*model.Registration, error) {
	return s.repo.ListByParticipant(ctx, actor.ID)
}

// publish 把通知丟進隊列。發佈失敗只記 log：通知永遠不影響生命週期狀態。
func (s *RegistrationServiceImpl) publish(ctx context.Context, kind model.NotificationKind, reg *model.Registration, event *model.Event, notes *string) {
	n := &model.Notification{
		ID:             uuid.New(),
		Kind:           kind,
		RegistrationID: reg.RegistrationID,
		ParticipantID:  reg.ParticipantID,
		EventID:        event.ID,
		EventName:      event.Name,
		TicketID:       reg.TicketID,
		QRCode:         reg.QRCode,
		Notes:          notes,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.queue.Publish(ctx, n); err != nil {
		metrics.NotificationPublishFailedTotal.Inc()
		logger.WithComponent("service").Warn("notification publish failed",
			zap.String("kind", string(kind)),
			zap.String("registration_id", reg.RegistrationID.String()),
			zap.Error(err))
	}
}

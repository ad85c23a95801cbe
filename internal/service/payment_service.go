package service

import (
	"context"
	"errors"
	"time"

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

// PaymentService 人工付款審核流程：上傳證明 → 核准/駁回。
// 庫存在核准當下才扣，駁回不需要歸還任何東西。
type PaymentService interface {
	UploadProof(ctx context.Context, actor model.Actor, registrationID uuid.UUID, proofRef string) (*model.Registration, error)
	ListPending(ctx context.Context, actor model.Actor, eventID uuid.UUID, status *model.RegistrationStatus) ([]*model.Registration, error)
	Approve(ctx context.Context, actor model.Actor, registrationID uuid.UUID, notes string) (*model.Registration, error)
	Reject(ctx context.Context, actor model.Actor, registrationID uuid.UUID, notes string) (*model.Registration, error)
	// ReissueQR 補發 QR：confirmed 但 qr 為空的報名（簽發曾失敗）
	ReissueQR(ctx context.Context, actor model.Actor, registrationID uuid.UUID) (*model.Registration, error)
}

type PaymentServiceImpl struct {
	repo      repository.RegistrationRepository
	eventRepo repository.EventRepository
	issuer    ticket.Issuer
	queue     queue.NotificationQueue
}

func NewPaymentService(
	repo repository.RegistrationRepository,
	eventRepo repository.EventRepository,
	issuer ticket.Issuer,
	notificationQueue queue.NotificationQueue,
) PaymentService {
	return &PaymentServiceImpl{
		repo:      repo,
		eventRepo: eventRepo,
		issuer:    issuer,
		queue:     notificationQueue,
	}
}

func (s *PaymentServiceImpl) UploadProof(ctx context.Context, actor model.Actor, registrationID uuid.UUID, proofRef string) (*model.Registration, error) {
	ctx, span := tracing.StartSpan(ctx, "PaymentService.UploadProof")
	defer span.End()

	if proofRef == "" {
		return nil, apperrors.ErrInvalidInput
	}

	reg, err := s.repo.FindByRegistrationID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	// 只有報名本人能上傳證明
	if !reg.IsOwnedBy(actor.ID) {
		return nil, apperrors.ErrForbidden
	}

	// 狀態前置條件由條件更新把關；pending 期間重傳採 latest-wins
	return s.repo.SetPaymentProof(ctx, reg.ID, proofRef)
}

func (s *PaymentServiceImpl) ListPending(ctx context.Context, actor model.Actor, eventID uuid.UUID, status *model.RegistrationStatus) ([]*model.Registration, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !canManageEvent(actor, event) {
		return nil, apperrors.ErrForbidden
	}

	if status == nil {
		pending := model.RegistrationStatusPendingApproval
		status = &pending
	}
	return s.repo.ListByEvent(ctx, event.ID, status)
}

func (s *PaymentServiceImpl) Approve(ctx context.Context, actor model.Actor, registrationID uuid.UUID, notes string) (*model.Registration, error) {
	ctx, span := tracing.StartSpan(ctx, "PaymentService.Approve")
	defer span.End()

	reg, err := s.repo.FindByRegistrationID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if !canManageEvent(actor, event) {
		return nil, apperrors.ErrForbidden
	}
	if reg.Status != model.RegistrationStatusPendingApproval {
		return nil, apperrors.ErrInvalidState
	}

	// ticket id 只簽發一次；重進確認（理論上不會發生）沿用既有的
	ticketID := ""
	if reg.TicketID != nil {
		ticketID = *reg.TicketID
	} else {
		ticketID, err = s.issuer.NewTicketID()
		if err != nil {
			return nil, apperrors.ErrInternalServerError
		}
	}

	// QR 簽發失敗不可回滾核准：報名照樣 confirmed，qr 留空之後補發
	var qrCode *string
	if qr, err := s.issuer.QRPayload(ticketID); err != nil {
		metrics.QRIssueFailedTotal.Inc()
		logger.WithComponent("service").Warn("qr payload generation failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
	} else {
		qrCode = &qr
	}

	notesPtr := notesOrNil(notes)
	approved, err := s.repo.Approve(ctx, repository.ApproveParams{
		RegistrationID: reg.ID,
		EventID:        event.ID,
		Quantity:       reg.Quantity(),
		ReviewedBy:     actor.ID,
		Notes:          notesPtr,
		TicketID:       ticketID,
		QRCode:         qrCode,
		ConsumeStock:   event.TracksStock(),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStockExceeded) {
			// 輸掉庫存競賽：報名停在 pending_approval，由主辦方明確駁回
			metrics.RegistrationsFailedTotal.WithLabelValues("stock").Inc()
		}
		return nil, err
	}

	metrics.PaymentsApprovedTotal.Inc()
	s.publish(ctx, model.NotificationPaymentApproved, approved, event, notesPtr)
	return approved, nil
}

func (s *PaymentServiceImpl) Reject(ctx context.Context, actor model.Actor, registrationID uuid.UUID, notes string) (*model.Registration, error) {
	ctx, span := tracing.StartSpan(ctx, "PaymentService.Reject")
	defer span.End()

	reg, err := s.repo.FindByRegistrationID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if !canManageEvent(actor, event) {
		return nil, apperrors.ErrForbidden
	}

	notesPtr := notesOrNil(notes)
	rejected, err := s.repo.Reject(ctx, reg.ID, actor.ID, notesPtr)
	if err != nil {
		return nil, err
	}

	metrics.PaymentsRejectedTotal.Inc()
	s.publish(ctx, model.NotificationPaymentRejected, rejected, event, notesPtr)
	return rejected, nil
}

func (s *PaymentServiceImpl) ReissueQR(ctx context.Context, actor model.Actor, registrationID uuid.UUID) (*model.Registration, error) {
	reg, err := s.repo.FindByRegistrationID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if !canManageEvent(actor, event) {
		return nil, apperrors.ErrForbidden
	}
	if reg.Status != model.RegistrationStatusConfirmed || reg.TicketID == nil || reg.QRCode != nil {
		return nil, apperrors.ErrInvalidState
	}

	qr, err := s.issuer.QRPayload(*reg.TicketID)
	if err != nil {
		metrics.QRIssueFailedTotal.Inc()
		return nil, apperrors.ErrInternalServerError
	}
	return s.repo.SetQRCode(ctx, reg.ID, qr)
}

func (s *PaymentServiceImpl) publish(ctx context.Context, kind model.NotificationKind, reg *model.Registration, event *model.Event, notes *string) {
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

// canManageEvent 主辦方限本人活動，管理員不限
func canManageEvent(actor model.Actor, event *model.Event) bool {
	if actor.Role == model.RoleAdmin {
		return true
	}
	return actor.Role == model.RoleOrganizer && event.IsOwnedBy(actor.ID)
}

func notesOrNil(notes string) *string {
	if notes == "" {
		return nil
	}
	return &notes
}

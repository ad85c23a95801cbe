package service

import (
	"context"
	"errors"

	"event-lifecycle/internal/model"
	"event-lifecycle/internal/repository"
	"event-lifecycle/internal/ticket"
	apperrors "event-lifecycle/pkg/app_errors"
	"event-lifecycle/pkg/metrics"
	"event-lifecycle/pkg/tracing"

	"github.com/google/uuid"
)

// AttendanceService 簽到引擎：掃描與人工補登是唯二的寫入，
// 冪等性靠 attended 欄位的條件更新，不靠外部去重。
// 讀取面（dashboard/export/audit）純投影，不改狀態。
type AttendanceService interface {
	Scan(ctx context.Context, actor model.Actor, payload string, method model.ScanMethod) (*model.CheckInResult, error)
	Override(ctx context.Context, actor model.Actor, registrationID uuid.UUID, markAttended bool, reason string) (*model.Registration, error)
	Dashboard(ctx context.Context, actor model.Actor, eventID uuid.UUID) (*model.AttendanceStats, error)
	Export(ctx context.Context, actor model.Actor, eventID uuid.UUID) (*model.ExportResult, error)
	AuditLog(ctx context.Context, actor model.Actor, eventID uuid.UUID) ([]*model.Registration, error)
}

type AttendanceServiceImpl struct {
	repo      repository.RegistrationRepository
	eventRepo repository.EventRepository
	issuer    ticket.Issuer
}

func NewAttendanceService(
	repo repository.RegistrationRepository,
	eventRepo repository.EventRepository,
	issuer ticket.Issuer,
) AttendanceService {
	return &AttendanceServiceImpl{
		repo:      repo,
		eventRepo: eventRepo,
		issuer:    issuer,
	}
}

func (s *AttendanceServiceImpl) Scan(ctx context.Context, actor model.Actor, payload string, method model.ScanMethod) (*model.CheckInResult, error) {
	ctx, span := tracing.StartSpan(ctx, "AttendanceService.Scan")
	defer span.End()

	if !method.IsValid() || method == model.ScanMethodManual {
		return nil, apperrors.ErrInvalidInput
	}

	ticketID, err := s.issuer.ResolveTicketID(payload)
	if err != nil {
		return nil, apperrors.ErrInvalidInput
	}

	reg, err := s.repo.FindByTicketID(ctx, ticketID)
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

	if reg.Status == model.RegistrationStatusCancelled {
		return nil, apperrors.ErrInvalidState
	}
	if reg.Attendance.Attended {
		return nil, alreadyCheckedIn(reg)
	}

	updated, err := s.repo.MarkAttended(ctx, reg.ID, actor.ID, method)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidState) {
			// 條件更新沒吃到 row：重讀分辨是同時被掃了還是被取消了
			current, ferr := s.repo.FindByID(ctx, reg.ID)
			if ferr == nil && current.Attendance.Attended {
				return nil, alreadyCheckedIn(current)
			}
		}
		return nil, err
	}

	metrics.CheckinsTotal.WithLabelValues(string(method)).Inc()
	return &model.CheckInResult{Registration: updated}, nil
}

func (s *AttendanceServiceImpl) Override(ctx context.Context, actor model.Actor, registrationID uuid.UUID, markAttended bool, reason string) (*model.Registration, error) {
	ctx, span := tracing.StartSpan(ctx, "AttendanceService.Override")
	defer span.End()

	// 稽核要求：人工介入一定要有理由
	if reason == "" {
		return nil, apperrors.ErrInvalidInput
	}

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

	updated, err := s.repo.SetManualOverride(ctx, repository.OverrideParams{
		RegistrationID: reg.ID,
		MarkAttended:   markAttended,
		Reason:         reason,
		OverriddenBy:   actor.ID,
	})
	if err != nil {
		return nil, err
	}

	if markAttended {
		metrics.CheckinsTotal.WithLabelValues(string(model.ScanMethodManual)).Inc()
	}
	return updated, nil
}

func (s *AttendanceServiceImpl) Dashboard(ctx context.Context, actor model.Actor, eventID uuid.UUID) (*model.AttendanceStats, error) {
	event, err := s.authorizeEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx, event.ID)
}

func (s *AttendanceServiceImpl) Export(ctx context.Context, actor model.Actor, eventID uuid.UUID) (*model.ExportResult, error) {
	event, err := s.authorizeEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ExportRows(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return &model.ExportResult{
		Headers: []string{
			"registration_id", "participant_name", "participant_email",
			"ticket_id", "status", "attended", "attended_at", "scan_method",
		},
		Rows: rows,
	}, nil
}

func (s *AttendanceServiceImpl) AuditLog(ctx context.Context, actor model.Actor, eventID uuid.UUID) ([]*model.Registration, error) {
	event, err := s.authorizeEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOverridden(ctx, event.ID)
}

func (s *AttendanceServiceImpl) authorizeEvent(ctx context.Context, actor model.Actor, eventID uuid.UUID) (*model.Event, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !canManageEvent(actor, event) {
		return nil, apperrors.ErrForbidden
	}
	return event, nil
}

func alreadyCheckedIn(reg *model.Registration) error {
	e := &apperrors.AlreadyCheckedInError{}
	if reg.Attendance.AttendedAt != nil {
		e.AttendedAt = *reg.Attendance.AttendedAt
	}
	if reg.Attendance.ScannedBy != nil {
		e.ScannedBy = *reg.Attendance.ScannedBy
	}
	if reg.Attendance.ScanMethod != nil {
		e.ScanMethod = string(*reg.Attendance.ScanMethod)
	}
	return e
}

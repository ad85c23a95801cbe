package service

import (
	"context"

	"event-lifecycle/internal/cache"
	"event-lifecycle/internal/model"
	"event-lifecycle/internal/repository"
	apperrors "event-lifecycle/pkg/app_errors"

	"github.com/google/uuid"
)

type EventService interface {
	Create(ctx context.Context, actor model.Actor, req model.CreateEventRequest) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	// Publish 活動開放報名：免費活動順便預熱 Redis 名額前哨
	Publish(ctx context.Context, actor model.Actor, eventID uuid.UUID) (*model.Event, error)
}

type EventServiceImpl struct {
	repo  repository.EventRepository
	guard cache.CapacityGuard
}

func NewEventService(repo repository.EventRepository, guard cache.CapacityGuard) EventService {
	return &EventServiceImpl{repo: repo, guard: guard}
}

func (s *EventServiceImpl) Create(ctx context.Context, actor model.Actor, req model.CreateEventRequest) (*model.Event, error) {
	if !actor.IsStaff() {
		return nil, apperrors.ErrForbidden
	}

	eventType := model.EventType(req.Type)
	if !eventType.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}
	// 庫存只屬於周邊商品活動
	if eventType == model.EventTypeNormal && req.AvailableStock != nil {
		return nil, apperrors.ErrInvalidInput
	}

	event := &model.Event{
		EventID:         uuid.New(),
		OrganizerID:     actor.ID,
		Name:            req.Name,
		Description:     req.Description,
		Type:            eventType,
		Status:          model.EventStatusDraft,
		Price:           req.Price,
		MaxParticipants: req.MaxParticipants,
		AvailableStock:  req.AvailableStock,
	}
	return s.repo.Create(ctx, event)
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventServiceImpl) GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return s.repo.FindByEventID(ctx, eventID)
}

func (s *EventServiceImpl) Publish(ctx context.Context, actor model.Actor, eventID uuid.UUID) (*model.Event, error) {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !canManageEvent(actor, event) {
		return nil, apperrors.ErrForbidden
	}
	if event.Status != model.EventStatusDraft {
		return nil, apperrors.ErrInvalidState
	}

	published, err := s.repo.UpdateStatus(ctx, event.ID, model.EventStatusPublished)
	if err != nil {
		return nil, err
	}

	// 免費限額活動預熱前哨；失敗不擋發佈，報名會直接走 DB
	if !published.RequiresApproval() && published.HasCapacityLimit() {
		remaining := *published.MaxParticipants - published.CurrentRegistrations
		if remaining < 0 {
			remaining = 0
		}
		_ = s.guard.WarmUp(ctx, published.ID, remaining)
	}

	return published, nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType 活動類型：一般活動走容量控管，周邊商品活動走庫存控管
type EventType string

const (
	EventTypeNormal      EventType = "normal"
	EventTypeMerchandise EventType = "merchandise"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeNormal, EventTypeMerchandise:
		return true
	}
	return false
}

// EventStatus 活動狀態：只有 published 可以報名
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCompleted EventStatus = "completed"
	EventStatusClosed    EventStatus = "closed"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusCompleted, EventStatusClosed:
		return true
	}
	return false
}

// Event 活動模型
type Event struct {
	ID          int       `json:"id" db:"id"`
	EventID     uuid.UUID `json:"event_id" db:"event_id"`
	OrganizerID int       `json:"organizer_id" db:"organizer_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Type        EventType `json:"type" db:"event_type"`
	Status      EventStatus `json:"status" db:"status"`
	Price       float64   `json:"price" db:"price"`

	// MaxParticipants 為 nil 代表不限名額；AvailableStock 為 nil 代表不追蹤庫存
	MaxParticipants      *int `json:"max_participants,omitempty" db:"max_participants"`
	CurrentRegistrations int  `json:"current_registrations" db:"current_registrations"`
	AvailableStock       *int `json:"available_stock,omitempty" db:"available_stock"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AcceptsRegistrations 檢查活動是否開放報名
func (e *Event) AcceptsRegistrations() bool {
	return e.Status == EventStatusPublished
}

// RequiresApproval 付費或周邊商品報名需人工審核付款證明
func (e *Event) RequiresApproval() bool {
	return e.Type == EventTypeMerchandise || e.Price > 0
}

// TracksStock 檢查是否追蹤庫存（nil = 不限量）
func (e *Event) TracksStock() bool {
	return e.Type == EventTypeMerchandise && e.AvailableStock != nil
}

// HasCapacityLimit 檢查是否有名額上限
func (e *Event) HasCapacityLimit() bool {
	return e.MaxParticipants != nil
}

// IsOwnedBy 檢查使用者是否為此活動主辦方
func (e *Event) IsOwnedBy(userID int) bool {
	return e.OrganizerID == userID
}

// CreateEventRequest 建立活動請求
type CreateEventRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     *string `json:"description"`
	Type            string  `json:"type" binding:"required,oneof=normal merchandise"`
	Price           float64 `json:"price" binding:"min=0"`
	MaxParticipants *int    `json:"max_participants" binding:"omitempty,min=1"`
	AvailableStock  *int    `json:"available_stock" binding:"omitempty,min=0"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind 通知類型
type NotificationKind string

const (
	NotificationRegistrationConfirmed NotificationKind = "registration_confirmed"
	NotificationRegistrationReceived  NotificationKind = "registration_received"
	NotificationRegistrationCancelled NotificationKind = "registration_cancelled"
	NotificationPaymentApproved       NotificationKind = "payment_approved"
	NotificationPaymentRejected       NotificationKind = "payment_rejected"
)

// Notification 送往外部通知管道（email/webhook）的訊息。
// 純旁路副作用：投遞失敗只記 log，絕不回滾觸發它的狀態轉換。
type Notification struct {
	ID             uuid.UUID        `json:"id"`
	Kind           NotificationKind `json:"kind"`
	RegistrationID uuid.UUID        `json:"registration_id"`
	ParticipantID  int              `json:"participant_id"`
	EventID        int              `json:"event_id"`
	EventName      string           `json:"event_name"`
	TicketID       *string          `json:"ticket_id,omitempty"`
	QRCode         *string          `json:"qr_code,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

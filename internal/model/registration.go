package model

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus 報名狀態類型
type RegistrationStatus string

const (
	RegistrationStatusPending         RegistrationStatus = "pending"
	RegistrationStatusPendingApproval RegistrationStatus = "pending_approval"
	RegistrationStatusConfirmed       RegistrationStatus = "confirmed"
	RegistrationStatusCancelled       RegistrationStatus = "cancelled"
	RegistrationStatusRejected        RegistrationStatus = "rejected"
)

// IsValid 驗證狀態是否有效
func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusPendingApproval,
		RegistrationStatusConfirmed, RegistrationStatusCancelled, RegistrationStatusRejected:
		return true
	}
	return false
}

// IsTerminal cancelled / rejected 為終態，confirmed 之後只剩出席欄位會變動
func (s RegistrationStatus) IsTerminal() bool {
	return s == RegistrationStatusCancelled || s == RegistrationStatusRejected
}

// CanTransitionTo 檢查是否可以轉換到目標狀態；所有轉換合法性都查這張表
func (s RegistrationStatus) CanTransitionTo(target RegistrationStatus) bool {
	transitions := map[RegistrationStatus][]RegistrationStatus{
		RegistrationStatusPending: {
			RegistrationStatusPendingApproval,
			RegistrationStatusConfirmed,
			RegistrationStatusRejected,
			RegistrationStatusCancelled,
		},
		RegistrationStatusPendingApproval: {
			RegistrationStatusConfirmed,
			RegistrationStatusRejected,
			RegistrationStatusCancelled,
		},
		RegistrationStatusConfirmed: {
			RegistrationStatusCancelled,
		},
		RegistrationStatusCancelled: {},
		RegistrationStatusRejected:  {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// PaymentStatus 付款狀態類型
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// ApprovalStatus 付款審核狀態類型
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// ScanMethod 簽到方式
type ScanMethod string

const (
	ScanMethodCamera     ScanMethod = "camera"
	ScanMethodFileUpload ScanMethod = "file_upload"
	ScanMethodManual     ScanMethod = "manual"
)

func (m ScanMethod) IsValid() bool {
	switch m {
	case ScanMethodCamera, ScanMethodFileUpload, ScanMethodManual:
		return true
	}
	return false
}

// MerchandiseDetails 周邊商品明細；Quantity 是會從庫存扣除的單位數
type MerchandiseDetails struct {
	Size     string `json:"size" db:"merch_size"`
	Color    string `json:"color" db:"merch_color"`
	Quantity int    `json:"quantity" db:"merch_quantity"`
}

// PaymentApproval 人工審核子紀錄，只在審核流程中存在
type PaymentApproval struct {
	Status     ApprovalStatus `json:"status" db:"approval_status"`
	ReviewedBy *int           `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty" db:"reviewed_at"`
	AdminNotes *string        `json:"admin_notes,omitempty" db:"admin_notes"`
}

// ManualOverride 人工補登紀錄：每次人工介入都留底，不是可清除的開關
type ManualOverride struct {
	IsOverridden bool       `json:"is_overridden" db:"override_is_overridden"`
	Reason       *string    `json:"reason,omitempty" db:"override_reason"`
	OverriddenBy *int       `json:"overridden_by,omitempty" db:"overridden_by"`
	OverriddenAt *time.Time `json:"overridden_at,omitempty" db:"overridden_at"`
}

// Attendance 出席子紀錄
type Attendance struct {
	Attended   bool           `json:"attended" db:"attended"`
	AttendedAt *time.Time     `json:"attended_at,omitempty" db:"attended_at"`
	ScannedBy  *int           `json:"scanned_by,omitempty" db:"scanned_by"`
	ScanMethod *ScanMethod    `json:"scan_method,omitempty" db:"scan_method"`
	Override   ManualOverride `json:"manual_override"`
}

// Registration 報名模型：生命週期核心實體
type Registration struct {
	ID             int       `json:"id" db:"id"`
	RegistrationID uuid.UUID `json:"registration_id" db:"registration_id"`
	ParticipantID  int       `json:"participant_id" db:"participant_id"`
	EventID        int       `json:"event_id" db:"event_id"`

	// TicketID 只指派一次，第一次進入 confirmed 時寫入，之後不再變動
	TicketID *string `json:"ticket_id,omitempty" db:"ticket_id"`
	// QRCode 只有 confirmed 且簽發成功才非空
	QRCode *string `json:"qr_code,omitempty" db:"qr_code"`

	Status        RegistrationStatus `json:"status" db:"status"`
	PaymentStatus PaymentStatus      `json:"payment_status" db:"payment_status"`
	AmountPaid    float64            `json:"amount_paid" db:"amount_paid"`
	PaymentMethod *string            `json:"payment_method,omitempty" db:"payment_method"`
	PaymentProof  *string            `json:"payment_proof,omitempty" db:"payment_proof"`

	Merchandise *MerchandiseDetails `json:"merchandise_details,omitempty"`
	Approval    *PaymentApproval    `json:"payment_approval,omitempty"`
	Attendance  Attendance          `json:"attendance"`

	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Quantity 報名消耗的容量/庫存單位數；一般活動固定為 1
func (r *Registration) Quantity() int {
	if r.Merchandise != nil && r.Merchandise.Quantity > 0 {
		return r.Merchandise.Quantity
	}
	return 1
}

// IsOwnedBy 檢查使用者是否為此報名的參加者本人
func (r *Registration) IsOwnedBy(userID int) bool {
	return r.ParticipantID == userID
}

// CreateRegistrationRequest 建立報名請求
type CreateRegistrationRequest struct {
	EventID       uuid.UUID           `json:"event_id" binding:"required"`
	PaymentMethod *string             `json:"payment_method"`
	Merchandise   *MerchandiseDetails `json:"merchandise_details"`
}

// CancelRegistrationRequest 取消報名請求
type CancelRegistrationRequest struct {
	Reason string `json:"reason"`
}

// UploadProofRequest 上傳付款證明請求；檔案上傳在外部服務完成，這裡只存引用
type UploadProofRequest struct {
	ProofRef string `json:"proof_ref" binding:"required"`
}

// ReviewPaymentRequest 審核（核准/駁回）請求
type ReviewPaymentRequest struct {
	Notes string `json:"notes"`
}

// ScanRequest 掃描簽到請求
type ScanRequest struct {
	TicketID string `json:"ticket_id" binding:"required"`
	Method   string `json:"method" binding:"required,oneof=camera file_upload"`
}

// ManualOverrideRequest 人工補登請求；reason 為稽核必填
type ManualOverrideRequest struct {
	MarkAttended bool   `json:"mark_attended"`
	Reason       string `json:"reason" binding:"required"`
}

// CheckInResult 簽到結果，重複掃描時回傳既有簽到資訊
type CheckInResult struct {
	Registration     *Registration `json:"registration"`
	AlreadyCheckedIn bool          `json:"already_checked_in"`
}

// AttendanceStats 出席統計（dashboard 用）
type AttendanceStats struct {
	EventID         int     `json:"event_id"`
	Total           int     `json:"total"`
	Confirmed       int     `json:"confirmed"`
	PendingApproval int     `json:"pending_approval"`
	Cancelled       int     `json:"cancelled"`
	Rejected        int     `json:"rejected"`
	Attended        int     `json:"attended"`
	AttendanceRate  float64 `json:"attendance_rate"`
}

// ExportRow 出席報表列；參加者帳號已刪除時以哨兵值代替
type ExportRow struct {
	RegistrationID  uuid.UUID  `json:"registration_id"`
	ParticipantName string     `json:"participant_name"`
	ParticipantMail string     `json:"participant_email"`
	TicketID        *string    `json:"ticket_id"`
	Status          string     `json:"status"`
	Attended        bool       `json:"attended"`
	AttendedAt      *time.Time `json:"attended_at"`
	ScanMethod      *string    `json:"scan_method"`
}

// ExportResult 表格化輸出；CSV/ICS 格式化由外部服務處理
type ExportResult struct {
	Headers []string    `json:"headers"`
	Rows    []ExportRow `json:"rows"`
}

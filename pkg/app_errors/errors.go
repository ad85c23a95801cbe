package app_errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrAlreadyCheckedIn     = errors.New("registration already checked in")
	ErrAlreadyRegistered    = errors.New("participant already registered for event")
	ErrCapacityExceeded     = errors.New("event capacity exceeded")
	ErrStockExceeded        = errors.New("insufficient stock")
	ErrInvalidInput         = errors.New("invalid input")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrInternalServerError  = errors.New("internal server error")
)

// AlreadyCheckedInError 重複掃描：非致命，帶回既有簽到資訊給呼叫端顯示
type AlreadyCheckedInError struct {
	AttendedAt time.Time
	ScannedBy  int
	ScanMethod string
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("already checked in at %s by user %d", e.AttendedAt.Format(time.RFC3339), e.ScannedBy)
}

func (e *AlreadyCheckedInError) Unwrap() error {
	return ErrAlreadyCheckedIn
}

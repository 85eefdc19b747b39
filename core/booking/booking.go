package booking

import (
	"errors"
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

var (
	ErrNotFound            = errors.New("booking not found")
	ErrNoSchedules         = errors.New("at least one schedule must be selected")
	ErrScheduleMismatch    = errors.New("schedule does not belong to this class")
	ErrScheduleUnavailable = errors.New("schedule is not open for booking")
	ErrScheduleFull        = errors.New("schedule is fully booked")
	ErrNotCancellable      = errors.New("only pending unpaid bookings can be cancelled")
	ErrInvalidTransition   = errors.New("booking status change not allowed")
	ErrForbidden           = errors.New("not allowed to access this booking")
)

type Booking struct {
	ID            string    `json:"id" db:"booking_id"`
	UserID        string    `json:"userId" db:"user_id"`
	ClassID       string    `json:"classId" db:"class_id"`
	ScheduleIDs   []string  `json:"scheduleIds" db:"-"`
	Status        string    `json:"status" db:"status"`
	PaymentStatus string    `json:"paymentStatus" db:"payment_status"`
	PaymentID     string    `json:"paymentId" db:"payment_id"`
	TotalAmount   int64     `json:"totalAmount" db:"total_amount"`
	Currency      string    `json:"currency" db:"currency"`
	Notes         string    `json:"notes" db:"notes"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

type BookingNew struct {
	ClassID     string   `json:"classId" validate:"required,uuid"`
	ScheduleIDs []string `json:"scheduleIds" validate:"required,min=1,max=50,dive,uuid"`
	Notes       string   `json:"notes" validate:"max=1000"`
}

type StatusUp struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	UserID        string `db:"user_id"`
	ClassID       string `db:"class_id"`
	ExpertID      string `db:"expert_id"`
	Status        string `db:"status"`
	PaymentStatus string `db:"payment_status"`
	Limit         int    `db:"limit"`
	Offset        int    `db:"offset"`
}

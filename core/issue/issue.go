package issue

import (
	"errors"
	"time"
)

const (
	StatusPending    = "pending"
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

const (
	CategoryTechnical = "technical"
	CategoryPayment   = "payment"
	CategoryBooking   = "booking"
	CategoryAccount   = "account"
	CategoryOther     = "other"
)

// flow orders the statuses an issue moves through.
var flow = map[string]int{
	StatusPending:    0,
	StatusOpen:       1,
	StatusInProgress: 2,
	StatusResolved:   3,
	StatusClosed:     4,
}

var (
	ErrNotFound          = errors.New("issue not found")
	ErrForbidden         = errors.New("not allowed to access this issue")
	ErrAwaitingAdmin     = errors.New("you can reply once an admin has responded")
	ErrClosed            = errors.New("issue is closed")
	ErrInvalidTransition = errors.New("issue status can only move forward")
)

type Issue struct {
	ID          string    `json:"id" db:"issue_id"`
	UserID      string    `json:"userId" db:"user_id"`
	Category    string    `json:"category" db:"category"`
	Subject     string    `json:"subject" db:"subject"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Thread is an issue with its replies, oldest first.
type Thread struct {
	Issue
	Replies []Reply `json:"replies"`
}

type Reply struct {
	ID         string    `json:"id" db:"reply_id"`
	IssueID    string    `json:"issueId" db:"issue_id"`
	UserID     string    `json:"userId" db:"user_id"`
	AuthorRole string    `json:"authorRole" db:"author_role"`
	Message    string    `json:"message" db:"message"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type IssueNew struct {
	Category    string `json:"category" validate:"required,oneof=technical payment booking account other"`
	Subject     string `json:"subject" validate:"required,max=160"`
	Description string `json:"description" validate:"required,max=5000"`
}

type ReplyNew struct {
	Message string `json:"message" validate:"required,max=5000"`
}

type StatusUp struct {
	Status string `json:"status" validate:"required,oneof=pending open in_progress resolved closed"`
}

type Filter struct {
	UserID   string `db:"user_id"`
	Status   string `db:"status"`
	Category string `db:"category"`
	Limit    int    `db:"limit"`
	Offset   int    `db:"offset"`
}

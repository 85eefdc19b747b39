package schedule

import (
	"errors"
	"time"
)

const (
	StatusUpcoming  = "upcoming"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var (
	ErrNotFound      = errors.New("schedule not found")
	ErrInvalidWindow = errors.New("schedule must end after it starts")
	ErrBelowBooked   = errors.New("capacity cannot be lower than the booked seats")
	ErrSessionTaken  = errors.New("session number already used in this class")
)

type Schedule struct {
	ID            string    `json:"id" db:"schedule_id"`
	ClassID       string    `json:"classId" db:"class_id"`
	SessionNumber int       `json:"sessionNumber" db:"session_number"`
	Title         string    `json:"title" db:"title"`
	StartAt       time.Time `json:"startAt" db:"start_at"`
	EndAt         time.Time `json:"endAt" db:"end_at"`
	Capacity      int       `json:"capacity" db:"capacity"`
	BookedSeats   int       `json:"bookedSeats" db:"booked_seats"`
	Location      string    `json:"location" db:"location"`
	MeetingURL    string    `json:"meetingUrl" db:"meeting_url"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
	Version       int       `json:"-" db:"version"`
}

// Available reports whether a new booking may still pick the session.
func (s Schedule) Available() bool {
	return s.Status == StatusUpcoming && s.BookedSeats < s.Capacity
}

type ScheduleNew struct {
	SessionNumber int       `json:"sessionNumber" validate:"required,gte=1"`
	Title         string    `json:"title" validate:"max=160"`
	StartAt       time.Time `json:"startAt" validate:"required"`
	EndAt         time.Time `json:"endAt" validate:"required"`
	Capacity      int       `json:"capacity" validate:"required,gte=1"`
	Location      string    `json:"location" validate:"max=255"`
	MeetingURL    string    `json:"meetingUrl" validate:"omitempty,url"`
}

type ScheduleUp struct {
	SessionNumber *int       `json:"sessionNumber" validate:"omitempty,gte=1"`
	Title         *string    `json:"title" validate:"omitempty,max=160"`
	StartAt       *time.Time `json:"startAt"`
	EndAt         *time.Time `json:"endAt"`
	Capacity      *int       `json:"capacity" validate:"omitempty,gte=1"`
	Location      *string    `json:"location" validate:"omitempty,max=255"`
	MeetingURL    *string    `json:"meetingUrl" validate:"omitempty,url"`
	Status        *string    `json:"status" validate:"omitempty,oneof=upcoming ongoing completed cancelled"`
}

var ErrHasBookings = errors.New("schedule is referenced by bookings")

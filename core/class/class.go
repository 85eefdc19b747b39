package class

import (
	"errors"
	"time"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	TypeOffline = "offline"
	TypeOnline  = "online"
	TypeHybrid  = "hybrid"
)

const DefaultCurrency = "IDR"

var (
	ErrNotFound     = errors.New("class not found")
	ErrNotPublished = errors.New("class is not published")
	ErrHasBookings  = errors.New("class still has bookings")
	ErrForbidden    = errors.New("not allowed to manage this class")
	ErrNoExpert     = errors.New("expert profile required to create a class")
	ErrInactive     = errors.New("expert profile is not active")
)

type Class struct {
	ID                 string    `json:"id" db:"class_id"`
	ExpertID           string    `json:"expertId" db:"expert_id"`
	CategoryID         string    `json:"categoryId" db:"category_id"`
	Title              string    `json:"title" db:"title"`
	Description        string    `json:"description" db:"description"`
	Price              int64     `json:"price" db:"price"`
	Currency           string    `json:"currency" db:"currency"`
	Type               string    `json:"type" db:"type"`
	Location           string    `json:"location" db:"location"`
	ThumbnailStorageID string    `json:"thumbnailStorageId" db:"thumbnail_storage_id"`
	Status             string    `json:"status" db:"status"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
	Version            int       `json:"-" db:"version"`
}

// ClassNew is the create payload. ExpertID is only honoured for admins.
type ClassNew struct {
	ExpertID           string `json:"expertId" validate:"omitempty,uuid"`
	CategoryID         string `json:"categoryId" validate:"omitempty,uuid"`
	Title              string `json:"title" validate:"required,max=160"`
	Description        string `json:"description" validate:"max=5000"`
	Price              int64  `json:"price" validate:"gte=0"`
	Currency           string `json:"currency" validate:"omitempty,len=3"`
	Type               string `json:"type" validate:"required,oneof=offline online hybrid"`
	Location           string `json:"location" validate:"max=255"`
	ThumbnailStorageID string `json:"thumbnailStorageId"`
}

type ClassUp struct {
	CategoryID         *string `json:"categoryId" validate:"omitempty,uuid"`
	Title              *string `json:"title" validate:"omitempty,max=160"`
	Description        *string `json:"description" validate:"omitempty,max=5000"`
	Price              *int64  `json:"price" validate:"omitempty,gte=0"`
	Currency           *string `json:"currency" validate:"omitempty,len=3"`
	Type               *string `json:"type" validate:"omitempty,oneof=offline online hybrid"`
	Location           *string `json:"location" validate:"omitempty,max=255"`
	ThumbnailStorageID *string `json:"thumbnailStorageId"`
}

type StatusUp struct {
	Status string `json:"status" validate:"required,oneof=draft published completed cancelled"`
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status     string `db:"status"`
	ExpertID   string `db:"expert_id"`
	CategoryID string `db:"category_id"`
	Type       string `db:"type"`
	Search     string `db:"search"`
	Limit      int    `db:"limit"`
	Offset     int    `db:"offset"`
}

package expert

import (
	"errors"
	"time"

	"github.com/irsalhamdi/expert-class/database"
)

const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var (
	ErrNotFound      = errors.New("expert not found")
	ErrAlreadyExpert = errors.New("user already has an expert profile")
	ErrHasClasses    = errors.New("expert still teaches classes")
)

type Expert struct {
	ID              string              `json:"id" db:"expert_id"`
	UserID          string              `json:"userId" db:"user_id"`
	Name            string              `json:"name" db:"name"`
	Slug            string              `json:"slug" db:"slug"`
	Bio             string              `json:"bio" db:"bio"`
	Specializations database.StringList `json:"specializations" db:"specializations"`
	PhotoStorageID  string              `json:"photoStorageId" db:"photo_storage_id"`
	Status          string              `json:"status" db:"status"`
	CreatedAt       time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time           `json:"updatedAt" db:"updated_at"`
}

type ExpertNew struct {
	UserID          string   `json:"userId" validate:"omitempty,uuid"`
	Name            string   `json:"name" validate:"required,max=120"`
	Bio             string   `json:"bio" validate:"max=5000"`
	Specializations []string `json:"specializations" validate:"max=20,dive,required,max=60"`
	PhotoStorageID  string   `json:"photoStorageId"`
}

type ExpertUp struct {
	Name            *string   `json:"name" validate:"omitempty,max=120"`
	Bio             *string   `json:"bio" validate:"omitempty,max=5000"`
	Specializations *[]string `json:"specializations" validate:"omitempty,max=20,dive,required,max=60"`
	PhotoStorageID  *string   `json:"photoStorageId"`
}

type StatusUp struct {
	Status string `json:"status" validate:"required,oneof=pending active inactive"`
}

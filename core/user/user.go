package user

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID              string    `json:"id" db:"user_id"`
	ExternalID      string    `json:"-" db:"external_id"`
	Email           string    `json:"email" db:"email"`
	Name            string    `json:"name" db:"name"`
	Phone           string    `json:"phone" db:"phone"`
	AvatarStorageID string    `json:"avatarStorageId" db:"avatar_storage_id"`
	Role            string    `json:"role" db:"role"`
	ExpertID        string    `json:"expertId,omitempty" db:"expert_id"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

type UserUp struct {
	Name            *string `json:"name" validate:"omitempty,max=120"`
	Phone           *string `json:"phone" validate:"omitempty,max=20"`
	AvatarStorageID *string `json:"avatarStorageId"`
}

type RoleUp struct {
	Role string `json:"role" validate:"required,oneof=student expert admin"`
}

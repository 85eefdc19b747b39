package category

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("category not found")
	ErrInUse    = errors.New("category is still used by classes")
)

type Category struct {
	ID          string    `json:"id" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type CategoryNew struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"max=1000"`
}

type CategoryUp struct {
	Name        *string `json:"name" validate:"omitempty,max=80"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

package consultant

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("consultant not found")

type Consultant struct {
	ID             string    `json:"id" db:"consultant_id"`
	Name           string    `json:"name" db:"name"`
	Title          string    `json:"title" db:"title"`
	Bio            string    `json:"bio" db:"bio"`
	PhotoStorageID string    `json:"photoStorageId" db:"photo_storage_id"`
	WhatsApp       string    `json:"whatsapp" db:"whatsapp"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

type ConsultantNew struct {
	Name           string `json:"name" validate:"required,max=120"`
	Title          string `json:"title" validate:"max=120"`
	Bio            string `json:"bio" validate:"max=5000"`
	PhotoStorageID string `json:"photoStorageId"`
	WhatsApp       string `json:"whatsapp" validate:"omitempty,e164"`
}

type ConsultantUp struct {
	Name           *string `json:"name" validate:"omitempty,max=120"`
	Title          *string `json:"title" validate:"omitempty,max=120"`
	Bio            *string `json:"bio" validate:"omitempty,max=5000"`
	PhotoStorageID *string `json:"photoStorageId"`
	WhatsApp       *string `json:"whatsapp" validate:"omitempty,e164"`
	Active         *bool   `json:"active"`
}

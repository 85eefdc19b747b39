// Package benefit manages the benefit and additional perk lists shown on a
// class page.
package benefit

import (
	"errors"
	"time"
)

const (
	KindBenefit = "benefit"
	KindPerk    = "perk"
)

var ErrNotFound = errors.New("benefit not found")

type Benefit struct {
	ID          string    `json:"id" db:"benefit_id"`
	ClassID     string    `json:"classId" db:"class_id"`
	Kind        string    `json:"kind" db:"kind"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Icon        string    `json:"icon" db:"icon"`
	Position    int       `json:"position" db:"position"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type BenefitNew struct {
	Title       string `json:"title" validate:"required,max=160"`
	Description string `json:"description" validate:"max=2000"`
	Icon        string `json:"icon" validate:"max=60"`
	Position    int    `json:"position" validate:"gte=0"`
}

type BenefitUp struct {
	Title       *string `json:"title" validate:"omitempty,max=160"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Icon        *string `json:"icon" validate:"omitempty,max=60"`
	Position    *int    `json:"position" validate:"omitempty,gte=0"`
}

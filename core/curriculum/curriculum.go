// Package curriculum keeps the two ordered outlines every class carries:
// the curriculum modules taught and the learner journey steps.
package curriculum

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/irsalhamdi/expert-class/database"
)

const (
	KindCurriculum = "curriculum"
	KindJourney    = "journey"
)

type Item struct {
	Title           string `json:"title" validate:"required,max=160"`
	Description     string `json:"description" validate:"max=2000"`
	DurationMinutes int    `json:"durationMinutes,omitempty" validate:"gte=0"`
}

type Items []Item

func (it Items) Value() (driver.Value, error) {
	if it == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Item(it))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (it *Items) Scan(src any) error {
	return database.ScanJSON(src, (*[]Item)(it))
}

type Outline struct {
	ClassID   string    `json:"classId" db:"class_id"`
	Kind      string    `json:"kind" db:"kind"`
	Items     Items     `json:"items" db:"items"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type OutlineUp struct {
	Items []Item `json:"items" validate:"max=100,dive"`
}

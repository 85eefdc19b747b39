// Package documentation stores the illustrated write-ups attached to a
// class. Content is markdown; reads carry the rendered HTML.
package docs

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var ErrNotFound = errors.New("documentation not found")

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

type Documentation struct {
	ID             string    `json:"id" db:"documentation_id"`
	ClassID        string    `json:"classId" db:"class_id"`
	Title          string    `json:"title" db:"title"`
	Content        string    `json:"content" db:"content"`
	HTML           string    `json:"html" db:"-"`
	ImageStorageID string    `json:"imageStorageId" db:"image_storage_id"`
	Position       int       `json:"position" db:"position"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

type DocumentationNew struct {
	Title          string `json:"title" validate:"required,max=160"`
	Content        string `json:"content" validate:"max=50000"`
	ImageStorageID string `json:"imageStorageId"`
	Position       int    `json:"position" validate:"gte=0"`
}

type DocumentationUp struct {
	Title          *string `json:"title" validate:"omitempty,max=160"`
	Content        *string `json:"content" validate:"omitempty,max=50000"`
	ImageStorageID *string `json:"imageStorageId"`
	Position       *int    `json:"position" validate:"omitempty,gte=0"`
}

// Render converts markdown to HTML. Raw HTML in the source is dropped.
func Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

func (d *Documentation) render() error {
	html, err := Render(d.Content)
	if err != nil {
		return err
	}
	d.HTML = html
	return nil
}

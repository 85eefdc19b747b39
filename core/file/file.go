// Package file stores uploaded images and documents on local disk. Uploads
// go through short-lived signed URLs so the upload itself needs no bearer
// token.
package file

import (
	"errors"
	"regexp"
	"time"
)

const idLength = 32

var validID = regexp.MustCompile(`^[0-9A-Za-z]{32}$`)

var (
	ErrNotFound     = errors.New("file not found")
	ErrInvalidToken = errors.New("upload token is invalid or expired")
	ErrTooLarge     = errors.New("file is too large")
	ErrEmpty        = errors.New("file is empty")
)

type File struct {
	StorageID   string    `json:"storageId" db:"storage_id"`
	ContentType string    `json:"contentType" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	UploadedBy  string    `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type UploadURL struct {
	UploadURL string    `json:"uploadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ValidID reports whether id has the shape of a storage id.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/irsalhamdi/expert-class/random"
	"github.com/jmoiron/sqlx"
)

// Storage keeps file bodies under Dir and their records in the database.
type Storage struct {
	DB        *sqlx.DB
	Dir       string
	PublicURL string
	Secret    []byte
	TTL       time.Duration
	MaxBytes  int64
}

// UploadURL returns a URL the user can post one file to until it expires.
func (s *Storage) UploadURL(userID string, now time.Time) (UploadURL, error) {
	tok, exp, err := s.issueToken(userID, now)
	if err != nil {
		return UploadURL{}, err
	}
	return UploadURL{UploadURL: s.url("/files/upload/" + tok), ExpiresAt: exp}, nil
}

// URL is where the file with storage id is served from.
func (s *Storage) URL(id string) string {
	return s.url("/files/" + id)
}

func (s *Storage) url(path string) string {
	return strings.TrimRight(s.PublicURL, "/") + path
}

func (s *Storage) path(id string) string {
	return filepath.Join(s.Dir, id)
}

// Save writes body under a new storage id for the holder of token.
// contentType is sniffed from the body when empty.
func (s *Storage) Save(ctx context.Context, token, contentType string, body io.Reader) (File, error) {
	userID, err := s.parseToken(token)
	if err != nil {
		return File{}, err
	}

	id, err := random.StringSecure(idLength)
	if err != nil {
		return File{}, fmt.Errorf("generating storage id: %w", err)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return File{}, fmt.Errorf("creating storage dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return File{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	br := bufio.NewReader(body)
	if contentType == "" {
		head, _ := br.Peek(512)
		contentType = http.DetectContentType(head)
	}

	n, err := io.Copy(tmp, io.LimitReader(br, s.MaxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return File{}, fmt.Errorf("writing file: %w", err)
	}
	switch {
	case n == 0:
		return File{}, ErrEmpty
	case n > s.MaxBytes:
		return File{}, ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		return File{}, fmt.Errorf("moving file into place: %w", err)
	}

	f := File{
		StorageID:   id,
		ContentType: contentType,
		Size:        n,
		UploadedBy:  userID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := Create(ctx, s.DB, f); err != nil {
		os.Remove(s.path(id))
		return File{}, err
	}
	return f, nil
}

// Open returns the record and body of a stored file.
func (s *Storage) Open(ctx context.Context, id string) (File, *os.File, error) {
	if !ValidID(id) {
		return File{}, nil, ErrNotFound
	}

	f, err := Fetch(ctx, s.DB, id)
	if err != nil {
		return File{}, nil, err
	}

	body, err := os.Open(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, nil, ErrNotFound
		}
		return File{}, nil, fmt.Errorf("opening file[%s]: %w", id, err)
	}
	return f, body, nil
}

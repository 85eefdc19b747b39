package file

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
)

func webErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return weberr.NotFound(err)
	case errors.Is(err, ErrInvalidToken):
		return weberr.NotAuthorized(err)
	case errors.Is(err, ErrTooLarge):
		return weberr.NewError(err, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrEmpty):
		return weberr.Invalid(err)
	}
	return err
}

func HandleUploadURL(s *Storage) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		u, err := s.UploadURL(clm.UserID, time.Now())
		if err != nil {
			return fmt.Errorf("issuing upload url: %w", err)
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

// HandleUpload stores the raw request body. The signed token in the path
// stands in for authentication.
func HandleUpload(s *Storage) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxBytes+1)

		f, err := s.Save(ctx, web.Param(r, "token"), r.Header.Get("Content-Type"), r.Body)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				err = ErrTooLarge
			}
			return webErr(err)
		}

		return web.Respond(ctx, w, f, http.StatusCreated)
	}
}

func HandleURL(s *Storage) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if !ValidID(id) {
			return weberr.NotFound(ErrNotFound)
		}
		if _, err := Fetch(ctx, s.DB, id); err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, map[string]string{"url": s.URL(id)}, http.StatusOK)
	}
}

func HandleServe(s *Storage) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f, body, err := s.Open(ctx, web.Param(r, "id"))
		if err != nil {
			return webErr(err)
		}
		defer body.Close()

		w.Header().Set("Content-Type", f.ContentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		http.ServeContent(w, r, "", f.CreatedAt, body)
		return nil
	}
}

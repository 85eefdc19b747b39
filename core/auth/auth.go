package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/user"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

// Resolve maps a verified identity to the stored user, creating it on
// first sign-in. A role asserted by the provider is mirrored into the
// user record.
func Resolve(ctx context.Context, db *sqlx.DB, id Identity) (user.User, error) {
	u, err := user.FetchByExternalID(ctx, db, id.Subject)
	switch {
	case errors.Is(err, user.ErrNotFound):
		return create(ctx, db, id)
	case err != nil:
		return user.User{}, err
	}

	changed := false
	if id.Role != "" && claims.ValidRole(id.Role) && id.Role != u.Role {
		u.Role = id.Role
		changed = true
	}
	if id.Email != "" && id.Email != u.Email {
		u.Email = id.Email
		changed = true
	}

	if changed {
		u.UpdatedAt = time.Now().UTC()
		if err := user.Update(ctx, db, u); err != nil {
			return user.User{}, fmt.Errorf("mirroring identity of user[%s]: %w", u.ID, err)
		}
	}

	return u, nil
}

func create(ctx context.Context, db *sqlx.DB, id Identity) (user.User, error) {
	role := claims.RoleStudent
	if claims.ValidRole(id.Role) {
		role = id.Role
	}

	now := time.Now().UTC()
	u := user.User{
		ID:         validate.GenerateID(),
		ExternalID: id.Subject,
		Email:      id.Email,
		Name:       id.Name,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := user.Create(ctx, db, u); err != nil {
		// A concurrent first request already created it.
		if errors.Is(err, database.ErrDBDuplicatedEntry) {
			return user.FetchByExternalID(ctx, db, id.Subject)
		}
		return user.User{}, err
	}

	return u, nil
}

// Authenticate requires a valid bearer token and loads the caller's claims.
func Authenticate(db *sqlx.DB, v Verifier) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			raw, ok := bearer(r)
			if !ok {
				return weberr.NotAuthorized(errors.New("missing bearer token"))
			}

			id, err := v.Verify(ctx, raw)
			if err != nil {
				return weberr.NotAuthorized(err)
			}

			u, err := Resolve(ctx, db, id)
			if err != nil {
				return fmt.Errorf("resolving identity[%s]: %w", id.Subject, err)
			}

			ctx = claims.Set(ctx, claims.Claims{
				UserID:   u.ID,
				Role:     u.Role,
				ExpertID: u.ExpertID,
				Email:    u.Email,
			})

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Optional loads claims when a valid token is sent and lets anonymous
// requests through.
func Optional(db *sqlx.DB, v Verifier) web.Middleware {
	authen := Authenticate(db, v)
	m := func(handler web.Handler) web.Handler {
		withClaims := authen(handler)
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if _, ok := bearer(r); !ok {
				return handler(ctx, w, r)
			}
			return withClaims(ctx, w, r)
		}
		return h
	}
	return m
}

// Require rejects callers holding none of roles. It must run after
// Authenticate.
func Require(roles ...string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, err := claims.Get(ctx)
			if err != nil {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			if !clm.HasRole(roles...) {
				return weberr.Forbidden(fmt.Errorf("role %q is not one of %v", clm.Role, roles))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

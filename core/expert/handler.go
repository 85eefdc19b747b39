package expert

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/user"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func webErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, user.ErrNotFound):
		return weberr.NotFound(err)
	case errors.Is(err, ErrAlreadyExpert), errors.Is(err, ErrHasClasses), errors.Is(err, database.ErrDBDuplicatedEntry):
		return weberr.Conflict(err)
	case errors.Is(err, ErrSlugExhausted):
		return weberr.Unprocessable(err)
	}
	return err
}

// HandleList shows active experts. Admins may list any status.
func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		status := StatusActive
		if claims.IsAdmin(ctx) {
			status = r.URL.Query().Get("status")
		}

		experts, err := List(ctx, db, status)
		if err != nil {
			return fmt.Errorf("listing experts: %w", err)
		}

		return web.Respond(ctx, w, experts, http.StatusOK)
	}
}

// HandleShow accepts either the id or the slug of the expert.
func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ref := web.Param(r, "ref")

		var e Expert
		var err error
		if validate.CheckID(ref) == nil {
			e, err = Fetch(ctx, db, ref)
		} else {
			e, err = FetchBySlug(ctx, db, ref)
		}
		if err != nil {
			return webErr(fmt.Errorf("fetching expert[%s]: %w", ref, err))
		}

		clm, _ := claims.Get(ctx)
		if e.Status != StatusActive && !clm.CanManageExpert(e.UserID) {
			return weberr.NotFound(ErrNotFound)
		}

		return web.Respond(ctx, w, e, http.StatusOK)
	}
}

func HandleShowMine(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		e, err := FetchByUser(ctx, db, clm.UserID)
		if err != nil {
			return webErr(fmt.Errorf("fetching expert of user[%s]: %w", clm.UserID, err))
		}

		return web.Respond(ctx, w, e, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var nw ExpertNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		e, err := Register(ctx, db, clm, nw)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, e, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		var up ExpertUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.Invalid(err)
		}

		e, err := Fetch(ctx, db, id)
		if err != nil {
			return webErr(fmt.Errorf("fetching expert[%s]: %w", id, err))
		}
		if !clm.CanManageExpert(e.UserID) {
			return weberr.Forbidden(fmt.Errorf("user[%s] cannot edit expert[%s]", clm.UserID, id))
		}

		if e, err = Edit(ctx, db, id, up); err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, e, http.StatusOK)
	}
}

func HandleUpdateStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		var up StatusUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.Invalid(err)
		}

		e, err := SetStatus(ctx, db, id, up.Status)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, e, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		if err := Remove(ctx, db, id); err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

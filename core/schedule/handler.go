package schedule

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func webErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, class.ErrNotFound):
		return weberr.NotFound(err)
	case errors.Is(err, class.ErrForbidden):
		return weberr.Forbidden(err)
	case errors.Is(err, ErrInvalidWindow), errors.Is(err, ErrBelowBooked):
		return weberr.Unprocessable(err)
	case errors.Is(err, ErrSessionTaken), errors.Is(err, ErrHasBookings):
		return weberr.Conflict(err)
	}
	return err
}

// HandleListByClass lists the sessions of a class the caller can see.
func HandleListByClass(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		classID := web.Param(r, "id")
		if err := validate.CheckID(classID); err != nil {
			return weberr.NotFound(err)
		}

		c, err := class.Fetch(ctx, db, classID)
		if err != nil {
			return webErr(err)
		}
		clm, _ := claims.Get(ctx)
		if !class.Visible(clm, c) {
			return weberr.NotFound(class.ErrNotFound)
		}

		ss, err := ListByClass(ctx, db, classID)
		if err != nil {
			return fmt.Errorf("listing schedules: %w", err)
		}

		return web.Respond(ctx, w, ss, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		s, err := Fetch(ctx, db, id)
		if err != nil {
			return webErr(err)
		}

		c, err := class.Fetch(ctx, db, s.ClassID)
		if err != nil {
			return webErr(err)
		}
		clm, _ := claims.Get(ctx)
		if !class.Visible(clm, c) {
			return weberr.NotFound(ErrNotFound)
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		classID := web.Param(r, "id")
		if err := validate.CheckID(classID); err != nil {
			return weberr.NotFound(err)
		}

		var nw ScheduleNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		s, err := Add(ctx, db, clm, classID, nw)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, s, http.StatusCreated)
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

		var up ScheduleUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.Invalid(err)
		}

		s, err := Edit(ctx, db, clm, id, up)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		if err := Remove(ctx, db, clm, id); err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

package class

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/expert"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func webErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, expert.ErrNotFound):
		return weberr.NotFound(err)
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNoExpert):
		return weberr.Forbidden(err)
	case errors.Is(err, ErrHasBookings), errors.Is(err, ErrInactive):
		return weberr.Conflict(err)
	}
	return err
}

func filter(r *http.Request) Filter {
	q := r.URL.Query()
	rows := web.QueryInt(r, "rows", 20)
	if rows > 100 {
		rows = 100
	}
	page := web.QueryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}

	return Filter{
		ExpertID:   q.Get("expertId"),
		CategoryID: q.Get("categoryId"),
		Type:       q.Get("type"),
		Search:     q.Get("q"),
		Limit:      rows,
		Offset:     (page - 1) * rows,
	}
}

// HandleList shows published classes. Admins may ask for any status.
func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := filter(r)
		f.Status = StatusPublished
		if claims.IsAdmin(ctx) {
			f.Status = r.URL.Query().Get("status")
		}

		classes, err := List(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing classes: %w", err)
		}

		return web.Respond(ctx, w, classes, http.StatusOK)
	}
}

// HandleListMine lists every class of the calling expert, drafts included.
func HandleListMine(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}
		if clm.ExpertID == "" {
			return weberr.Forbidden(ErrNoExpert)
		}

		f := filter(r)
		f.ExpertID = clm.ExpertID
		f.Status = r.URL.Query().Get("status")

		classes, err := List(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing classes of expert[%s]: %w", clm.ExpertID, err)
		}

		return web.Respond(ctx, w, classes, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		c, err := Fetch(ctx, db, id)
		if err != nil {
			return webErr(fmt.Errorf("fetching class[%s]: %w", id, err))
		}

		clm, _ := claims.Get(ctx)
		if !Visible(clm, c) {
			return weberr.NotFound(ErrNotFound)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var nw ClassNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		c, err := Open(ctx, db, clm, nw)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
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

		var up ClassUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.Invalid(err)
		}

		c, err := Edit(ctx, db, clm, id, up)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleUpdateStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

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

		c, err := SetStatus(ctx, db, clm, id, up.Status)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
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

package issue

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func webErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return weberr.NotFound(err)
	case errors.Is(err, ErrForbidden):
		return weberr.Forbidden(err)
	case errors.Is(err, ErrAwaitingAdmin), errors.Is(err, ErrClosed), errors.Is(err, ErrInvalidTransition):
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
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Limit:    rows,
		Offset:   (page - 1) * rows,
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var nw IssueNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		is, err := Open(ctx, db, clm, nw)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, is, http.StatusCreated)
	}
}

func HandleListMine(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		f := filter(r)
		f.UserID = clm.UserID

		is, err := List(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing issues of user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, is, http.StatusOK)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := filter(r)
		f.UserID = r.URL.Query().Get("userId")

		is, err := List(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing issues: %w", err)
		}

		return web.Respond(ctx, w, is, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		th, err := Read(ctx, db, clm, id)
		if err != nil {
			return webErr(fmt.Errorf("reading issue[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, th, http.StatusOK)
	}
}

func HandleReply(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		var nw ReplyNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		rep, err := AddReply(ctx, db, clm, id, nw)
		if err != nil {
			return webErr(fmt.Errorf("replying to issue[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, rep, http.StatusCreated)
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

		is, err := SetStatus(ctx, db, id, up.Status)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, is, http.StatusOK)
	}
}

package curriculum

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func webErr(err error) error {
	switch {
	case errors.Is(err, class.ErrNotFound):
		return weberr.NotFound(err)
	case errors.Is(err, class.ErrForbidden):
		return weberr.Forbidden(err)
	}
	return err
}

// HandleShow serves the outline of the given kind.
func HandleShow(db *sqlx.DB, kind string) web.Handler {
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

		o, err := Fetch(ctx, db, classID, kind)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, o, http.StatusOK)
	}
}

// HandleSave replaces the outline of the given kind.
func HandleSave(db *sqlx.DB, kind string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		classID := web.Param(r, "id")
		if err := validate.CheckID(classID); err != nil {
			return weberr.NotFound(err)
		}

		var up OutlineUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.Invalid(err)
		}

		if _, err := class.Authorize(ctx, db, clm, classID); err != nil {
			return webErr(err)
		}

		o, err := Fetch(ctx, db, classID, kind)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		o.Items = up.Items
		if o.Items == nil {
			o.Items = Items{}
		}
		o.UpdatedAt = now

		if err := Save(ctx, db, o); err != nil {
			return err
		}

		return web.Respond(ctx, w, o, http.StatusOK)
	}
}

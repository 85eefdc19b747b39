package docs

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
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func webErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, class.ErrNotFound):
		return weberr.NotFound(err)
	case errors.Is(err, class.ErrForbidden):
		return weberr.Forbidden(err)
	}
	return err
}

func HandleList(db *sqlx.DB) web.Handler {
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

		docs, err := ListByClass(ctx, db, classID)
		if err != nil {
			return err
		}
		for i := range docs {
			if err := docs[i].render(); err != nil {
				return err
			}
		}

		return web.Respond(ctx, w, docs, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		d, err := Fetch(ctx, db, id)
		if err != nil {
			return webErr(err)
		}
		c, err := class.Fetch(ctx, db, d.ClassID)
		if err != nil {
			return webErr(err)
		}
		clm, _ := claims.Get(ctx)
		if !class.Visible(clm, c) {
			return weberr.NotFound(ErrNotFound)
		}

		if err := d.render(); err != nil {
			return err
		}

		return web.Respond(ctx, w, d, http.StatusOK)
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

		var nw DocumentationNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		if _, err := class.Authorize(ctx, db, clm, classID); err != nil {
			return webErr(err)
		}

		now := time.Now().UTC()
		d := Documentation{
			ID:             validate.GenerateID(),
			ClassID:        classID,
			Title:          nw.Title,
			Content:        nw.Content,
			ImageStorageID: nw.ImageStorageID,
			Position:       nw.Position,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := Create(ctx, db, d); err != nil {
			return err
		}
		if err := d.render(); err != nil {
			return err
		}

		return web.Respond(ctx, w, d, http.StatusCreated)
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

		var up DocumentationUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.Invalid(err)
		}

		var d Documentation
		err = database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
			var err error
			if d, err = Fetch(ctx, tx, id); err != nil {
				return err
			}
			if _, err := class.Authorize(ctx, tx, clm, d.ClassID); err != nil {
				return err
			}

			if up.Title != nil {
				d.Title = *up.Title
			}
			if up.Content != nil {
				d.Content = *up.Content
			}
			if up.ImageStorageID != nil {
				d.ImageStorageID = *up.ImageStorageID
			}
			if up.Position != nil {
				d.Position = *up.Position
			}
			d.UpdatedAt = time.Now().UTC()

			return Update(ctx, tx, d)
		})
		if err != nil {
			return webErr(err)
		}
		if err := d.render(); err != nil {
			return err
		}

		return web.Respond(ctx, w, d, http.StatusOK)
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

		err = database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
			d, err := Fetch(ctx, tx, id)
			if err != nil {
				return err
			}
			if _, err := class.Authorize(ctx, tx, clm, d.ClassID); err != nil {
				return err
			}
			return Delete(ctx, tx, id)
		})
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

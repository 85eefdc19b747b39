package category

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/slug"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func webErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return weberr.NotFound(err)
	case errors.Is(err, ErrInUse), errors.Is(err, database.ErrDBDuplicatedEntry):
		return weberr.Conflict(err)
	case errors.Is(err, slug.ErrExhausted):
		return weberr.Unprocessable(err)
	}
	return err
}

func freeSlug(ctx context.Context, db sqlx.ExtContext, name string, exceptID string) (string, error) {
	return slug.Unique(ctx, slug.Make(name), func(ctx context.Context, s string) (bool, error) {
		return slugTaken(ctx, db, s, exceptID)
	})
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cats, err := List(ctx, db)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}

		return web.Respond(ctx, w, cats, http.StatusOK)
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
			return webErr(err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var nw CategoryNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		var c Category
		err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
			s, err := freeSlug(ctx, tx, nw.Name, "")
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			c = Category{
				ID:          validate.GenerateID(),
				Name:        nw.Name,
				Slug:        s,
				Description: nw.Description,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			return Create(ctx, tx, c)
		})
		if err != nil {
			return webErr(fmt.Errorf("creating category: %w", err))
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		var up CategoryUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.Invalid(err)
		}

		var c Category
		err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
			var err error
			if c, err = Fetch(ctx, tx, id); err != nil {
				return err
			}

			if up.Name != nil && *up.Name != c.Name {
				c.Name = *up.Name
				if c.Slug, err = freeSlug(ctx, tx, c.Name, c.ID); err != nil {
					return err
				}
			}
			if up.Description != nil {
				c.Description = *up.Description
			}
			c.UpdatedAt = time.Now().UTC()

			return Update(ctx, tx, c)
		})
		if err != nil {
			return webErr(fmt.Errorf("updating category[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
			n, err := countClasses(ctx, tx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return ErrInUse
			}
			return Delete(ctx, tx, id)
		})
		if err != nil {
			return webErr(fmt.Errorf("deleting category[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

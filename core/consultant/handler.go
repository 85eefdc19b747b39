package consultant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		all := claims.IsAdmin(ctx) && r.URL.Query().Get("all") == "true"

		cs, err := List(ctx, db, all)
		if err != nil {
			return fmt.Errorf("listing consultants: %w", err)
		}

		return web.Respond(ctx, w, cs, http.StatusOK)
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
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}
		if !c.Active && !claims.IsAdmin(ctx) {
			return weberr.NotFound(ErrNotFound)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var nw ConsultantNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		now := time.Now().UTC()
		c := Consultant{
			ID:             validate.GenerateID(),
			Name:           nw.Name,
			Title:          nw.Title,
			Bio:            nw.Bio,
			PhotoStorageID: nw.PhotoStorageID,
			WhatsApp:       nw.WhatsApp,
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := Create(ctx, db, c); err != nil {
			return err
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

		var up ConsultantUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.Invalid(err)
		}

		var c Consultant
		err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
			var err error
			if c, err = Fetch(ctx, tx, id); err != nil {
				return err
			}

			if up.Name != nil {
				c.Name = *up.Name
			}
			if up.Title != nil {
				c.Title = *up.Title
			}
			if up.Bio != nil {
				c.Bio = *up.Bio
			}
			if up.PhotoStorageID != nil {
				c.PhotoStorageID = *up.PhotoStorageID
			}
			if up.WhatsApp != nil {
				c.WhatsApp = *up.WhatsApp
			}
			if up.Active != nil {
				c.Active = *up.Active
			}
			c.UpdatedAt = time.Now().UTC()

			return Update(ctx, tx, c)
		})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
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

		if err := Delete(ctx, db, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

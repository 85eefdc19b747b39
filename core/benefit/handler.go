package benefit

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

// Handlers serves one kind of list, benefits or perks, under the same routes.
type Handlers struct {
	DB   *sqlx.DB
	Kind string
}

func (h Handlers) List() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		classID := web.Param(r, "id")
		if err := validate.CheckID(classID); err != nil {
			return weberr.NotFound(err)
		}

		c, err := class.Fetch(ctx, h.DB, classID)
		if err != nil {
			return webErr(err)
		}
		clm, _ := claims.Get(ctx)
		if !class.Visible(clm, c) {
			return weberr.NotFound(class.ErrNotFound)
		}

		bs, err := ListByClass(ctx, h.DB, classID, h.Kind)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, bs, http.StatusOK)
	}
}

func (h Handlers) Create() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		classID := web.Param(r, "id")
		if err := validate.CheckID(classID); err != nil {
			return weberr.NotFound(err)
		}

		var nw BenefitNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		if _, err := class.Authorize(ctx, h.DB, clm, classID); err != nil {
			return webErr(err)
		}

		now := time.Now().UTC()
		b := Benefit{
			ID:          validate.GenerateID(),
			ClassID:     classID,
			Kind:        h.Kind,
			Title:       nw.Title,
			Description: nw.Description,
			Icon:        nw.Icon,
			Position:    nw.Position,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := Create(ctx, h.DB, b); err != nil {
			return err
		}

		return web.Respond(ctx, w, b, http.StatusCreated)
	}
}

func (h Handlers) Update() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		var up BenefitUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.Invalid(err)
		}

		var b Benefit
		err = database.TransactionContext(ctx, h.DB, func(tx sqlx.ExtContext) error {
			if b, err = h.authorized(ctx, tx, clm, id); err != nil {
				return err
			}

			if up.Title != nil {
				b.Title = *up.Title
			}
			if up.Description != nil {
				b.Description = *up.Description
			}
			if up.Icon != nil {
				b.Icon = *up.Icon
			}
			if up.Position != nil {
				b.Position = *up.Position
			}
			b.UpdatedAt = time.Now().UTC()

			return Update(ctx, tx, b)
		})
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, b, http.StatusOK)
	}
}

func (h Handlers) Delete() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		err = database.TransactionContext(ctx, h.DB, func(tx sqlx.ExtContext) error {
			if _, err := h.authorized(ctx, tx, clm, id); err != nil {
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

// authorized loads an item of the handled kind the caller may manage.
func (h Handlers) authorized(ctx context.Context, db sqlx.ExtContext, clm claims.Claims, id string) (Benefit, error) {
	b, err := Fetch(ctx, db, id)
	if err != nil {
		return Benefit{}, err
	}
	if b.Kind != h.Kind {
		return Benefit{}, ErrNotFound
	}
	if _, err := class.Authorize(ctx, db, clm, b.ClassID); err != nil {
		return Benefit{}, err
	}
	return b, nil
}

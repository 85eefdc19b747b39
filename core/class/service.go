package class

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/expert"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

// Authorize loads the class and checks the caller may manage it.
func Authorize(ctx context.Context, db sqlx.ExtContext, clm claims.Claims, id string) (Class, error) {
	c, err := Fetch(ctx, db, id)
	if err != nil {
		return Class{}, err
	}
	if !clm.CanManageClass(c.ExpertID) {
		return Class{}, fmt.Errorf("%w: user[%s] class[%s]", ErrForbidden, clm.UserID, id)
	}
	return c, nil
}

// Visible reports whether the class may be shown to the caller.
func Visible(clm claims.Claims, c Class) bool {
	return c.Status == StatusPublished || clm.CanManageClass(c.ExpertID)
}

// Open creates a draft class. Experts always create for their own profile,
// admins must name the expert.
func Open(ctx context.Context, db *sqlx.DB, clm claims.Claims, nw ClassNew) (Class, error) {
	expertID := clm.ExpertID
	if clm.IsAdmin() && nw.ExpertID != "" {
		expertID = nw.ExpertID
	}
	if expertID == "" || !clm.CanManageClass(expertID) {
		return Class{}, ErrNoExpert
	}

	ex, err := expert.Fetch(ctx, db, expertID)
	if err != nil {
		return Class{}, fmt.Errorf("fetching expert[%s]: %w", expertID, err)
	}
	if ex.Status != expert.StatusActive {
		return Class{}, ErrInactive
	}

	currency := nw.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	now := time.Now().UTC()
	c := Class{
		ID:                 validate.GenerateID(),
		ExpertID:           expertID,
		CategoryID:         nw.CategoryID,
		Title:              nw.Title,
		Description:        nw.Description,
		Price:              nw.Price,
		Currency:           currency,
		Type:               nw.Type,
		Location:           nw.Location,
		ThumbnailStorageID: nw.ThumbnailStorageID,
		Status:             StatusDraft,
		CreatedAt:          now,
		UpdatedAt:          now,
		Version:            1,
	}
	if err := Create(ctx, db, c); err != nil {
		return Class{}, err
	}

	return c, nil
}

func Edit(ctx context.Context, db *sqlx.DB, clm claims.Claims, id string, up ClassUp) (Class, error) {
	var c Class
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		var err error
		if c, err = Authorize(ctx, tx, clm, id); err != nil {
			return err
		}

		if up.CategoryID != nil {
			c.CategoryID = *up.CategoryID
		}
		if up.Title != nil {
			c.Title = *up.Title
		}
		if up.Description != nil {
			c.Description = *up.Description
		}
		if up.Price != nil {
			c.Price = *up.Price
		}
		if up.Currency != nil {
			c.Currency = *up.Currency
		}
		if up.Type != nil {
			c.Type = *up.Type
		}
		if up.Location != nil {
			c.Location = *up.Location
		}
		if up.ThumbnailStorageID != nil {
			c.ThumbnailStorageID = *up.ThumbnailStorageID
		}
		c.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, tx, c); err != nil {
			return err
		}
		c.Version++
		return nil
	})
	if err != nil {
		return Class{}, err
	}

	return c, nil
}

func SetStatus(ctx context.Context, db *sqlx.DB, clm claims.Claims, id string, status string) (Class, error) {
	var c Class
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		var err error
		if c, err = Authorize(ctx, tx, clm, id); err != nil {
			return err
		}

		c.Status = status
		c.UpdatedAt = time.Now().UTC()
		if err := Update(ctx, tx, c); err != nil {
			return err
		}
		c.Version++
		return nil
	})
	if err != nil {
		return Class{}, err
	}

	return c, nil
}

// Remove deletes the class with its schedules and content. Classes that
// were ever booked are kept for the booking history.
func Remove(ctx context.Context, db *sqlx.DB, clm claims.Claims, id string) error {
	return database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		if _, err := Authorize(ctx, tx, clm, id); err != nil {
			return err
		}

		n, err := CountBookings(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasBookings
		}

		return Delete(ctx, tx, id)
	})
}

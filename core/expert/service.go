package expert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/slug"
	"github.com/irsalhamdi/expert-class/core/user"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

// ErrSlugExhausted is returned when every numbered variant of a name's
// slug is already taken.
var ErrSlugExhausted = slug.ErrExhausted

// NewSlug derives a slug from name that no expert but exceptID uses.
func NewSlug(ctx context.Context, db sqlx.ExtContext, name string, exceptID string) (string, error) {
	return slug.Unique(ctx, slug.Make(name), func(ctx context.Context, s string) (bool, error) {
		return SlugTaken(ctx, db, s, exceptID)
	})
}

// Register creates the expert profile of a user. Profiles registered by an
// admin start active and promote the user right away; self registrations
// wait for an admin.
func Register(ctx context.Context, db *sqlx.DB, clm claims.Claims, nw ExpertNew) (Expert, error) {
	userID := clm.UserID
	status := StatusPending
	if clm.IsAdmin() && nw.UserID != "" {
		userID = nw.UserID
		status = StatusActive
	}

	var e Expert
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		u, err := user.Fetch(ctx, tx, userID)
		if err != nil {
			return err
		}

		if _, err := FetchByUser(ctx, tx, userID); err == nil {
			return ErrAlreadyExpert
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		s, err := NewSlug(ctx, tx, nw.Name, "")
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		e = Expert{
			ID:              validate.GenerateID(),
			UserID:          userID,
			Name:            nw.Name,
			Slug:            s,
			Bio:             nw.Bio,
			Specializations: nw.Specializations,
			PhotoStorageID:  nw.PhotoStorageID,
			Status:          status,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := Create(ctx, tx, e); err != nil {
			return err
		}

		role := u.Role
		if status == StatusActive && role != claims.RoleAdmin {
			role = claims.RoleExpert
		}
		return user.UpdateRole(ctx, tx, userID, role, e.ID)
	})
	if err != nil {
		return Expert{}, fmt.Errorf("registering expert for user[%s]: %w", userID, err)
	}

	return e, nil
}

// Edit applies up to the profile. A new name yields a new slug.
func Edit(ctx context.Context, db *sqlx.DB, id string, up ExpertUp) (Expert, error) {
	var e Expert
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		var err error
		if e, err = Fetch(ctx, tx, id); err != nil {
			return err
		}

		if up.Name != nil && *up.Name != e.Name {
			e.Name = *up.Name
			if e.Slug, err = NewSlug(ctx, tx, e.Name, e.ID); err != nil {
				return err
			}
		}
		if up.Bio != nil {
			e.Bio = *up.Bio
		}
		if up.Specializations != nil {
			e.Specializations = *up.Specializations
		}
		if up.PhotoStorageID != nil {
			e.PhotoStorageID = *up.PhotoStorageID
		}
		e.UpdatedAt = time.Now().UTC()

		return Update(ctx, tx, e)
	})
	if err != nil {
		return Expert{}, fmt.Errorf("editing expert[%s]: %w", id, err)
	}

	return e, nil
}

// SetStatus moves the profile to status and keeps the owner's role in step:
// active experts hold the expert role, inactive ones fall back to student.
func SetStatus(ctx context.Context, db *sqlx.DB, id string, status string) (Expert, error) {
	var e Expert
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		var err error
		if e, err = Fetch(ctx, tx, id); err != nil {
			return err
		}

		u, err := user.Fetch(ctx, tx, e.UserID)
		if err != nil {
			return err
		}

		e.Status = status
		e.UpdatedAt = time.Now().UTC()
		if err := Update(ctx, tx, e); err != nil {
			return err
		}

		if u.Role == claims.RoleAdmin {
			return nil
		}
		role := claims.RoleStudent
		if status == StatusActive {
			role = claims.RoleExpert
		}
		return user.UpdateRole(ctx, tx, u.ID, role, e.ID)
	})
	if err != nil {
		return Expert{}, fmt.Errorf("setting status of expert[%s]: %w", id, err)
	}

	return e, nil
}

// Remove deletes a profile that teaches no class and unlinks its owner.
func Remove(ctx context.Context, db *sqlx.DB, id string) error {
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		e, err := Fetch(ctx, tx, id)
		if err != nil {
			return err
		}

		n, err := CountClasses(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasClasses
		}

		if err := user.ClearExpert(ctx, tx, e.UserID); err != nil {
			return err
		}
		return Delete(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("removing expert[%s]: %w", id, err)
	}
	return nil
}

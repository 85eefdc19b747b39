package issue

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

// Open files a new support ticket for the caller.
func Open(ctx context.Context, db sqlx.ExtContext, clm claims.Claims, nw IssueNew) (Issue, error) {
	if !clm.HasRole(claims.RoleStudent, claims.RoleExpert) {
		return Issue{}, ErrForbidden
	}

	now := time.Now().UTC()
	is := Issue{
		ID:          validate.GenerateID(),
		UserID:      clm.UserID,
		Category:    nw.Category,
		Subject:     nw.Subject,
		Description: nw.Description,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := Create(ctx, db, is); err != nil {
		return Issue{}, err
	}
	return is, nil
}

// Read returns the thread when the caller owns the issue or is an admin.
func Read(ctx context.Context, db sqlx.ExtContext, clm claims.Claims, id string) (Thread, error) {
	is, err := Fetch(ctx, db, id)
	if err != nil {
		return Thread{}, err
	}
	if !clm.CanView(is.UserID) {
		return Thread{}, ErrNotFound
	}

	rs, err := ListReplies(ctx, db, id)
	if err != nil {
		return Thread{}, err
	}
	return Thread{Issue: is, Replies: rs}, nil
}

// AddReply adds a message to the thread. Admins may always answer and their
// first answer opens a pending issue. The owner may only follow up once
// an admin has answered and the issue is not closed.
func AddReply(ctx context.Context, db *sqlx.DB, clm claims.Claims, id string, nw ReplyNew) (Reply, error) {
	var r Reply
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		is, err := Fetch(ctx, tx, id)
		if err != nil {
			return err
		}

		switch {
		case clm.IsAdmin():
			if is.Status == StatusPending {
				if _, err := UpdateStatus(ctx, tx, id, StatusPending, StatusOpen); err != nil {
					return err
				}
			}

		case clm.Owns(is.UserID):
			if is.Status == StatusClosed {
				return ErrClosed
			}
			answered, err := HasAdminReply(ctx, tx, id)
			if err != nil {
				return err
			}
			if !answered {
				return ErrAwaitingAdmin
			}

		default:
			return ErrForbidden
		}

		r = Reply{
			ID:         validate.GenerateID(),
			IssueID:    id,
			UserID:     clm.UserID,
			AuthorRole: clm.Role,
			Message:    nw.Message,
			CreatedAt:  time.Now().UTC(),
		}
		return CreateReply(ctx, tx, r)
	})
	if err != nil {
		return Reply{}, err
	}
	return r, nil
}

// SetStatus moves the issue forward along its flow.
func SetStatus(ctx context.Context, db *sqlx.DB, id, status string) (Issue, error) {
	var is Issue
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		var err error
		if is, err = Fetch(ctx, tx, id); err != nil {
			return err
		}

		if flow[status] <= flow[is.Status] {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, is.Status, status)
		}

		ok, err := UpdateStatus(ctx, tx, id, is.Status, status)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: issue[%s] changed concurrently", ErrInvalidTransition, id)
		}

		is.Status = status
		return nil
	})
	if err != nil {
		return Issue{}, err
	}
	return is, nil
}

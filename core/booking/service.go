package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/schedule"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Book creates a pending booking for userID. Seats are not held: they are
// taken when the booking is confirmed. The amount is the class price
// whatever the number of sessions picked.
func Book(ctx context.Context, db *sqlx.DB, userID string, nw BookingNew) (Booking, error) {
	var b Booking
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		c, err := class.Fetch(ctx, tx, nw.ClassID)
		if err != nil {
			return err
		}
		if c.Status != class.StatusPublished {
			return class.ErrNotPublished
		}

		ids := unique(nw.ScheduleIDs)
		if len(ids) == 0 {
			return ErrNoSchedules
		}

		for _, id := range ids {
			s, err := schedule.Fetch(ctx, tx, id)
			if err != nil {
				return err
			}
			switch {
			case s.ClassID != c.ID:
				return fmt.Errorf("%w: schedule[%s]", ErrScheduleMismatch, id)
			case s.Status != schedule.StatusUpcoming:
				return fmt.Errorf("%w: schedule[%s] is %s", ErrScheduleUnavailable, id, s.Status)
			case s.BookedSeats >= s.Capacity:
				return fmt.Errorf("%w: schedule[%s]", ErrScheduleFull, id)
			}
		}

		now := time.Now().UTC()
		b = Booking{
			ID:            validate.GenerateID(),
			UserID:        userID,
			ClassID:       c.ID,
			ScheduleIDs:   ids,
			Status:        StatusPending,
			PaymentStatus: PaymentPending,
			TotalAmount:   c.Price,
			Currency:      c.Currency,
			Notes:         nw.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return Create(ctx, tx, b)
	})
	if err != nil {
		return Booking{}, err
	}

	return b, nil
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Confirm marks the booking paid and confirmed and takes one seat on each
// of its schedules. It is the only place seats are taken and it is safe to
// call again: an already paid booking is left untouched, and so is a
// cancelled or completed one. Sessions filled up in the meantime are logged
// and skipped, the booking stays confirmed without a seat recorded there.
//
// Confirm must run inside the caller's transaction. It reports whether the
// booking changed.
func Confirm(ctx context.Context, tx sqlx.ExtContext, log logrus.FieldLogger, id string) (bool, error) {
	changed, err := MarkPaid(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if !changed {
		b, err := Fetch(ctx, tx, id)
		if err != nil {
			return false, err
		}
		if b.Status == StatusCancelled || b.Status == StatusCompleted {
			log.WithFields(logrus.Fields{
				"booking_id": id,
				"status":     b.Status,
			}).Warn("payment settled on a closed booking, left for review")
		}
		return false, nil
	}

	b, err := Fetch(ctx, tx, id)
	if err != nil {
		return false, err
	}

	for _, sid := range b.ScheduleIDs {
		ok, err := schedule.ReserveSeat(ctx, tx, sid)
		if err != nil {
			return false, err
		}
		if !ok {
			log.WithFields(logrus.Fields{
				"booking_id":  id,
				"schedule_id": sid,
			}).Warn("schedule full at confirmation, seat not reserved")
			continue
		}
		if err := MarkReserved(ctx, tx, id, sid); err != nil {
			return false, err
		}
	}

	return true, nil
}

// FailPayment records a failed or expired payment on the booking.
func FailPayment(ctx context.Context, tx sqlx.ExtContext, id string) (bool, error) {
	changed, err := MarkPaymentFailed(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if !changed {
		if _, err := Fetch(ctx, tx, id); err != nil {
			return false, err
		}
	}
	return changed, nil
}

// Cancel lets the owner drop a booking that is still pending and unpaid.
func Cancel(ctx context.Context, db *sqlx.DB, userID, id string) (Booking, error) {
	var b Booking
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		var err error
		if b, err = Fetch(ctx, tx, id); err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrForbidden
		}
		if b.Status != StatusPending || b.PaymentStatus == PaymentPaid {
			return ErrNotCancellable
		}

		ok, err := UpdateStatus(ctx, tx, id, StatusPending, StatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotCancellable
		}
		b.Status = StatusCancelled
		return nil
	})
	if err != nil {
		return Booking{}, err
	}

	return b, nil
}

// SetStatus applies an administrative status change. Confirming goes
// through Confirm, cancelling a confirmed booking gives back the seats it
// actually holds.
// Cancelled and completed bookings are final.
func SetStatus(ctx context.Context, db *sqlx.DB, log logrus.FieldLogger, id, status string) (Booking, bool, error) {
	var (
		b         Booking
		confirmed bool
	)
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		var err error
		if b, err = Fetch(ctx, tx, id); err != nil {
			return err
		}
		if b.Status == status {
			return nil
		}

		switch {
		case b.Status == StatusPending && status == StatusConfirmed:
			if confirmed, err = Confirm(ctx, tx, log, id); err != nil {
				return err
			}
			if !confirmed {
				// Paid but still pending, only the status is behind.
				if _, err := UpdateStatus(ctx, tx, id, StatusPending, StatusConfirmed); err != nil {
					return err
				}
			}

		case b.Status == StatusPending && status == StatusCancelled:
			if _, err := UpdateStatus(ctx, tx, id, StatusPending, StatusCancelled); err != nil {
				return err
			}

		case b.Status == StatusConfirmed && status == StatusCancelled:
			ok, err := UpdateStatus(ctx, tx, id, StatusConfirmed, StatusCancelled)
			if err != nil {
				return err
			}
			if ok {
				held, err := UnmarkReserved(ctx, tx, id)
				if err != nil {
					return err
				}
				for _, sid := range held {
					if _, err := schedule.ReleaseSeat(ctx, tx, sid); err != nil {
						return err
					}
				}
			}

		case b.Status == StatusConfirmed && status == StatusCompleted:
			if _, err := UpdateStatus(ctx, tx, id, StatusConfirmed, StatusCompleted); err != nil {
				return err
			}

		default:
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, b.Status, status)
		}

		b, err = Fetch(ctx, tx, id)
		return err
	})
	if err != nil {
		return Booking{}, false, err
	}

	return b, confirmed, nil
}

// IsValidationError reports whether err rejects the request itself rather
// than signalling a failure of the service.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrNoSchedules, ErrScheduleMismatch, ErrScheduleUnavailable, ErrScheduleFull,
		class.ErrNotPublished,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

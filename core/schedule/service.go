package schedule

import (
	"context"
	"time"

	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func Add(ctx context.Context, db *sqlx.DB, clm claims.Claims, classID string, nw ScheduleNew) (Schedule, error) {
	if !nw.EndAt.After(nw.StartAt) {
		return Schedule{}, ErrInvalidWindow
	}

	var s Schedule
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		if _, err := class.Authorize(ctx, tx, clm, classID); err != nil {
			return err
		}

		now := time.Now().UTC()
		s = Schedule{
			ID:            validate.GenerateID(),
			ClassID:       classID,
			SessionNumber: nw.SessionNumber,
			Title:         nw.Title,
			StartAt:       nw.StartAt.UTC(),
			EndAt:         nw.EndAt.UTC(),
			Capacity:      nw.Capacity,
			Location:      nw.Location,
			MeetingURL:    nw.MeetingURL,
			Status:        StatusUpcoming,
			CreatedAt:     now,
			UpdatedAt:     now,
			Version:       1,
		}
		return Create(ctx, tx, s)
	})
	if err != nil {
		return Schedule{}, err
	}

	return s, nil
}

func Edit(ctx context.Context, db *sqlx.DB, clm claims.Claims, id string, up ScheduleUp) (Schedule, error) {
	var s Schedule
	err := database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		var err error
		if s, err = Fetch(ctx, tx, id); err != nil {
			return err
		}
		if _, err := class.Authorize(ctx, tx, clm, s.ClassID); err != nil {
			return err
		}

		if up.SessionNumber != nil {
			s.SessionNumber = *up.SessionNumber
		}
		if up.Title != nil {
			s.Title = *up.Title
		}
		if up.StartAt != nil {
			s.StartAt = up.StartAt.UTC()
		}
		if up.EndAt != nil {
			s.EndAt = up.EndAt.UTC()
		}
		if up.Capacity != nil {
			s.Capacity = *up.Capacity
		}
		if up.Location != nil {
			s.Location = *up.Location
		}
		if up.MeetingURL != nil {
			s.MeetingURL = *up.MeetingURL
		}
		if up.Status != nil {
			s.Status = *up.Status
		}

		if !s.EndAt.After(s.StartAt) {
			return ErrInvalidWindow
		}
		if s.Capacity < s.BookedSeats {
			return ErrBelowBooked
		}
		s.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, tx, s); err != nil {
			return err
		}
		s.Version++
		return nil
	})
	if err != nil {
		return Schedule{}, err
	}

	return s, nil
}

func Remove(ctx context.Context, db *sqlx.DB, clm claims.Claims, id string) error {
	return database.TransactionContext(ctx, db, func(tx sqlx.ExtContext) error {
		s, err := Fetch(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := class.Authorize(ctx, tx, clm, s.ClassID); err != nil {
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

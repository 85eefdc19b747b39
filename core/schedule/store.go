package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `schedule_id, class_id, session_number, title, start_at, end_at, capacity, booked_seats,
	location, meeting_url, status, created_at, updated_at, version`

func Create(ctx context.Context, db sqlx.ExtContext, s Schedule) error {
	const q = `
	INSERT INTO schedules
		(schedule_id, class_id, session_number, title, start_at, end_at, capacity, booked_seats,
		location, meeting_url, status, created_at, updated_at, version)
	VALUES
		(:schedule_id, :class_id, :session_number, :title, :start_at, :end_at, :capacity, :booked_seats,
		:location, :meeting_url, :status, :created_at, :updated_at, :version)`

	if _, err := database.NamedExecContext(ctx, db, q, s); err != nil {
		if errors.Is(err, database.ErrDBDuplicatedEntry) {
			return ErrSessionTaken
		}
		return fmt.Errorf("inserting schedule: %w", err)
	}
	return nil
}

// Update writes the editable fields. The capacity guard is evaluated against
// the stored booked_seats so a concurrent confirmation cannot slip under it.
func Update(ctx context.Context, db sqlx.ExtContext, s Schedule) error {
	const q = `
	UPDATE schedules SET
		session_number = :session_number,
		title = :title,
		start_at = :start_at,
		end_at = :end_at,
		capacity = :capacity,
		location = :location,
		meeting_url = :meeting_url,
		status = :status,
		updated_at = :updated_at,
		version = version + 1
	WHERE schedule_id = :schedule_id AND booked_seats <= :capacity`

	n, err := database.NamedExecContext(ctx, db, q, s)
	if err != nil {
		if errors.Is(err, database.ErrDBDuplicatedEntry) {
			return ErrSessionTaken
		}
		return fmt.Errorf("updating schedule[%s]: %w", s.ID, err)
	}
	if n == 0 {
		if _, err := Fetch(ctx, db, s.ID); err != nil {
			return err
		}
		return ErrBelowBooked
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM schedules WHERE schedule_id = :schedule_id`

	n, err := database.NamedExecContext(ctx, db, q, map[string]any{"schedule_id": id})
	if err != nil {
		return fmt.Errorf("deleting schedule[%s]: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Schedule, error) {
	const q = `SELECT ` + columns + ` FROM schedules WHERE schedule_id = :schedule_id`

	var s Schedule
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"schedule_id": id}, &s); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Schedule{}, ErrNotFound
		}
		return Schedule{}, fmt.Errorf("selecting schedule[%s]: %w", id, err)
	}
	return s, nil
}

func ListByClass(ctx context.Context, db sqlx.ExtContext, classID string) ([]Schedule, error) {
	const q = `SELECT ` + columns + ` FROM schedules WHERE class_id = :class_id ORDER BY session_number`

	var ss []Schedule
	if err := database.NamedQuerySlice(ctx, db, q, map[string]any{"class_id": classID}, &ss); err != nil {
		return nil, fmt.Errorf("selecting schedules of class[%s]: %w", classID, err)
	}
	return ss, nil
}

func ListByBooking(ctx context.Context, db sqlx.ExtContext, bookingID string) ([]Schedule, error) {
	const q = `
	SELECT s.schedule_id, s.class_id, s.session_number, s.title, s.start_at, s.end_at, s.capacity,
		s.booked_seats, s.location, s.meeting_url, s.status, s.created_at, s.updated_at, s.version
	FROM schedules s
	JOIN booking_schedules bs ON bs.schedule_id = s.schedule_id
	WHERE bs.booking_id = :booking_id
	ORDER BY s.session_number`

	var ss []Schedule
	if err := database.NamedQuerySlice(ctx, db, q, map[string]any{"booking_id": bookingID}, &ss); err != nil {
		return nil, fmt.Errorf("selecting schedules of booking[%s]: %w", bookingID, err)
	}
	return ss, nil
}

// Upcoming is a session with the title of its class, for dashboards.
type Upcoming struct {
	Schedule
	ClassTitle string `json:"classTitle" db:"class_title"`
}

// ListUpcoming returns sessions starting after from. expertID and userID
// narrow the result to the classes of an expert or the bookings of a user.
func ListUpcoming(ctx context.Context, db sqlx.ExtContext, from time.Time, expertID, userID string, limit int) ([]Upcoming, error) {
	const q = `
	SELECT s.schedule_id, s.class_id, s.session_number, s.title, s.start_at, s.end_at, s.capacity,
		s.booked_seats, s.location, s.meeting_url, s.status, s.created_at, s.updated_at, s.version,
		c.title AS class_title
	FROM schedules s
	JOIN classes c ON c.class_id = s.class_id
	WHERE s.start_at >= :from
		AND s.status = 'upcoming'
		AND (:expert_id = '' OR c.expert_id = :expert_id)
		AND (:user_id = '' OR s.schedule_id IN (
			SELECT bs.schedule_id FROM booking_schedules bs
			JOIN bookings b ON b.booking_id = bs.booking_id
			WHERE b.user_id = :user_id AND b.status = 'confirmed'))
	ORDER BY s.start_at
	LIMIT :limit`

	data := map[string]any{
		"from":      from,
		"expert_id": expertID,
		"user_id":   userID,
		"limit":     limit,
	}

	var ss []Upcoming
	if err := database.NamedQuerySlice(ctx, db, q, data, &ss); err != nil {
		return nil, fmt.Errorf("selecting upcoming schedules: %w", err)
	}
	return ss, nil
}

// ReserveSeat takes one seat in a single conditional update. It reports
// false, without error, when the session is already full.
func ReserveSeat(ctx context.Context, db sqlx.ExtContext, id string) (bool, error) {
	const q = `
	UPDATE schedules SET
		booked_seats = booked_seats + 1,
		version = version + 1
	WHERE schedule_id = :schedule_id AND booked_seats < capacity`

	n, err := database.NamedExecContext(ctx, db, q, map[string]any{"schedule_id": id})
	if err != nil {
		return false, fmt.Errorf("reserving seat on schedule[%s]: %w", id, err)
	}
	return n == 1, nil
}

// ReleaseSeat gives one seat back. It never drops below zero.
func ReleaseSeat(ctx context.Context, db sqlx.ExtContext, id string) (bool, error) {
	const q = `
	UPDATE schedules SET
		booked_seats = booked_seats - 1,
		version = version + 1
	WHERE schedule_id = :schedule_id AND booked_seats > 0`

	n, err := database.NamedExecContext(ctx, db, q, map[string]any{"schedule_id": id})
	if err != nil {
		return false, fmt.Errorf("releasing seat on schedule[%s]: %w", id, err)
	}
	return n == 1, nil
}

func CountBookings(ctx context.Context, db sqlx.ExtContext, id string) (int, error) {
	const q = `SELECT COUNT(*) FROM booking_schedules WHERE schedule_id = :schedule_id`

	var n int
	if err := database.NamedQueryScalar(ctx, db, q, map[string]any{"schedule_id": id}, &n); err != nil {
		return 0, fmt.Errorf("counting bookings of schedule[%s]: %w", id, err)
	}
	return n, nil
}

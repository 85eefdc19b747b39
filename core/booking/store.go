package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `b.booking_id, b.user_id, b.class_id, b.status, b.payment_status, b.payment_id, b.total_amount,
	b.currency, b.notes, b.created_at, b.updated_at`

// Create inserts the booking together with its schedule links.
func Create(ctx context.Context, db sqlx.ExtContext, b Booking) error {
	const q = `
	INSERT INTO bookings
		(booking_id, user_id, class_id, status, payment_status, payment_id, total_amount, currency, notes, created_at, updated_at)
	VALUES
		(:booking_id, :user_id, :class_id, :status, :payment_status, :payment_id, :total_amount, :currency, :notes, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, db, q, b); err != nil {
		return fmt.Errorf("inserting booking: %w", err)
	}

	const ql = `INSERT INTO booking_schedules (booking_id, schedule_id) VALUES (:booking_id, :schedule_id)`
	for _, sid := range b.ScheduleIDs {
		data := map[string]any{"booking_id": b.ID, "schedule_id": sid}
		if _, err := database.NamedExecContext(ctx, db, ql, data); err != nil {
			return fmt.Errorf("linking schedule[%s] to booking: %w", sid, err)
		}
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Booking, error) {
	const q = `SELECT ` + columns + ` FROM bookings b WHERE b.booking_id = :booking_id`

	var b Booking
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"booking_id": id}, &b); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, fmt.Errorf("selecting booking[%s]: %w", id, err)
	}

	links, err := scheduleIDs(ctx, db, []string{id})
	if err != nil {
		return Booking{}, err
	}
	b.ScheduleIDs = links[id]
	return b, nil
}

func List(ctx context.Context, db sqlx.ExtContext, f Filter) ([]Booking, error) {
	const q = `
	SELECT ` + columns + ` FROM bookings b
	JOIN classes c ON c.class_id = b.class_id
	WHERE (:user_id = '' OR b.user_id = :user_id)
		AND (:class_id = '' OR b.class_id = :class_id)
		AND (:expert_id = '' OR c.expert_id = :expert_id)
		AND (:status = '' OR b.status = :status)
		AND (:payment_status = '' OR b.payment_status = :payment_status)
	ORDER BY b.created_at DESC
	LIMIT :limit OFFSET :offset`

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var bs []Booking
	if err := database.NamedQuerySlice(ctx, db, q, f, &bs); err != nil {
		return nil, fmt.Errorf("selecting bookings: %w", err)
	}
	if len(bs) == 0 {
		return bs, nil
	}

	ids := make([]string, len(bs))
	for i, b := range bs {
		ids[i] = b.ID
	}
	links, err := scheduleIDs(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range bs {
		bs[i].ScheduleIDs = links[bs[i].ID]
	}
	return bs, nil
}

func scheduleIDs(ctx context.Context, db sqlx.ExtContext, bookingIDs []string) (map[string][]string, error) {
	q, args, err := sqlx.In(`
	SELECT booking_id, schedule_id FROM booking_schedules
	WHERE booking_id IN (?)
	ORDER BY schedule_id`, bookingIDs)
	if err != nil {
		return nil, fmt.Errorf("building schedule link query: %w", err)
	}

	var rows []struct {
		BookingID  string `db:"booking_id"`
		ScheduleID string `db:"schedule_id"`
	}
	if err := sqlx.SelectContext(ctx, db, &rows, db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("selecting schedule links: %w", err)
	}

	links := make(map[string][]string, len(bookingIDs))
	for _, id := range bookingIDs {
		links[id] = []string{}
	}
	for _, r := range rows {
		links[r.BookingID] = append(links[r.BookingID], r.ScheduleID)
	}
	return links, nil
}

// MarkReserved records that the booking holds a seat on the schedule.
func MarkReserved(ctx context.Context, db sqlx.ExtContext, bookingID, scheduleID string) error {
	const q = `
	UPDATE booking_schedules SET reserved = :reserved
	WHERE booking_id = :booking_id AND schedule_id = :schedule_id`

	data := map[string]any{"booking_id": bookingID, "schedule_id": scheduleID, "reserved": true}
	if _, err := database.NamedExecContext(ctx, db, q, data); err != nil {
		return fmt.Errorf("marking seat of booking[%s] on schedule[%s]: %w", bookingID, scheduleID, err)
	}
	return nil
}

// UnmarkReserved clears the seats held by the booking and returns the
// schedules they were held on.
func UnmarkReserved(ctx context.Context, db sqlx.ExtContext, bookingID string) ([]string, error) {
	const q = `
	SELECT schedule_id FROM booking_schedules
	WHERE booking_id = :booking_id AND reserved = :reserved
	ORDER BY schedule_id`

	var rows []struct {
		ScheduleID string `db:"schedule_id"`
	}
	data := map[string]any{"booking_id": bookingID, "reserved": true}
	if err := database.NamedQuerySlice(ctx, db, q, data, &rows); err != nil {
		return nil, fmt.Errorf("selecting seats of booking[%s]: %w", bookingID, err)
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ScheduleID
	}

	const qu = `
	UPDATE booking_schedules SET reserved = :unreserved
	WHERE booking_id = :booking_id AND reserved = :reserved`

	data["unreserved"] = false
	if _, err := database.NamedExecContext(ctx, db, qu, data); err != nil {
		return nil, fmt.Errorf("clearing seats of booking[%s]: %w", bookingID, err)
	}
	return ids, nil
}

// MarkPaid flips an unpaid booking to paid and confirmed. It reports false
// when the booking was already paid, which makes confirmation idempotent,
// or when it was cancelled or completed, which are final.
func MarkPaid(ctx context.Context, db sqlx.ExtContext, id string) (bool, error) {
	const q = `
	UPDATE bookings SET
		payment_status = 'paid',
		status = 'confirmed',
		updated_at = :updated_at
	WHERE booking_id = :booking_id AND payment_status <> 'paid'
		AND status IN ('pending', 'confirmed')`

	data := map[string]any{"booking_id": id, "updated_at": time.Now().UTC()}
	n, err := database.NamedExecContext(ctx, db, q, data)
	if err != nil {
		return false, fmt.Errorf("marking booking[%s] paid: %w", id, err)
	}
	return n == 1, nil
}

// MarkPaymentFailed records a failed payment unless the booking is already paid.
func MarkPaymentFailed(ctx context.Context, db sqlx.ExtContext, id string) (bool, error) {
	const q = `
	UPDATE bookings SET
		payment_status = 'failed',
		updated_at = :updated_at
	WHERE booking_id = :booking_id AND payment_status <> 'paid'`

	data := map[string]any{"booking_id": id, "updated_at": time.Now().UTC()}
	n, err := database.NamedExecContext(ctx, db, q, data)
	if err != nil {
		return false, fmt.Errorf("marking booking[%s] payment failed: %w", id, err)
	}
	return n == 1, nil
}

// UpdateStatus moves the booking from one status to another. It reports
// false when the booking is no longer in status from.
func UpdateStatus(ctx context.Context, db sqlx.ExtContext, id, from, to string) (bool, error) {
	const q = `
	UPDATE bookings SET
		status = :to,
		updated_at = :updated_at
	WHERE booking_id = :booking_id AND status = :from`

	data := map[string]any{"booking_id": id, "from": from, "to": to, "updated_at": time.Now().UTC()}
	n, err := database.NamedExecContext(ctx, db, q, data)
	if err != nil {
		return false, fmt.Errorf("updating status of booking[%s]: %w", id, err)
	}
	return n == 1, nil
}

func SetPayment(ctx context.Context, db sqlx.ExtContext, id, paymentID string) error {
	const q = `
	UPDATE bookings SET
		payment_id = :payment_id,
		updated_at = :updated_at
	WHERE booking_id = :booking_id`

	data := map[string]any{"booking_id": id, "payment_id": paymentID, "updated_at": time.Now().UTC()}
	n, err := database.NamedExecContext(ctx, db, q, data)
	if err != nil {
		return fmt.Errorf("linking payment to booking[%s]: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus groups bookings by status, narrowed to a user or to the
// classes of an expert when those are set.
func CountByStatus(ctx context.Context, db sqlx.ExtContext, userID, expertID string) (map[string]int, error) {
	const q = `
	SELECT b.status, COUNT(*) AS total FROM bookings b
	JOIN classes c ON c.class_id = b.class_id
	WHERE (:user_id = '' OR b.user_id = :user_id)
		AND (:expert_id = '' OR c.expert_id = :expert_id)
	GROUP BY b.status`

	var rows []struct {
		Status string `db:"status"`
		Total  int    `db:"total"`
	}
	data := map[string]any{"user_id": userID, "expert_id": expertID}
	if err := database.NamedQuerySlice(ctx, db, q, data, &rows); err != nil {
		return nil, fmt.Errorf("counting bookings: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

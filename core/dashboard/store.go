package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

// scope narrows payment aggregates to the classes of an expert or the
// bookings of a user. Empty fields match everything.
type scope struct {
	ExpertID string    `db:"expert_id"`
	UserID   string    `db:"user_id"`
	From     time.Time `db:"from"`
}

const paidFrom = `
	FROM payments p
	JOIN bookings b ON b.booking_id = p.booking_id
	JOIN classes c ON c.class_id = b.class_id
	WHERE p.status = 'success'
		AND p.paid_at >= :from
		AND (:expert_id = '' OR c.expert_id = :expert_id)
		AND (:user_id = '' OR b.user_id = :user_id)`

type total struct {
	Amount int64 `db:"amount"`
	Count  int   `db:"n"`
}

func sumPaid(ctx context.Context, db sqlx.ExtContext, s scope) (total, error) {
	const q = `SELECT COALESCE(SUM(p.amount), 0) AS amount, COUNT(*) AS n` + paidFrom

	var t total
	if err := database.NamedQueryStruct(ctx, db, q, s, &t); err != nil {
		return total{}, fmt.Errorf("summing payments: %w", err)
	}
	return t, nil
}

type paid struct {
	Amount int64     `db:"amount"`
	PaidAt time.Time `db:"paid_at"`
}

// listPaid returns the successful payments of the scope, oldest first.
func listPaid(ctx context.Context, db sqlx.ExtContext, s scope) ([]paid, error) {
	const q = `SELECT p.amount, p.paid_at` + paidFrom + `
	ORDER BY p.paid_at`

	var ps []paid
	if err := database.NamedQuerySlice(ctx, db, q, s, &ps); err != nil {
		return nil, fmt.Errorf("selecting payments: %w", err)
	}
	return ps, nil
}

func recentBookings(ctx context.Context, db sqlx.ExtContext, limit int) ([]RecentBooking, error) {
	const q = `
	SELECT b.booking_id, b.class_id, c.title AS class_title, u.email AS user_email,
		b.status, b.payment_status, b.total_amount, b.created_at
	FROM bookings b
	JOIN classes c ON c.class_id = b.class_id
	JOIN users u ON u.user_id = b.user_id
	ORDER BY b.created_at DESC
	LIMIT :limit`

	var bs []RecentBooking
	if err := database.NamedQuerySlice(ctx, db, q, map[string]any{"limit": limit}, &bs); err != nil {
		return nil, fmt.Errorf("selecting recent bookings: %w", err)
	}
	return bs, nil
}

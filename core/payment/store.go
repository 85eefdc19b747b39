package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `payment_id, booking_id, user_id, amount, currency, gateway, payment_method, reference, payment_url,
	status, metadata, paid_at, created_at, updated_at`

func Create(ctx context.Context, db sqlx.ExtContext, p Payment) error {
	const q = `
	INSERT INTO payments
		(payment_id, booking_id, user_id, amount, currency, gateway, payment_method, reference, payment_url,
		status, metadata, paid_at, created_at, updated_at)
	VALUES
		(:payment_id, :booking_id, :user_id, :amount, :currency, :gateway, :payment_method, :reference, :payment_url,
		:status, :metadata, :paid_at, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

// UpdateGateway stores what the gateway returned when the transaction was opened.
func UpdateGateway(ctx context.Context, db sqlx.ExtContext, p Payment) error {
	const q = `
	UPDATE payments SET
		payment_method = :payment_method,
		reference = :reference,
		payment_url = :payment_url,
		metadata = :metadata,
		updated_at = :updated_at
	WHERE payment_id = :payment_id`

	n, err := database.NamedExecContext(ctx, db, q, p)
	if err != nil {
		return fmt.Errorf("updating gateway data of payment[%s]: %w", p.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus writes the new status unless the payment already
// succeeded. It reports whether a row changed.
func UpdateStatus(ctx context.Context, db sqlx.ExtContext, p Payment) (bool, error) {
	const q = `
	UPDATE payments SET
		status = :status,
		metadata = :metadata,
		paid_at = :paid_at,
		updated_at = :updated_at
	WHERE payment_id = :payment_id AND status <> 'success'`

	n, err := database.NamedExecContext(ctx, db, q, p)
	if err != nil {
		return false, fmt.Errorf("updating status of payment[%s]: %w", p.ID, err)
	}
	return n == 1, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Payment, error) {
	const q = `SELECT ` + columns + ` FROM payments WHERE payment_id = :payment_id`

	var p Payment
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"payment_id": id}, &p); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, fmt.Errorf("selecting payment[%s]: %w", id, err)
	}
	return p, nil
}

func FetchByReference(ctx context.Context, db sqlx.ExtContext, gateway, reference string) (Payment, error) {
	const q = `
	SELECT ` + columns + ` FROM payments
	WHERE gateway = :gateway AND reference = :reference`

	var p Payment
	data := map[string]any{"gateway": gateway, "reference": reference}
	if err := database.NamedQueryStruct(ctx, db, q, data, &p); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, fmt.Errorf("selecting payment by reference[%s]: %w", reference, err)
	}
	return p, nil
}

// FetchPending returns the latest pending payment of the booking on gateway.
func FetchPending(ctx context.Context, db sqlx.ExtContext, bookingID, gateway string) (Payment, error) {
	const q = `
	SELECT ` + columns + ` FROM payments
	WHERE booking_id = :booking_id AND gateway = :gateway AND status = 'pending'
	ORDER BY created_at DESC
	LIMIT 1`

	var p Payment
	data := map[string]any{"booking_id": bookingID, "gateway": gateway}
	if err := database.NamedQueryStruct(ctx, db, q, data, &p); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, fmt.Errorf("selecting pending payment of booking[%s]: %w", bookingID, err)
	}
	return p, nil
}

func List(ctx context.Context, db sqlx.ExtContext, f Filter) ([]Payment, error) {
	const q = `
	SELECT ` + columns + ` FROM payments
	WHERE (:booking_id = '' OR booking_id = :booking_id)
		AND (:user_id = '' OR user_id = :user_id)
		AND (:status = '' OR status = :status)
		AND (:gateway = '' OR gateway = :gateway)
	ORDER BY created_at DESC
	LIMIT :limit OFFSET :offset`

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var ps []Payment
	if err := database.NamedQuerySlice(ctx, db, q, f, &ps); err != nil {
		return nil, fmt.Errorf("selecting payments: %w", err)
	}
	return ps, nil
}

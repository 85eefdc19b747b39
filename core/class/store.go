package class

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `class_id, expert_id, category_id, title, description, price, currency, type, location,
	thumbnail_storage_id, status, created_at, updated_at, version`

func Create(ctx context.Context, db sqlx.ExtContext, c Class) error {
	const q = `
	INSERT INTO classes
		(class_id, expert_id, category_id, title, description, price, currency, type, location,
		thumbnail_storage_id, status, created_at, updated_at, version)
	VALUES
		(:class_id, :expert_id, :category_id, :title, :description, :price, :currency, :type, :location,
		:thumbnail_storage_id, :status, :created_at, :updated_at, :version)`

	if _, err := database.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting class: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, c Class) error {
	const q = `
	UPDATE classes SET
		category_id = :category_id,
		title = :title,
		description = :description,
		price = :price,
		currency = :currency,
		type = :type,
		location = :location,
		thumbnail_storage_id = :thumbnail_storage_id,
		status = :status,
		updated_at = :updated_at,
		version = version + 1
	WHERE class_id = :class_id`

	n, err := database.NamedExecContext(ctx, db, q, c)
	if err != nil {
		return fmt.Errorf("updating class[%s]: %w", c.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM classes WHERE class_id = :class_id`

	n, err := database.NamedExecContext(ctx, db, q, map[string]any{"class_id": id})
	if err != nil {
		return fmt.Errorf("deleting class[%s]: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Class, error) {
	const q = `SELECT ` + columns + ` FROM classes WHERE class_id = :class_id`

	var c Class
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"class_id": id}, &c); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Class{}, ErrNotFound
		}
		return Class{}, fmt.Errorf("selecting class[%s]: %w", id, err)
	}
	return c, nil
}

func List(ctx context.Context, db sqlx.ExtContext, f Filter) ([]Class, error) {
	const q = `
	SELECT ` + columns + ` FROM classes
	WHERE (:status = '' OR status = :status)
		AND (:expert_id = '' OR expert_id = :expert_id)
		AND (:category_id = '' OR category_id = :category_id)
		AND (:type = '' OR type = :type)
		AND (:search = '' OR LOWER(title) LIKE :search OR LOWER(description) LIKE :search)
	ORDER BY created_at DESC
	LIMIT :limit OFFSET :offset`

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Search != "" {
		f.Search = "%" + strings.ToLower(f.Search) + "%"
	}

	var classes []Class
	if err := database.NamedQuerySlice(ctx, db, q, f, &classes); err != nil {
		return nil, fmt.Errorf("selecting classes: %w", err)
	}
	return classes, nil
}

// CountBookings counts every booking made against the class, whatever its status.
func CountBookings(ctx context.Context, db sqlx.ExtContext, id string) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings WHERE class_id = :class_id`

	var n int
	if err := database.NamedQueryScalar(ctx, db, q, map[string]any{"class_id": id}, &n); err != nil {
		return 0, fmt.Errorf("counting bookings of class[%s]: %w", id, err)
	}
	return n, nil
}

// CountByStatus groups the classes of expertID, or every class when expertID is empty.
func CountByStatus(ctx context.Context, db sqlx.ExtContext, expertID string) (map[string]int, error) {
	const q = `
	SELECT status, COUNT(*) AS total FROM classes
	WHERE (:expert_id = '' OR expert_id = :expert_id)
	GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		Total  int    `db:"total"`
	}
	if err := database.NamedQuerySlice(ctx, db, q, map[string]any{"expert_id": expertID}, &rows); err != nil {
		return nil, fmt.Errorf("counting classes: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

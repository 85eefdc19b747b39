package expert

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `expert_id, user_id, name, slug, bio, specializations, photo_storage_id, status, created_at, updated_at`

func Create(ctx context.Context, db sqlx.ExtContext, e Expert) error {
	const q = `
	INSERT INTO experts
		(expert_id, user_id, name, slug, bio, specializations, photo_storage_id, status, created_at, updated_at)
	VALUES
		(:expert_id, :user_id, :name, :slug, :bio, :specializations, :photo_storage_id, :status, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, db, q, e); err != nil {
		return fmt.Errorf("inserting expert: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, e Expert) error {
	const q = `
	UPDATE experts SET
		name = :name,
		slug = :slug,
		bio = :bio,
		specializations = :specializations,
		photo_storage_id = :photo_storage_id,
		status = :status,
		updated_at = :updated_at
	WHERE expert_id = :expert_id`

	n, err := database.NamedExecContext(ctx, db, q, e)
	if err != nil {
		return fmt.Errorf("updating expert[%s]: %w", e.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM experts WHERE expert_id = :expert_id`

	n, err := database.NamedExecContext(ctx, db, q, map[string]any{"expert_id": id})
	if err != nil {
		return fmt.Errorf("deleting expert[%s]: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Expert, error) {
	return fetchBy(ctx, db, "expert_id", id)
}

func FetchBySlug(ctx context.Context, db sqlx.ExtContext, slug string) (Expert, error) {
	return fetchBy(ctx, db, "slug", slug)
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) (Expert, error) {
	return fetchBy(ctx, db, "user_id", userID)
}

func fetchBy(ctx context.Context, db sqlx.ExtContext, column string, value string) (Expert, error) {
	q := `SELECT ` + columns + ` FROM experts WHERE ` + column + ` = :value`

	var e Expert
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"value": value}, &e); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Expert{}, ErrNotFound
		}
		return Expert{}, fmt.Errorf("selecting expert by %s: %w", column, err)
	}
	return e, nil
}

// List returns experts by name, optionally only those in status.
func List(ctx context.Context, db sqlx.ExtContext, status string) ([]Expert, error) {
	const q = `SELECT ` + columns + ` FROM experts
	WHERE (:status = '' OR status = :status)
	ORDER BY name`

	var experts []Expert
	if err := database.NamedQuerySlice(ctx, db, q, map[string]any{"status": status}, &experts); err != nil {
		return nil, fmt.Errorf("selecting experts: %w", err)
	}
	return experts, nil
}

// SlugTaken reports whether an expert other than exceptID uses slug.
func SlugTaken(ctx context.Context, db sqlx.ExtContext, slug string, exceptID string) (bool, error) {
	const q = `SELECT COUNT(*) FROM experts WHERE slug = :slug AND expert_id <> :expert_id`

	var n int
	data := map[string]any{"slug": slug, "expert_id": exceptID}
	if err := database.NamedQueryScalar(ctx, db, q, data, &n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func CountClasses(ctx context.Context, db sqlx.ExtContext, id string) (int, error) {
	const q = `SELECT COUNT(*) FROM classes WHERE expert_id = :expert_id`

	var n int
	if err := database.NamedQueryScalar(ctx, db, q, map[string]any{"expert_id": id}, &n); err != nil {
		return 0, fmt.Errorf("counting classes of expert[%s]: %w", id, err)
	}
	return n, nil
}

func CountByStatus(ctx context.Context, db sqlx.ExtContext) (map[string]int, error) {
	const q = `SELECT status, COUNT(*) AS n FROM experts GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"n"`
	}
	if err := database.NamedQuerySlice(ctx, db, q, struct{}{}, &rows); err != nil {
		return nil, fmt.Errorf("counting experts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `category_id, name, slug, description, created_at, updated_at`

func Create(ctx context.Context, db sqlx.ExtContext, c Category) error {
	const q = `
	INSERT INTO categories (category_id, name, slug, description, created_at, updated_at)
	VALUES (:category_id, :name, :slug, :description, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, c Category) error {
	const q = `
	UPDATE categories SET
		name = :name,
		slug = :slug,
		description = :description,
		updated_at = :updated_at
	WHERE category_id = :category_id`

	n, err := database.NamedExecContext(ctx, db, q, c)
	if err != nil {
		return fmt.Errorf("updating category[%s]: %w", c.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM categories WHERE category_id = :category_id`

	n, err := database.NamedExecContext(ctx, db, q, map[string]any{"category_id": id})
	if err != nil {
		return fmt.Errorf("deleting category[%s]: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Category, error) {
	const q = `SELECT ` + columns + ` FROM categories WHERE category_id = :category_id`

	var c Category
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"category_id": id}, &c); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("selecting category[%s]: %w", id, err)
	}
	return c, nil
}

func List(ctx context.Context, db sqlx.ExtContext) ([]Category, error) {
	const q = `SELECT ` + columns + ` FROM categories ORDER BY name`

	var cats []Category
	if err := database.NamedQuerySlice(ctx, db, q, struct{}{}, &cats); err != nil {
		return nil, fmt.Errorf("selecting categories: %w", err)
	}
	return cats, nil
}

func slugTaken(ctx context.Context, db sqlx.ExtContext, slug string, exceptID string) (bool, error) {
	const q = `SELECT COUNT(*) FROM categories WHERE slug = :slug AND category_id <> :category_id`

	var n int
	data := map[string]any{"slug": slug, "category_id": exceptID}
	if err := database.NamedQueryScalar(ctx, db, q, data, &n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func countClasses(ctx context.Context, db sqlx.ExtContext, id string) (int, error) {
	const q = `SELECT COUNT(*) FROM classes WHERE category_id = :category_id`

	var n int
	if err := database.NamedQueryScalar(ctx, db, q, map[string]any{"category_id": id}, &n); err != nil {
		return 0, err
	}
	return n, nil
}

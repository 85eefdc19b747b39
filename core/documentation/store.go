package docs

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `documentation_id, class_id, title, content, image_storage_id, position, created_at, updated_at`

func Create(ctx context.Context, db sqlx.ExtContext, d Documentation) error {
	const q = `
	INSERT INTO documentation
		(documentation_id, class_id, title, content, image_storage_id, position, created_at, updated_at)
	VALUES
		(:documentation_id, :class_id, :title, :content, :image_storage_id, :position, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, db, q, d); err != nil {
		return fmt.Errorf("inserting documentation: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, d Documentation) error {
	const q = `
	UPDATE documentation SET
		title = :title,
		content = :content,
		image_storage_id = :image_storage_id,
		position = :position,
		updated_at = :updated_at
	WHERE documentation_id = :documentation_id`

	n, err := database.NamedExecContext(ctx, db, q, d)
	if err != nil {
		return fmt.Errorf("updating documentation[%s]: %w", d.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM documentation WHERE documentation_id = :documentation_id`

	n, err := database.NamedExecContext(ctx, db, q, map[string]any{"documentation_id": id})
	if err != nil {
		return fmt.Errorf("deleting documentation[%s]: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Documentation, error) {
	const q = `SELECT ` + columns + ` FROM documentation WHERE documentation_id = :documentation_id`

	var d Documentation
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"documentation_id": id}, &d); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Documentation{}, ErrNotFound
		}
		return Documentation{}, fmt.Errorf("selecting documentation[%s]: %w", id, err)
	}
	return d, nil
}

func ListByClass(ctx context.Context, db sqlx.ExtContext, classID string) ([]Documentation, error) {
	const q = `
	SELECT ` + columns + ` FROM documentation
	WHERE class_id = :class_id
	ORDER BY position, created_at`

	var ds []Documentation
	if err := database.NamedQuerySlice(ctx, db, q, map[string]any{"class_id": classID}, &ds); err != nil {
		return nil, fmt.Errorf("selecting documentation of class[%s]: %w", classID, err)
	}
	return ds, nil
}

package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, f File) error {
	const q = `
	INSERT INTO files (storage_id, content_type, size, uploaded_by, created_at)
	VALUES (:storage_id, :content_type, :size, :uploaded_by, :created_at)`

	if _, err := database.NamedExecContext(ctx, db, q, f); err != nil {
		return fmt.Errorf("inserting file: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (File, error) {
	const q = `
	SELECT storage_id, content_type, size, uploaded_by, created_at
	FROM files WHERE storage_id = :storage_id`

	var f File
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"storage_id": id}, &f); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("selecting file[%s]: %w", id, err)
	}
	return f, nil
}

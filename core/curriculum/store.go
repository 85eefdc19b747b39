package curriculum

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

// Save inserts the outline or replaces its items.
func Save(ctx context.Context, db sqlx.ExtContext, o Outline) error {
	const q = `
	INSERT INTO curricula (class_id, kind, items, created_at, updated_at)
	VALUES (:class_id, :kind, :items, :created_at, :updated_at)
	ON CONFLICT (class_id, kind) DO UPDATE SET
		items = excluded.items,
		updated_at = excluded.updated_at`

	if _, err := database.NamedExecContext(ctx, db, q, o); err != nil {
		return fmt.Errorf("saving %s of class[%s]: %w", o.Kind, o.ClassID, err)
	}
	return nil
}

// Fetch returns the outline, or an empty one when none was written yet.
func Fetch(ctx context.Context, db sqlx.ExtContext, classID, kind string) (Outline, error) {
	const q = `
	SELECT class_id, kind, items, created_at, updated_at
	FROM curricula
	WHERE class_id = :class_id AND kind = :kind`

	var o Outline
	data := map[string]any{"class_id": classID, "kind": kind}
	if err := database.NamedQueryStruct(ctx, db, q, data, &o); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Outline{ClassID: classID, Kind: kind, Items: Items{}}, nil
		}
		return Outline{}, fmt.Errorf("selecting %s of class[%s]: %w", kind, classID, err)
	}
	return o, nil
}

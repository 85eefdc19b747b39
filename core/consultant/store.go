package consultant

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `consultant_id, name, title, bio, photo_storage_id, whatsapp, active, created_at, updated_at`

func Create(ctx context.Context, db sqlx.ExtContext, c Consultant) error {
	const q = `
	INSERT INTO consultants (consultant_id, name, title, bio, photo_storage_id, whatsapp, active, created_at, updated_at)
	VALUES (:consultant_id, :name, :title, :bio, :photo_storage_id, :whatsapp, :active, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting consultant: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, c Consultant) error {
	const q = `
	UPDATE consultants SET
		name = :name,
		title = :title,
		bio = :bio,
		photo_storage_id = :photo_storage_id,
		whatsapp = :whatsapp,
		active = :active,
		updated_at = :updated_at
	WHERE consultant_id = :consultant_id`

	n, err := database.NamedExecContext(ctx, db, q, c)
	if err != nil {
		return fmt.Errorf("updating consultant[%s]: %w", c.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM consultants WHERE consultant_id = :consultant_id`

	n, err := database.NamedExecContext(ctx, db, q, map[string]any{"consultant_id": id})
	if err != nil {
		return fmt.Errorf("deleting consultant[%s]: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Consultant, error) {
	const q = `SELECT ` + columns + ` FROM consultants WHERE consultant_id = :consultant_id`

	var c Consultant
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"consultant_id": id}, &c); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Consultant{}, ErrNotFound
		}
		return Consultant{}, fmt.Errorf("selecting consultant[%s]: %w", id, err)
	}
	return c, nil
}

// List returns consultants ordered by name, only the active ones unless all is set.
func List(ctx context.Context, db sqlx.ExtContext, all bool) ([]Consultant, error) {
	const q = `
	SELECT ` + columns + ` FROM consultants
	WHERE :all OR active
	ORDER BY name`

	var cs []Consultant
	if err := database.NamedQuerySlice(ctx, db, q, map[string]any{"all": all}, &cs); err != nil {
		return nil, fmt.Errorf("selecting consultants: %w", err)
	}
	return cs, nil
}

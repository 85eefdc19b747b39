package benefit

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `benefit_id, class_id, kind, title, description, icon, position, created_at, updated_at`

func Create(ctx context.Context, db sqlx.ExtContext, b Benefit) error {
	const q = `
	INSERT INTO benefits (benefit_id, class_id, kind, title, description, icon, position, created_at, updated_at)
	VALUES (:benefit_id, :class_id, :kind, :title, :description, :icon, :position, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, db, q, b); err != nil {
		return fmt.Errorf("inserting %s: %w", b.Kind, err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, b Benefit) error {
	const q = `
	UPDATE benefits SET
		title = :title,
		description = :description,
		icon = :icon,
		position = :position,
		updated_at = :updated_at
	WHERE benefit_id = :benefit_id`

	n, err := database.NamedExecContext(ctx, db, q, b)
	if err != nil {
		return fmt.Errorf("updating %s[%s]: %w", b.Kind, b.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM benefits WHERE benefit_id = :benefit_id`

	n, err := database.NamedExecContext(ctx, db, q, map[string]any{"benefit_id": id})
	if err != nil {
		return fmt.Errorf("deleting benefit[%s]: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Benefit, error) {
	const q = `SELECT ` + columns + ` FROM benefits WHERE benefit_id = :benefit_id`

	var b Benefit
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"benefit_id": id}, &b); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Benefit{}, ErrNotFound
		}
		return Benefit{}, fmt.Errorf("selecting benefit[%s]: %w", id, err)
	}
	return b, nil
}

func ListByClass(ctx context.Context, db sqlx.ExtContext, classID, kind string) ([]Benefit, error) {
	const q = `
	SELECT ` + columns + ` FROM benefits
	WHERE class_id = :class_id AND kind = :kind
	ORDER BY position, created_at`

	var bs []Benefit
	data := map[string]any{"class_id": classID, "kind": kind}
	if err := database.NamedQuerySlice(ctx, db, q, data, &bs); err != nil {
		return nil, fmt.Errorf("selecting %s list of class[%s]: %w", kind, classID, err)
	}
	return bs, nil
}

package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `user_id, external_id, email, name, phone, avatar_storage_id, role, expert_id, created_at, updated_at`

func Create(ctx context.Context, db sqlx.ExtContext, u User) error {
	const q = `
	INSERT INTO users
		(user_id, external_id, email, name, phone, avatar_storage_id, role, expert_id, created_at, updated_at)
	VALUES
		(:user_id, :external_id, :email, :name, :phone, :avatar_storage_id, :role, :expert_id, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, db, q, u); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, u User) error {
	const q = `
	UPDATE users SET
		email = :email,
		name = :name,
		phone = :phone,
		avatar_storage_id = :avatar_storage_id,
		role = :role,
		expert_id = :expert_id,
		updated_at = :updated_at
	WHERE user_id = :user_id`

	n, err := database.NamedExecContext(ctx, db, q, u)
	if err != nil {
		return fmt.Errorf("updating user[%s]: %w", u.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRole sets the role and, when expertID is not empty, the linked
// expert profile.
func UpdateRole(ctx context.Context, db sqlx.ExtContext, id string, role string, expertID string) error {
	const q = `
	UPDATE users SET
		role = :role,
		expert_id = CASE WHEN :expert_id = '' THEN expert_id ELSE :expert_id END,
		updated_at = :updated_at
	WHERE user_id = :user_id`

	data := map[string]any{
		"user_id":    id,
		"role":       role,
		"expert_id":  expertID,
		"updated_at": time.Now().UTC(),
	}
	n, err := database.NamedExecContext(ctx, db, q, data)
	if err != nil {
		return fmt.Errorf("updating role of user[%s]: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT ` + columns + ` FROM users WHERE user_id = :user_id`

	var u User
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"user_id": id}, &u); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user[%s]: %w", id, err)
	}
	return u, nil
}

func FetchByExternalID(ctx context.Context, db sqlx.ExtContext, externalID string) (User, error) {
	const q = `SELECT ` + columns + ` FROM users WHERE external_id = :external_id`

	var u User
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"external_id": externalID}, &u); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user by external id: %w", err)
	}
	return u, nil
}

// List returns users ordered by sign-up date, optionally only those of role.
func List(ctx context.Context, db sqlx.ExtContext, role string) ([]User, error) {
	const q = `SELECT ` + columns + ` FROM users
	WHERE (:role = '' OR role = :role)
	ORDER BY created_at DESC`

	var users []User
	if err := database.NamedQuerySlice(ctx, db, q, map[string]any{"role": role}, &users); err != nil {
		return nil, fmt.Errorf("selecting users: %w", err)
	}
	return users, nil
}

type roleCount struct {
	Role  string `db:"role"`
	Count int    `db:"n"`
}

func CountByRole(ctx context.Context, db sqlx.ExtContext) (map[string]int, error) {
	const q = `SELECT role, COUNT(*) AS n FROM users GROUP BY role`

	var rows []roleCount
	if err := database.NamedQuerySlice(ctx, db, q, struct{}{}, &rows); err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Role] = r.Count
	}
	return counts, nil
}

// ClearExpert unlinks the expert profile of a user and makes it a student.
func ClearExpert(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `
	UPDATE users SET
		role = CASE WHEN role = 'admin' THEN role ELSE 'student' END,
		expert_id = '',
		updated_at = :updated_at
	WHERE user_id = :user_id`

	data := map[string]any{"user_id": id, "updated_at": time.Now().UTC()}
	if _, err := database.NamedExecContext(ctx, db, q, data); err != nil {
		return fmt.Errorf("unlinking expert of user[%s]: %w", id, err)
	}
	return nil
}

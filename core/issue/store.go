package issue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
)

const columns = `issue_id, user_id, category, subject, description, status, created_at, updated_at`

func Create(ctx context.Context, db sqlx.ExtContext, is Issue) error {
	const q = `
	INSERT INTO issues (issue_id, user_id, category, subject, description, status, created_at, updated_at)
	VALUES (:issue_id, :user_id, :category, :subject, :description, :status, :created_at, :updated_at)`

	if _, err := database.NamedExecContext(ctx, db, q, is); err != nil {
		return fmt.Errorf("inserting issue: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Issue, error) {
	const q = `SELECT ` + columns + ` FROM issues WHERE issue_id = :issue_id`

	var is Issue
	if err := database.NamedQueryStruct(ctx, db, q, map[string]any{"issue_id": id}, &is); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Issue{}, ErrNotFound
		}
		return Issue{}, fmt.Errorf("selecting issue[%s]: %w", id, err)
	}
	return is, nil
}

func List(ctx context.Context, db sqlx.ExtContext, f Filter) ([]Issue, error) {
	const q = `
	SELECT ` + columns + ` FROM issues
	WHERE (:user_id = '' OR user_id = :user_id)
		AND (:status = '' OR status = :status)
		AND (:category = '' OR category = :category)
	ORDER BY created_at DESC
	LIMIT :limit OFFSET :offset`

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var is []Issue
	if err := database.NamedQuerySlice(ctx, db, q, f, &is); err != nil {
		return nil, fmt.Errorf("selecting issues: %w", err)
	}
	return is, nil
}

// UpdateStatus moves the issue from one status to another. It reports
// false when the issue is no longer in status from.
func UpdateStatus(ctx context.Context, db sqlx.ExtContext, id, from, to string) (bool, error) {
	const q = `
	UPDATE issues SET
		status = :to,
		updated_at = :updated_at
	WHERE issue_id = :issue_id AND status = :from`

	data := map[string]any{"issue_id": id, "from": from, "to": to, "updated_at": time.Now().UTC()}
	n, err := database.NamedExecContext(ctx, db, q, data)
	if err != nil {
		return false, fmt.Errorf("updating status of issue[%s]: %w", id, err)
	}
	return n == 1, nil
}

func CreateReply(ctx context.Context, db sqlx.ExtContext, r Reply) error {
	const q = `
	INSERT INTO issue_replies (reply_id, issue_id, user_id, author_role, message, created_at)
	VALUES (:reply_id, :issue_id, :user_id, :author_role, :message, :created_at)`

	if _, err := database.NamedExecContext(ctx, db, q, r); err != nil {
		return fmt.Errorf("inserting reply: %w", err)
	}
	return nil
}

func ListReplies(ctx context.Context, db sqlx.ExtContext, issueID string) ([]Reply, error) {
	const q = `
	SELECT reply_id, issue_id, user_id, author_role, message, created_at
	FROM issue_replies
	WHERE issue_id = :issue_id
	ORDER BY created_at`

	var rs []Reply
	if err := database.NamedQuerySlice(ctx, db, q, map[string]any{"issue_id": issueID}, &rs); err != nil {
		return nil, fmt.Errorf("selecting replies of issue[%s]: %w", issueID, err)
	}
	return rs, nil
}

// HasAdminReply reports whether an admin has answered the issue.
func HasAdminReply(ctx context.Context, db sqlx.ExtContext, issueID string) (bool, error) {
	const q = `SELECT COUNT(*) FROM issue_replies WHERE issue_id = :issue_id AND author_role = 'admin'`

	var n int
	if err := database.NamedQueryScalar(ctx, db, q, map[string]any{"issue_id": issueID}, &n); err != nil {
		return false, fmt.Errorf("counting admin replies of issue[%s]: %w", issueID, err)
	}
	return n > 0, nil
}

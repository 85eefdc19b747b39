// Package coretest seeds the records most core tests start from.
package coretest

import (
	"context"
	"testing"
	"time"

	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/expert"
	"github.com/irsalhamdi/expert-class/core/schedule"
	"github.com/irsalhamdi/expert-class/core/user"
	"github.com/irsalhamdi/expert-class/random"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func User(t *testing.T, db *sqlx.DB, role string) user.User {
	t.Helper()

	now := time.Now().UTC()
	u := user.User{
		ID:         validate.GenerateID(),
		ExternalID: "user_" + random.String(12),
		Email:      random.String(8) + "@kelas.id",
		Name:       "Test " + role,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := user.Create(context.Background(), db, u); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return u
}

// Claims returns the claims a request authenticated as u would carry.
func Claims(u user.User) claims.Claims {
	return claims.Claims{UserID: u.ID, Role: u.Role, ExpertID: u.ExpertID, Email: u.Email}
}

// Expert creates an active expert together with its user and returns the
// expert and the claims of that user.
func Expert(t *testing.T, db *sqlx.DB, name string) (expert.Expert, claims.Claims) {
	t.Helper()
	ctx := context.Background()

	u := User(t, db, claims.RoleStudent)

	now := time.Now().UTC()
	e := expert.Expert{
		ID:        validate.GenerateID(),
		UserID:    u.ID,
		Name:      name,
		Slug:      "expert-" + random.String(10),
		Status:    expert.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := expert.Create(ctx, db, e); err != nil {
		t.Fatalf("creating expert: %v", err)
	}
	if err := user.UpdateRole(ctx, db, u.ID, claims.RoleExpert, e.ID); err != nil {
		t.Fatalf("promoting user: %v", err)
	}

	u.Role = claims.RoleExpert
	u.ExpertID = e.ID
	return e, Claims(u)
}

func Class(t *testing.T, db *sqlx.DB, expertID string, price int64, status string) class.Class {
	t.Helper()

	now := time.Now().UTC()
	c := class.Class{
		ID:        validate.GenerateID(),
		ExpertID:  expertID,
		Title:     "Class " + random.String(6),
		Price:     price,
		Currency:  class.DefaultCurrency,
		Type:      class.TypeOnline,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	if err := class.Create(context.Background(), db, c); err != nil {
		t.Fatalf("creating class: %v", err)
	}
	return c
}

// Schedule adds an upcoming session starting one week from now.
func Schedule(t *testing.T, db *sqlx.DB, classID string, session, capacity int) schedule.Schedule {
	t.Helper()

	now := time.Now().UTC()
	start := now.Add(7 * 24 * time.Hour).Truncate(time.Second)
	s := schedule.Schedule{
		ID:            validate.GenerateID(),
		ClassID:       classID,
		SessionNumber: session,
		StartAt:       start,
		EndAt:         start.Add(2 * time.Hour),
		Capacity:      capacity,
		Status:        schedule.StatusUpcoming,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	if err := schedule.Create(context.Background(), db, s); err != nil {
		t.Fatalf("creating schedule: %v", err)
	}
	return s
}

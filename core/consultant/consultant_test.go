package consultant_test

import (
	"context"
	"testing"
	"time"

	"github.com/irsalhamdi/expert-class/core/consultant"
	"github.com/irsalhamdi/expert-class/database/dbtest"
	"github.com/irsalhamdi/expert-class/validate"
)

func TestListHidesInactive(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, c := range []consultant.Consultant{
		{ID: validate.GenerateID(), Name: "Ayu", Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: validate.GenerateID(), Name: "Bayu", Active: false, CreatedAt: now, UpdatedAt: now},
	} {
		if err := consultant.Create(ctx, db, c); err != nil {
			t.Fatal(err)
		}
	}

	public, err := consultant.List(ctx, db, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(public) != 1 || public[0].Name != "Ayu" {
		t.Fatalf("expected only the active consultant, got %+v", public)
	}

	all, err := consultant.List(ctx, db, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 consultants, got %d", len(all))
	}
}

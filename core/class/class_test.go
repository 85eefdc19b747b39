package class_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/coretest"
	"github.com/irsalhamdi/expert-class/core/expert"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/database/dbtest"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func TestOpenAndEdit(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	e, clm := coretest.Expert(t, db, "Rina")

	c, err := class.Open(ctx, db, clm, class.ClassNew{Title: "Watercolor Basics", Price: 500000, Type: class.TypeOffline})
	if err != nil {
		t.Fatalf("opening class: %v", err)
	}
	if c.ExpertID != e.ID || c.Status != class.StatusDraft || c.Currency != "IDR" {
		t.Fatalf("unexpected class: %+v", c)
	}

	title := "Watercolor for Beginners"
	edited, err := class.Edit(ctx, db, clm, c.ID, class.ClassUp{Title: &title})
	if err != nil {
		t.Fatalf("editing class: %v", err)
	}

	got, err := class.Fetch(ctx, db, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(edited.Title, got.Title); diff != "" {
		t.Fatalf("title mismatch (-want +got):\n%s", diff)
	}
	if got.Version != 2 {
		t.Fatalf("expected version 2, got %d", got.Version)
	}
}

func TestOtherExpertCannotManage(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	owner, _ := coretest.Expert(t, db, "Owner")
	_, other := coretest.Expert(t, db, "Other")
	c := coretest.Class(t, db, owner.ID, 100000, class.StatusDraft)

	_, err := class.SetStatus(ctx, db, other, c.ID, class.StatusPublished)
	if !errors.Is(err, class.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	student := coretest.Claims(coretest.User(t, db, claims.RoleStudent))
	if _, err := class.Open(ctx, db, student, class.ClassNew{Title: "x", Type: class.TypeOnline}); !errors.Is(err, class.ErrNoExpert) {
		t.Fatalf("expected ErrNoExpert for student, got %v", err)
	}

	admin := coretest.Claims(coretest.User(t, db, claims.RoleAdmin))
	if _, err := class.SetStatus(ctx, db, admin, c.ID, class.StatusPublished); err != nil {
		t.Fatalf("admin must manage any class: %v", err)
	}
}

func TestListFilters(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	e, _ := coretest.Expert(t, db, "Lists")
	pub := coretest.Class(t, db, e.ID, 100000, class.StatusPublished)
	coretest.Class(t, db, e.ID, 100000, class.StatusDraft)

	got, err := class.List(ctx, db, class.Filter{Status: class.StatusPublished})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != pub.ID {
		t.Fatalf("expected only the published class, got %+v", got)
	}

	got, err = class.List(ctx, db, class.Filter{Search: pub.Title[len(pub.Title)-6:]})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != pub.ID {
		t.Fatalf("search must match the title, got %+v", got)
	}

	counts, err := class.CountByStatus(ctx, db, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]int{"draft": 1, "published": 1}, counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveRefusedWithBookings(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	e, clm := coretest.Expert(t, db, "Keeper")
	c := coretest.Class(t, db, e.ID, 100000, class.StatusPublished)
	student := coretest.User(t, db, claims.RoleStudent)

	insertBooking(t, db, student.ID, c.ID)

	if err := class.Remove(ctx, db, clm, c.ID); !errors.Is(err, class.ErrHasBookings) {
		t.Fatalf("expected ErrHasBookings, got %v", err)
	}

	empty := coretest.Class(t, db, e.ID, 100000, class.StatusDraft)
	if err := class.Remove(ctx, db, clm, empty.ID); err != nil {
		t.Fatalf("removing unbooked class: %v", err)
	}
	if _, err := class.Fetch(ctx, db, empty.ID); !errors.Is(err, class.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func insertBooking(t *testing.T, db *sqlx.DB, userID, classID string) {
	t.Helper()

	const q = `
	INSERT INTO bookings (booking_id, user_id, class_id, status, payment_status, total_amount, currency, created_at, updated_at)
	VALUES (:booking_id, :user_id, :class_id, 'pending', 'pending', 0, 'IDR', :now, :now)`

	data := map[string]any{
		"booking_id": validate.GenerateID(),
		"user_id":    userID,
		"class_id":   classID,
		"now":        time.Now().UTC(),
	}
	if _, err := database.NamedExecContext(context.Background(), db, q, data); err != nil {
		t.Fatalf("inserting booking: %v", err)
	}
}

func TestOpenRequiresActiveExpert(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	e, clm := coretest.Expert(t, db, "Sari")
	e.Status = expert.StatusPending
	if err := expert.Update(ctx, db, e); err != nil {
		t.Fatal(err)
	}

	_, err := class.Open(ctx, db, clm, class.ClassNew{Title: "Pottery", Type: class.TypeOffline})
	if !errors.Is(err, class.ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

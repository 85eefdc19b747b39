package issue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/coretest"
	"github.com/irsalhamdi/expert-class/core/issue"
	"github.com/irsalhamdi/expert-class/database/dbtest"
)

func TestReplyRequiresAdminFirst(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	student := coretest.Claims(coretest.User(t, db, claims.RoleStudent))
	admin := coretest.Claims(coretest.User(t, db, claims.RoleAdmin))

	is, err := issue.Open(ctx, db, student, issue.IssueNew{
		Category:    issue.CategoryPayment,
		Subject:     "Paid twice",
		Description: "The virtual account was charged twice.",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = issue.AddReply(ctx, db, student, is.ID, issue.ReplyNew{Message: "Any news?"})
	if !errors.Is(err, issue.ErrAwaitingAdmin) {
		t.Fatalf("expected ErrAwaitingAdmin, got %v", err)
	}

	if _, err := issue.AddReply(ctx, db, admin, is.ID, issue.ReplyNew{Message: "Looking into it."}); err != nil {
		t.Fatalf("admin reply: %v", err)
	}
	if _, err := issue.AddReply(ctx, db, student, is.ID, issue.ReplyNew{Message: "Thanks!"}); err != nil {
		t.Fatalf("student reply after admin: %v", err)
	}

	th, err := issue.Read(ctx, db, student, is.ID)
	if err != nil {
		t.Fatal(err)
	}
	if th.Status != issue.StatusOpen {
		t.Errorf("first admin reply must open the issue, got %s", th.Status)
	}

	roles := make([]string, len(th.Replies))
	for i, r := range th.Replies {
		roles[i] = r.AuthorRole
	}
	if diff := cmp.Diff([]string{claims.RoleAdmin, claims.RoleStudent}, roles); diff != "" {
		t.Errorf("replies mismatch (-want +got):\n%s", diff)
	}
}

func TestStrangersCannotReply(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	_, owner := coretest.Expert(t, db, "Owner")
	stranger := coretest.Claims(coretest.User(t, db, claims.RoleStudent))

	is, err := issue.Open(ctx, db, owner, issue.IssueNew{Category: issue.CategoryOther, Subject: "Hi", Description: "Question"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := issue.AddReply(ctx, db, stranger, is.ID, issue.ReplyNew{Message: "me too"}); !errors.Is(err, issue.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := issue.Read(ctx, db, stranger, is.ID); !errors.Is(err, issue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatusMovesForward(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	student := coretest.Claims(coretest.User(t, db, claims.RoleStudent))
	admin := coretest.Claims(coretest.User(t, db, claims.RoleAdmin))

	is, err := issue.Open(ctx, db, student, issue.IssueNew{Category: issue.CategoryBooking, Subject: "Seat", Description: "Missing seat"})
	if err != nil {
		t.Fatal(err)
	}

	for _, st := range []string{issue.StatusInProgress, issue.StatusResolved} {
		if _, err := issue.SetStatus(ctx, db, is.ID, st); err != nil {
			t.Fatalf("moving to %s: %v", st, err)
		}
	}

	for _, st := range []string{issue.StatusOpen, issue.StatusResolved} {
		if _, err := issue.SetStatus(ctx, db, is.ID, st); !errors.Is(err, issue.ErrInvalidTransition) {
			t.Fatalf("%s: expected ErrInvalidTransition, got %v", st, err)
		}
	}

	got, err := issue.SetStatus(ctx, db, is.ID, issue.StatusClosed)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != issue.StatusClosed {
		t.Fatalf("expected closed, got %s", got.Status)
	}

	if _, err := issue.AddReply(ctx, db, admin, is.ID, issue.ReplyNew{Message: "Reopened by mistake?"}); err != nil {
		t.Fatalf("admins may always reply: %v", err)
	}
	if _, err := issue.AddReply(ctx, db, student, is.ID, issue.ReplyNew{Message: "ok"}); !errors.Is(err, issue.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

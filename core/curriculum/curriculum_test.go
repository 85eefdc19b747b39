package curriculum_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/coretest"
	"github.com/irsalhamdi/expert-class/core/curriculum"
	"github.com/irsalhamdi/expert-class/database/dbtest"
)

func TestSaveUpserts(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	e, _ := coretest.Expert(t, db, "Outline")
	c := coretest.Class(t, db, e.ID, 100000, class.StatusPublished)

	empty, err := curriculum.Fetch(ctx, db, c.ID, curriculum.KindJourney)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Items) != 0 {
		t.Fatalf("expected no items, got %v", empty.Items)
	}

	o := curriculum.Outline{ClassID: c.ID, Kind: curriculum.KindCurriculum, Items: curriculum.Items{{Title: "Intro", DurationMinutes: 30}}}
	if err := curriculum.Save(ctx, db, o); err != nil {
		t.Fatal(err)
	}
	o.Items = curriculum.Items{{Title: "Intro", DurationMinutes: 30}, {Title: "Practice", DurationMinutes: 90}}
	if err := curriculum.Save(ctx, db, o); err != nil {
		t.Fatal(err)
	}

	got, err := curriculum.Fetch(ctx, db, c.ID, curriculum.KindCurriculum)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(o.Items, got.Items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleSaveRequiresOwner(t *testing.T) {
	db := dbtest.New(t)

	e, _ := coretest.Expert(t, db, "Owner")
	_, other := coretest.Expert(t, db, "Other")
	c := coretest.Class(t, db, e.ID, 100000, class.StatusPublished)

	h := curriculum.HandleSave(db, curriculum.KindJourney)
	body := `{"items":[{"title":"Day one"}]}`

	r := httptest.NewRequest(http.MethodPut, "/classes/"+c.ID+"/journey", strings.NewReader(body))
	r = mux.SetURLVars(r, map[string]string{"id": c.ID})
	ctx := claims.Set(r.Context(), other)

	err := h(ctx, httptest.NewRecorder(), r)
	if err == nil || !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

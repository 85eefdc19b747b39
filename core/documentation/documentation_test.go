package docs_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/coretest"
	documentation "github.com/irsalhamdi/expert-class/core/documentation"
	"github.com/irsalhamdi/expert-class/database/dbtest"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "heading", src: "# Setup", want: "<h1>Setup</h1>\n"},
		{name: "emphasis", src: "bring **paper**", want: "<p>bring <strong>paper</strong></p>\n"},
		{name: "raw html dropped", src: "<script>alert(1)</script>", want: "<!-- raw HTML omitted -->\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := documentation.Render(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListRendersHTML(t *testing.T) {
	db := dbtest.New(t)

	e, clm := coretest.Expert(t, db, "Docs")
	c := coretest.Class(t, db, e.ID, 100000, class.StatusPublished)

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Kit","content":"Bring *brushes*"}`))
	r = mux.SetURLVars(r, map[string]string{"id": c.ID})
	if err := documentation.HandleCreate(db)(claims.Set(r.Context(), clm), httptest.NewRecorder(), r); err != nil {
		t.Fatalf("creating documentation: %v", err)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r = mux.SetURLVars(r, map[string]string{"id": c.ID})
	w := httptest.NewRecorder()
	if err := documentation.HandleList(db)(r.Context(), w, r); err != nil {
		t.Fatalf("listing documentation: %v", err)
	}

	var docs []documentation.Documentation
	if err := json.NewDecoder(w.Body).Decode(&docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].HTML != "<p>Bring <em>brushes</em></p>\n" {
		t.Fatalf("unexpected documentation: %+v", docs)
	}
}

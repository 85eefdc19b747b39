package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/irsalhamdi/expert-class/api/middleware"
	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/rate"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func serve(t *testing.T, h web.Handler, mw ...web.Middleware) *httptest.ResponseRecorder {
	t.Helper()

	log, _ := logtest.NewNullLogger()
	chain := append([]web.Middleware{middleware.RequestID(), middleware.Errors(log), middleware.Panics()}, mw...)
	handler := web.WrapMiddleware(chain, h)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	w := httptest.NewRecorder()
	if err := handler(r.Context(), w, r); err != nil {
		t.Fatalf("error escaped the middleware chain: %v", err)
	}
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var er weberr.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&er); err != nil {
		t.Fatal(err)
	}
	return er.Error
}

func TestErrorsHidesInternalFailures(t *testing.T) {
	w := serve(t, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errors.New("connection refused by db host 10.1.2.3")
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if msg := errorBody(t, w); strings.Contains(msg, "10.1.2.3") {
		t.Fatalf("internal error leaked to the client: %q", msg)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}
}

func TestErrorsLogsFields(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	handler := web.WrapMiddleware([]web.Middleware{middleware.Errors(log)}, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return weberr.Conflict(errors.New("booking is final"), weberr.WithField("booking_id", "b1"))
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	if err := handler(r.Context(), w, r); err != nil {
		t.Fatal(err)
	}

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	e := hook.LastEntry()
	if e == nil || e.Level != logrus.WarnLevel || e.Data["booking_id"] != "b1" {
		t.Fatalf("unexpected log entry: %+v", e)
	}
}

func TestPanicsRecovered(t *testing.T) {
	w := serve(t, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	var seen string
	h := web.WrapMiddleware([]web.Middleware{middleware.RequestID()}, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		seen = middleware.ContextRequestID(ctx)
		return nil
	})

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"client id kept", "abc-123", true},
		{"missing id generated", "", false},
		{"id with spaces replaced", "abc 123", false},
		{"overlong id replaced", strings.Repeat("a", 200), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set(middleware.RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			if err := h(r.Context(), w, r); err != nil {
				t.Fatal(err)
			}

			got := w.Header().Get(middleware.RequestIDHeader)
			if got != seen || got == "" {
				t.Fatalf("header %q and context %q disagree", got, seen)
			}
			if (got == tt.header) != tt.keep {
				t.Fatalf("unexpected id %q for header %q", got, tt.header)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	lim := rate.NewLimiter(1, 1, 0.0001)
	t.Cleanup(lim.Close)

	ok := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	if w := serve(t, ok, middleware.RateLimit(lim)); w.Code != http.StatusNoContent {
		t.Fatalf("expected first request through, got %d", w.Code)
	}
	w := serve(t, ok, middleware.RateLimit(lim))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

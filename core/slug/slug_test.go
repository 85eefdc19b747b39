package slug

import (
	"context"
	"errors"
	"testing"
)

func TestMake(t *testing.T) {
	tests := map[string]string{
		"Jane Doe":             "jane-doe",
		"  Jane   Doe  ":       "jane-doe",
		"Dr. Budi -- Santoso!": "dr-budi-santoso",
		"Café Owner":           "caf-owner",
		"---":                  "",
		"Python 3 & Go":        "python-3-go",
		"already-a-slug":       "already-a-slug",
	}

	for in, want := range tests {
		if got := Make(in); got != want {
			t.Errorf("Make(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUnique(t *testing.T) {
	used := map[string]bool{"jane-doe": true, "jane-doe-2": true}
	taken := func(_ context.Context, s string) (bool, error) { return used[s], nil }

	got, err := Unique(context.Background(), "jane-doe", taken)
	if err != nil {
		t.Fatal(err)
	}
	if got != "jane-doe-3" {
		t.Fatalf("got %q, want jane-doe-3", got)
	}

	got, err = Unique(context.Background(), "john", taken)
	if err != nil || got != "john" {
		t.Fatalf("got %q %v, want john", got, err)
	}
}

func TestUniqueExhausted(t *testing.T) {
	calls := 0
	always := func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := Unique(context.Background(), "jane-doe", always)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if calls != MaxAttempts {
		t.Fatalf("expected %d lookups, got %d", MaxAttempts, calls)
	}
}

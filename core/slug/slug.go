// Package slug derives url-safe identifiers from display names.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxAttempts bounds the number of suffixes tried by Unique.
const MaxAttempts = 100

var ErrExhausted = errors.New("no free slug left for this name")

// Make lowercases s, replaces every run of non alphanumeric characters
// with a single hyphen and trims hyphens at both ends.
func Make(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pending := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

// Unique returns base, or base-2, base-3, ... the first one taken reports
// as free. It gives up with ErrExhausted after MaxAttempts candidates.
func Unique(ctx context.Context, base string, taken func(ctx context.Context, candidate string) (bool, error)) (string, error) {
	if base == "" {
		base = "item"
	}

	for i := 1; i <= MaxAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		used, err := taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if !used {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrExhausted, base)
}

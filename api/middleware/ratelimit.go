package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/rate"
)

// RateLimit rejects clients that exhausted their bucket. Authenticated
// requests are keyed by user, the rest by client address.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			key := web.ClientIP(r)
			if clm, err := claims.Get(ctx); err == nil {
				key = "user:" + clm.UserID
			}

			if !lim.Check(key) {
				err := errors.New("too many requests, slow down")
				return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

package auth

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/core/claims"
)

// HandleRouteCheck answers whether the page at ?path= may be rendered for
// the caller, and where to redirect otherwise. Anonymous callers are
// allowed.
func HandleRouteCheck() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, _ := claims.Get(ctx)

		allowed, redirect := claims.RouteAccess(clm, r.URL.Query().Get("path"))
		resp := struct {
			Allowed  bool   `json:"allowed"`
			Redirect string `json:"redirect,omitempty"`
		}{allowed, redirect}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}

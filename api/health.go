package api

import (
	"context"
	"net/http"
	"time"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func handleHealth(db *sqlx.DB, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		status := struct {
			Status string `json:"status"`
		}{"ok"}

		if err := database.StatusCheck(ctx, db); err != nil {
			log.WithError(err).Warn("health check: database unreachable")
			status.Status = "db not ready"
			return web.Respond(ctx, w, status, http.StatusServiceUnavailable)
		}

		return web.Respond(ctx, w, status, http.StatusOK)
	}
}

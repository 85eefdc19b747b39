package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
)

func HandleAdmin(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		sum, err := Admin(ctx, db, time.Now())
		if err != nil {
			return fmt.Errorf("building admin dashboard: %w", err)
		}

		return web.Respond(ctx, w, sum, http.StatusOK)
	}
}

// expertScope resolves whose numbers an expert dashboard shows: the
// caller's own, or any expert's for an admin passing expertId.
func expertScope(r *http.Request, clm claims.Claims) (string, error) {
	if clm.IsAdmin() {
		id := r.URL.Query().Get("expertId")
		if id != "" {
			if err := validate.CheckID(id); err != nil {
				return "", weberr.Invalid(errors.New("expertId must be a valid id"))
			}
		}
		return id, nil
	}
	if !clm.IsExpert() {
		return "", weberr.Forbidden(errors.New("caller has no expert profile"))
	}
	return clm.ExpertID, nil
}

func HandleExpert(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		expertID, err := expertScope(r, clm)
		if err != nil {
			return err
		}
		if expertID == "" {
			return weberr.Invalid(errors.New("expertId is required"))
		}

		sum, err := Expert(ctx, db, expertID, time.Now())
		if err != nil {
			return fmt.Errorf("building dashboard of expert[%s]: %w", expertID, err)
		}

		return web.Respond(ctx, w, sum, http.StatusOK)
	}
}

func HandleStudent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		sum, err := Student(ctx, db, clm.UserID, time.Now())
		if err != nil {
			return fmt.Errorf("building dashboard of user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, sum, http.StatusOK)
	}
}

// HandleRevenue serves the monthly series. Admins see every class unless
// they pick an expert, experts see their own classes.
func HandleRevenue(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		expertID, err := expertScope(r, clm)
		if err != nil {
			return err
		}

		months := web.QueryInt(r, "months", DefaultMonths)
		series, err := RevenueSeries(ctx, db, expertID, months, time.Now())
		if err != nil {
			return fmt.Errorf("building revenue series: %w", err)
		}

		return web.Respond(ctx, w, series, http.StatusOK)
	}
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/schedule"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func webErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, class.ErrNotFound), errors.Is(err, schedule.ErrNotFound):
		return weberr.NotFound(err)
	case errors.Is(err, ErrForbidden):
		return weberr.Forbidden(err)
	case errors.Is(err, ErrNotCancellable), errors.Is(err, ErrInvalidTransition):
		return weberr.Conflict(err)
	case IsValidationError(err):
		return weberr.Invalid(err)
	}
	return err
}

func filter(r *http.Request) Filter {
	q := r.URL.Query()
	rows := web.QueryInt(r, "rows", 20)
	if rows > 100 {
		rows = 100
	}
	page := web.QueryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}

	return Filter{
		ClassID:       q.Get("classId"),
		Status:        q.Get("status"),
		PaymentStatus: q.Get("paymentStatus"),
		Limit:         rows,
		Offset:        (page - 1) * rows,
	}
}

// Visible reports whether the caller may read the booking: its owner, the
// expert teaching the class or an admin.
func Visible(ctx context.Context, db sqlx.ExtContext, clm claims.Claims, b Booking) (bool, error) {
	if clm.CanView(b.UserID) {
		return true, nil
	}
	if !clm.IsExpert() {
		return false, nil
	}

	c, err := class.Fetch(ctx, db, b.ClassID)
	if err != nil {
		return false, err
	}
	return clm.CanManageClass(c.ExpertID), nil
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var nw BookingNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		b, err := Book(ctx, db, clm.UserID, nw)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, b, http.StatusCreated)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		b, err := Fetch(ctx, db, id)
		if err != nil {
			return webErr(err)
		}

		ok, err := Visible(ctx, db, clm, b)
		if err != nil {
			return webErr(err)
		}
		if !ok {
			return weberr.NotFound(ErrNotFound)
		}

		return web.Respond(ctx, w, b, http.StatusOK)
	}
}

// HandleListMine lists the bookings of the caller.
func HandleListMine(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		f := filter(r)
		f.UserID = clm.UserID

		bs, err := List(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing bookings of user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, bs, http.StatusOK)
	}
}

// HandleListExpert lists bookings made on the classes of the calling expert.
func HandleListExpert(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}
		if clm.ExpertID == "" {
			return weberr.Forbidden(errors.New("expert profile required"))
		}

		f := filter(r)
		f.ExpertID = clm.ExpertID

		bs, err := List(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing bookings of expert[%s]: %w", clm.ExpertID, err)
		}

		return web.Respond(ctx, w, bs, http.StatusOK)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := filter(r)
		f.UserID = r.URL.Query().Get("userId")
		f.ExpertID = r.URL.Query().Get("expertId")

		bs, err := List(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing bookings: %w", err)
		}

		return web.Respond(ctx, w, bs, http.StatusOK)
	}
}

func HandleCancel(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		b, err := Cancel(ctx, db, clm.UserID, id)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, b, http.StatusOK)
	}
}

func HandleUpdateStatus(db *sqlx.DB, log logrus.FieldLogger, notify *Notifier) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		var up StatusUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.Invalid(err)
		}

		b, confirmed, err := SetStatus(ctx, db, log, id, up.Status)
		if err != nil {
			return webErr(err)
		}
		if confirmed {
			notify.Confirmed(b.ID)
		}

		return web.Respond(ctx, w, b, http.StatusOK)
	}
}

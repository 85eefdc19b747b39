package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/core/booking"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/payment/duitku"
	"github.com/irsalhamdi/expert-class/validate"
)

func webErr(err error) error {
	var (
		herr *duitku.HTTPError
		rerr *duitku.ResponseError
	)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, booking.ErrNotFound):
		return weberr.NotFound(err)
	case errors.Is(err, booking.ErrForbidden):
		return weberr.Forbidden(err)
	case errors.Is(err, ErrFinal), errors.Is(err, ErrNotPayable):
		return weberr.Conflict(err)
	case errors.Is(err, ErrGatewayOff):
		return weberr.Unprocessable(err)
	case errors.Is(err, duitku.ErrInvalidSignature), errors.Is(err, ErrUnknownOutcome):
		return weberr.Invalid(err)
	case errors.Is(err, duitku.ErrMissingCredentials):
		return weberr.NewError(err, err.Error(), http.StatusInternalServerError)
	case errors.As(err, &herr):
		return weberr.Wrap(err,
			weberr.WithField("gateway_status", herr.StatusCode),
			weberr.WithResponse(relayed(herr.Body), herr.StatusCode),
		)
	case errors.As(err, &rerr):
		return weberr.Invalid(errors.New(rerr.Message), weberr.WithField("gateway_code", rerr.Code))
	}
	return err
}

// relayed passes the gateway body through when it is JSON.
func relayed(body []byte) any {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return weberr.ErrorResponse{Error: string(body)}
}

// HandleMethods lists the Duitku payment channels for the amount query value.
func HandleMethods(s *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		amount := web.QueryInt(r, "amount", 0)
		if amount <= 0 {
			return weberr.Invalid(errors.New("amount must be a positive number"))
		}

		methods, err := s.Duitku.PaymentMethods(ctx, int64(amount))
		if err != nil {
			return webErr(fmt.Errorf("listing payment methods: %w", err))
		}

		return web.Respond(ctx, w, methods, http.StatusOK)
	}
}

func HandleCheckout(s *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var nw CheckoutNew
		if err := web.Decode(w, r, &nw); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if err := validate.Check(nw); err != nil {
			return weberr.Invalid(err)
		}

		p, err := s.Checkout(ctx, clm, nw)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

// HandleDuitkuCallback accepts the form posted by Duitku once a
// transaction settles.
func HandleDuitkuCallback(s *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cb, err := duitku.ParseCallback(r)
		if err != nil {
			return weberr.Invalid(err)
		}

		if _, err := s.Callback(ctx, cb); err != nil {
			return webErr(fmt.Errorf("applying callback of order[%s]: %w", cb.MerchantOrderID, err))
		}

		return web.Respond(ctx, w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}

func HandleSync(s *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		p, err := Fetch(ctx, s.DB, id)
		if err != nil {
			return webErr(err)
		}
		if !clm.CanView(p.UserID) {
			return weberr.NotFound(ErrNotFound)
		}

		if p, err = s.Sync(ctx, id); err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

// HandleUpdateStatus is the administrative status change. It goes through
// the same transition as gateway notifications.
func HandleUpdateStatus(s *Service) web.Handler {
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

		p, err := s.Apply(ctx, id, up.Status, Metadata(up.Metadata))
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleShow(s *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		p, err := Fetch(ctx, s.DB, id)
		if err != nil {
			return webErr(err)
		}
		if !clm.CanView(p.UserID) {
			return weberr.NotFound(ErrNotFound)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleList(s *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		q := r.URL.Query()
		rows := web.QueryInt(r, "rows", 20)
		if rows > 100 {
			rows = 100
		}
		page := web.QueryInt(r, "page", 1)
		if page < 1 {
			page = 1
		}

		f := Filter{
			BookingID: q.Get("bookingId"),
			UserID:    q.Get("userId"),
			Status:    q.Get("status"),
			Gateway:   q.Get("gateway"),
			Limit:     rows,
			Offset:    (page - 1) * rows,
		}

		ps, err := List(ctx, s.DB, f)
		if err != nil {
			return fmt.Errorf("listing payments: %w", err)
		}

		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}

// HandleListByBooking lists every payment attempt of a booking the caller can see.
func HandleListByBooking(s *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		b, err := booking.Fetch(ctx, s.DB, id)
		if err != nil {
			return webErr(err)
		}
		ok, err := booking.Visible(ctx, s.DB, clm, b)
		if err != nil {
			return fmt.Errorf("checking access to booking[%s]: %w", id, err)
		}
		if !ok {
			return weberr.NotFound(booking.ErrNotFound)
		}

		ps, err := List(ctx, s.DB, Filter{BookingID: id})
		if err != nil {
			return fmt.Errorf("listing payments of booking[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/api/weberr"
	"github.com/irsalhamdi/expert-class/config"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// Stripe is the card checkout alternative to Duitku. It is enabled only
// when a secret key is configured.
type Stripe struct {
	API *stripecl.API
	Cfg config.Stripe
}

// StripeCheckout opens, or reuses, a Stripe Checkout session for the booking.
func (s *Service) StripeCheckout(ctx context.Context, st *Stripe, clm claims.Claims, bookingID string) (Payment, error) {
	if st == nil || st.API == nil {
		return Payment{}, ErrGatewayOff
	}

	p, b, fresh, err := s.prepare(ctx, clm, bookingID, GatewayStripe, "card")
	if err != nil {
		return Payment{}, err
	}
	if !fresh {
		return p, nil
	}

	name := "Class booking"
	if c, err := class.Fetch(ctx, s.DB, b.ClassID); err == nil {
		name = c.Title
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(st.Cfg.SuccessURL),
		CancelURL:         stripe.String(st.Cfg.CancelURL),
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(p.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),

			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(strings.ToLower(p.Currency)),
				TaxBehavior: stripe.String("inclusive"),
				UnitAmount:  stripe.Int64(p.Amount * 100),

				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
		}},
	}
	params.AddMetadata("payment_id", p.ID)
	params.AddMetadata("booking_id", b.ID)

	sess, err := st.API.CheckoutSessions.New(params)
	if err != nil {
		s.abandon(ctx, p, err)
		return Payment{}, fmt.Errorf("creating stripe session: %w", err)
	}

	p.Reference = sess.ID
	p.PaymentURL = sess.URL
	p.UpdatedAt = time.Now().UTC()
	if err := UpdateGateway(ctx, s.DB, p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func HandleStripeCheckout(s *Service, st *Stripe) web.Handler {
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

		p, err := s.StripeCheckout(ctx, st, clm, nw.BookingID)
		if err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

// HandleStripeWebhook settles Stripe payments from signed checkout events.
func HandleStripeWebhook(s *Service, st *Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if st == nil {
			return weberr.NotFound(ErrGatewayOff)
		}

		b, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, st.Cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		var status string
		switch event.Type {
		case "checkout.session.completed":
			status = StatusSuccess
		case "checkout.session.expired":
			status = StatusExpired
		default:
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}
		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		p, err := FetchByReference(ctx, s.DB, GatewayStripe, session.ID)
		if err != nil {
			return webErr(fmt.Errorf("fetching the payment bound to session[%s]: %w", session.ID, err))
		}

		meta := Metadata{"stripeEvent": event.ID}
		if session.PaymentIntent != nil {
			meta["paymentIntent"] = session.PaymentIntent.ID
		}
		if _, err := s.Apply(ctx, p.ID, status, meta); err != nil {
			return webErr(fmt.Errorf("the payment[%s] was settled but applying it failed: %w", p.ID, err))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/expert-class/config"
	"github.com/irsalhamdi/expert-class/core/booking"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/coretest"
	"github.com/irsalhamdi/expert-class/core/payment"
	"github.com/irsalhamdi/expert-class/core/payment/duitku"
	"github.com/irsalhamdi/expert-class/core/schedule"
	"github.com/irsalhamdi/expert-class/database/dbtest"
	"github.com/jmoiron/sqlx"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
	mock "github.com/stripe/stripe-mock/param"
)

const (
	merchant = "D0001"
	apiKey   = "secret-key"
)

// gateway fakes the Duitku endpoints used by checkout and sync.
type gateway struct {
	inquiries atomic.Int32
	status    atomic.Value
	failing   atomic.Bool
}

func (g *gateway) handle() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v2/inquiry", func(w http.ResponseWriter, r *http.Request) {
		g.inquiries.Add(1)
		if g.failing.Load() {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"Message":"Minimum Payment 10000 IDR"}`))
			return
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		id, _ := req["merchantOrderId"].(string)

		json.NewEncoder(w).Encode(map[string]string{
			"merchantCode":  merchant,
			"reference":     "REF-" + id,
			"paymentUrl":    "https://sandbox.duitku.com/pay/" + id,
			"vaNumber":      "7007014001234567",
			"statusCode":    duitku.CodeSuccess,
			"statusMessage": "SUCCESS",
		})
	}).Methods(http.MethodPost)

	r.HandleFunc("/transactionStatus", func(w http.ResponseWriter, r *http.Request) {
		code, _ := g.status.Load().(string)
		if code == "" {
			code = duitku.CodePending
		}
		json.NewEncoder(w).Encode(map[string]string{"statusCode": code, "statusMessage": "status"})
	}).Methods(http.MethodPost)

	return r
}

type env struct {
	db      *sqlx.DB
	svc     *payment.Service
	gw      *gateway
	student claims.Claims
	class   class.Class
	sched   schedule.Schedule
}

func newEnv(t *testing.T, capacity int) *env {
	t.Helper()

	db := dbtest.New(t)
	gw := &gateway{}
	srv := httptest.NewServer(gw.handle())
	t.Cleanup(srv.Close)

	log, _ := logtest.NewNullLogger()
	e, _ := coretest.Expert(t, db, "Payments")
	c := coretest.Class(t, db, e.ID, 250000, class.StatusPublished)
	s := coretest.Schedule(t, db, c.ID, 1, capacity)

	return &env{
		db: db,
		svc: &payment.Service{
			DB:     db,
			Log:    log,
			Duitku: duitku.New(duitku.Config{BaseURL: srv.URL, MerchantCode: merchant, APIKey: apiKey, Timeout: time.Second}),
		},
		gw:      gw,
		student: coretest.Claims(coretest.User(t, db, claims.RoleStudent)),
		class:   c,
		sched:   s,
	}
}

func (e *env) book(t *testing.T) booking.Booking {
	t.Helper()

	b, err := booking.Book(context.Background(), e.db, e.student.UserID, booking.BookingNew{
		ClassID:     e.class.ID,
		ScheduleIDs: []string{e.sched.ID},
	})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	return b
}

func (e *env) checkout(t *testing.T, bookingID string) payment.Payment {
	t.Helper()

	p, err := e.svc.Checkout(context.Background(), e.student, payment.CheckoutNew{BookingID: bookingID, PaymentMethod: "BC"})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return p
}

func (e *env) callback(p payment.Payment, result string) duitku.Callback {
	amount := strconv.FormatInt(p.Amount, 10)
	return duitku.Callback{
		MerchantCode:    merchant,
		Amount:          amount,
		MerchantOrderID: p.ID,
		ResultCode:      result,
		Reference:       p.Reference,
		PaymentCode:     "BC",
		Signature:       e.svc.Duitku.Sign(amount, p.ID),
	}
}

func (e *env) fetchBooking(t *testing.T, id string) booking.Booking {
	t.Helper()

	b, err := booking.Fetch(context.Background(), e.db, id)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestCheckoutReusesPendingPayment(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)

	p1 := e.checkout(t, b.ID)
	if p1.Reference != "REF-"+p1.ID || p1.Metadata["vaNumber"] == "" {
		t.Fatalf("gateway details not stored: %+v", p1)
	}
	if p1.Amount != 250000 || p1.Status != payment.StatusPending {
		t.Fatalf("unexpected payment: %+v", p1)
	}

	p2 := e.checkout(t, b.ID)
	if p2.ID != p1.ID {
		t.Fatalf("expected pending payment %s to be reused, got %s", p1.ID, p2.ID)
	}
	if n := e.gw.inquiries.Load(); n != 1 {
		t.Fatalf("expected one gateway inquiry, got %d", n)
	}

	if got := e.fetchBooking(t, b.ID); got.PaymentID != p1.ID {
		t.Fatalf("booking points at payment %q, want %q", got.PaymentID, p1.ID)
	}
}

func TestCheckoutOwnerOnly(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)

	other := coretest.Claims(coretest.User(t, e.db, claims.RoleStudent))
	_, err := e.svc.Checkout(context.Background(), other, payment.CheckoutNew{BookingID: b.ID})
	if !errors.Is(err, booking.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCheckoutGatewayFailure(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)
	e.gw.failing.Store(true)

	_, err := e.svc.Checkout(context.Background(), e.student, payment.CheckoutNew{BookingID: b.ID})
	var herr *duitku.HTTPError
	if !errors.As(err, &herr) || herr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected relayed gateway error, got %v", err)
	}

	ps, err := payment.List(context.Background(), e.db, payment.Filter{BookingID: b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 1 || ps[0].Status != payment.StatusFailed {
		t.Fatalf("expected the abandoned payment to be failed, got %+v", ps)
	}

	got := e.fetchBooking(t, b.ID)
	if got.Status != booking.StatusPending || got.PaymentStatus != booking.PaymentPending {
		t.Fatalf("booking must stay untouched, got %s/%s", got.Status, got.PaymentStatus)
	}

	// The next attempt opens a fresh payment.
	e.gw.failing.Store(false)
	p := e.checkout(t, b.ID)
	if p.ID == ps[0].ID {
		t.Fatal("expected a new payment after the failed one")
	}
}

func TestCallbackConfirmsBooking(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)
	p := e.checkout(t, b.ID)
	ctx := context.Background()

	got, err := e.svc.Callback(ctx, e.callback(p, duitku.ResultSuccess))
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if got.Status != payment.StatusSuccess || got.PaidAt == nil {
		t.Fatalf("unexpected payment after success: %+v", got)
	}

	bk := e.fetchBooking(t, b.ID)
	if bk.Status != booking.StatusConfirmed || bk.PaymentStatus != booking.PaymentPaid {
		t.Fatalf("booking not confirmed: %s/%s", bk.Status, bk.PaymentStatus)
	}

	// Gateways repeat notifications.
	if _, err := e.svc.Callback(ctx, e.callback(p, duitku.ResultSuccess)); err != nil {
		t.Fatalf("repeated callback: %v", err)
	}

	s, err := schedule.Fetch(ctx, e.db, e.sched.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s.BookedSeats != 1 {
		t.Fatalf("expected one reserved seat, got %d", s.BookedSeats)
	}

	_, err = e.svc.Callback(ctx, e.callback(p, duitku.ResultFailed))
	if !errors.Is(err, payment.ErrFinal) {
		t.Fatalf("expected ErrFinal, got %v", err)
	}
}

func TestSuccessAfterCancelKeepsBookingCancelled(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)
	p := e.checkout(t, b.ID)
	ctx := context.Background()

	if _, err := booking.Cancel(ctx, e.db, e.student.UserID, b.ID); err != nil {
		t.Fatalf("cancelling: %v", err)
	}

	got, err := e.svc.Callback(ctx, e.callback(p, duitku.ResultSuccess))
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if got.Status != payment.StatusSuccess {
		t.Fatalf("expected the settled payment to be recorded, got %s", got.Status)
	}

	if bk := e.fetchBooking(t, b.ID); bk.Status != booking.StatusCancelled || bk.PaymentStatus == booking.PaymentPaid {
		t.Fatalf("cancelled booking was reopened: %s/%s", bk.Status, bk.PaymentStatus)
	}

	s, err := schedule.Fetch(ctx, e.db, e.sched.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s.BookedSeats != 0 {
		t.Fatalf("expected no seat taken, got %d", s.BookedSeats)
	}
}

func TestCallbackRejected(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)
	p := e.checkout(t, b.ID)
	ctx := context.Background()

	cb := e.callback(p, duitku.ResultSuccess)
	cb.Amount = "1"
	if _, err := e.svc.Callback(ctx, cb); !errors.Is(err, duitku.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	cb = e.callback(p, "99")
	if _, err := e.svc.Callback(ctx, cb); !errors.Is(err, payment.ErrUnknownOutcome) {
		t.Fatalf("expected ErrUnknownOutcome, got %v", err)
	}

	if got := e.fetchBooking(t, b.ID); got.PaymentStatus != booking.PaymentPending {
		t.Fatalf("rejected callbacks must not settle the booking, got %s", got.PaymentStatus)
	}
}

func TestFailedPaymentCanBeRetried(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)
	p := e.checkout(t, b.ID)
	ctx := context.Background()

	if _, err := e.svc.Callback(ctx, e.callback(p, duitku.ResultExpired)); err != nil {
		t.Fatal(err)
	}

	bk := e.fetchBooking(t, b.ID)
	if bk.Status != booking.StatusPending || bk.PaymentStatus != booking.PaymentFailed {
		t.Fatalf("expected pending booking with failed payment, got %s/%s", bk.Status, bk.PaymentStatus)
	}

	retry := e.checkout(t, b.ID)
	if retry.ID == p.ID {
		t.Fatal("expired payment must not be reused")
	}
	if _, err := e.svc.Callback(ctx, e.callback(retry, duitku.ResultSuccess)); err != nil {
		t.Fatal(err)
	}

	bk = e.fetchBooking(t, b.ID)
	if bk.Status != booking.StatusConfirmed || bk.PaymentStatus != booking.PaymentPaid {
		t.Fatalf("retry did not confirm the booking: %s/%s", bk.Status, bk.PaymentStatus)
	}
}

func TestSync(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)
	p := e.checkout(t, b.ID)
	ctx := context.Background()

	got, err := e.svc.Sync(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != payment.StatusPending {
		t.Fatalf("pending answer must leave the payment alone, got %s", got.Status)
	}

	e.gw.status.Store(duitku.CodeSuccess)
	if got, err = e.svc.Sync(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if got.Status != payment.StatusSuccess {
		t.Fatalf("expected success, got %s", got.Status)
	}
	if bk := e.fetchBooking(t, b.ID); bk.Status != booking.StatusConfirmed {
		t.Fatalf("expected confirmed booking, got %s", bk.Status)
	}
}

func TestApplyNoRefund(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)
	p := e.checkout(t, b.ID)
	ctx := context.Background()

	if _, err := e.svc.Apply(ctx, p.ID, payment.StatusProcessing, nil); err != nil {
		t.Fatal(err)
	}
	if bk := e.fetchBooking(t, b.ID); bk.PaymentStatus != booking.PaymentPending {
		t.Fatalf("processing must not touch the booking, got %s", bk.PaymentStatus)
	}

	if _, err := e.svc.Apply(ctx, p.ID, payment.StatusSuccess, payment.Metadata{"note": "manual"}); err != nil {
		t.Fatal(err)
	}

	for _, st := range []string{payment.StatusFailed, payment.StatusExpired, payment.StatusPending} {
		if _, err := e.svc.Apply(ctx, p.ID, st, nil); !errors.Is(err, payment.ErrFinal) {
			t.Fatalf("%s: expected ErrFinal, got %v", st, err)
		}
	}

	got, err := payment.Fetch(ctx, e.db, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata["note"] != "manual" || got.Metadata["vaNumber"] == "" {
		t.Fatalf("metadata not merged: %v", got.Metadata)
	}
}

func TestCheckoutConfirmedBooking(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)
	p := e.checkout(t, b.ID)
	ctx := context.Background()

	if _, err := e.svc.Apply(ctx, p.ID, payment.StatusSuccess, nil); err != nil {
		t.Fatal(err)
	}

	_, err := e.svc.Checkout(ctx, e.student, payment.CheckoutNew{BookingID: b.ID})
	if !errors.Is(err, payment.ErrNotPayable) {
		t.Fatalf("expected ErrNotPayable, got %v", err)
	}
}

func TestStripeCheckoutAndWebhook(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)

	sessionID := "cs_test_" + b.ID
	r := mux.NewRouter()
	r.HandleFunc("/v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		lines, _ := params["line_items"].(map[string]any)
		item, _ := lines["0"].(map[string]any)
		pd, _ := item["price_data"].(map[string]any)
		if pd["unit_amount"] != "25000000" || pd["currency"] != "idr" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":   sessionID,
			"url":  "https://checkout.stripe.com/c/pay/" + sessionID,
			"mode": "payment",
		})
	}).Methods(http.MethodPost)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	api := &stripecl.API{}
	api.Init("sk_test_123", &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:        stripe.String(srv.URL),
			HTTPClient: srv.Client(),
		}),
	})
	st := &payment.Stripe{API: api, Cfg: config.Stripe{WebhookSecret: "whsec_test", SuccessURL: "http://localhost/ok", CancelURL: "http://localhost/cancel"}}

	p, err := e.svc.StripeCheckout(context.Background(), st, e.student, b.ID)
	if err != nil {
		t.Fatalf("stripe checkout: %v", err)
	}
	if p.Gateway != payment.GatewayStripe || p.Reference != sessionID {
		t.Fatalf("unexpected stripe payment: %+v", p)
	}

	obj, _ := json.Marshal(map[string]any{"id": sessionID, "object": "checkout.session", "mode": "payment"})
	evt, _ := json.Marshal(map[string]any{
		"id":          "evt_test_1",
		"object":      "event",
		"api_version": stripe.APIVersion,
		"type":        "checkout.session.completed",
		"data":        map[string]any{"object": json.RawMessage(obj)},
	})

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   evt,
		Secret:    st.Cfg.WebhookSecret,
		Timestamp: time.Now(),
	})

	req := httptest.NewRequest(http.MethodPost, "/payments/stripe/webhook", strings.NewReader(string(evt)))
	req.Header.Set("Stripe-Signature", signed.Header)
	w := httptest.NewRecorder()

	if err := payment.HandleStripeWebhook(e.svc, st)(req.Context(), w, req); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	if bk := e.fetchBooking(t, b.ID); bk.Status != booking.StatusConfirmed {
		t.Fatalf("expected confirmed booking, got %s", bk.Status)
	}

	req = httptest.NewRequest(http.MethodPost, "/payments/stripe/webhook", strings.NewReader(string(evt)))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	if err := payment.HandleStripeWebhook(e.svc, st)(req.Context(), httptest.NewRecorder(), req); err == nil {
		t.Fatal("expected unsigned event to be rejected")
	}
}

func TestStripeDisabled(t *testing.T) {
	e := newEnv(t, 10)
	b := e.book(t)

	_, err := e.svc.StripeCheckout(context.Background(), nil, e.student, b.ID)
	if !errors.Is(err, payment.ErrGatewayOff) {
		t.Fatalf("expected ErrGatewayOff, got %v", err)
	}
}

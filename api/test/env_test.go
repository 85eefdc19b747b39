package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/irsalhamdi/expert-class/api"
	"github.com/irsalhamdi/expert-class/config"
	"github.com/irsalhamdi/expert-class/core/auth/authtest"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/coretest"
	"github.com/irsalhamdi/expert-class/core/file"
	"github.com/irsalhamdi/expert-class/core/payment"
	"github.com/irsalhamdi/expert-class/core/payment/duitku"
	"github.com/irsalhamdi/expert-class/core/user"
	"github.com/irsalhamdi/expert-class/database/dbtest"
	"github.com/irsalhamdi/expert-class/random"
	"github.com/irsalhamdi/expert-class/rate"
	"github.com/jmoiron/sqlx"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

const (
	merchant = "D0001"
	apiKey   = "secret-key"
)

type TestEnv struct {
	*httptest.Server
	DB            *sqlx.DB
	Signer        *authtest.Signer
	Duitku        *duitku.Client
	Gateway       *mockDuitku
	Stripe        *mockStripe
	WebhookSecret string
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	db := dbtest.New(t)
	log, _ := logtest.NewNullLogger()
	signer := authtest.NewSigner(t)

	gw := &mockDuitku{}
	dsrv := httptest.NewServer(gw.handle())
	t.Cleanup(dsrv.Close)
	dk := duitku.New(duitku.Config{BaseURL: dsrv.URL, MerchantCode: merchant, APIKey: apiKey, Timeout: 2 * time.Second})

	ms := &mockStripe{}
	ssrv := httptest.NewServer(ms.handle())
	t.Cleanup(ssrv.Close)

	sc := &stripecl.API{}
	sc.Init("sk_test_123", &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:        stripe.String(ssrv.URL),
			HTTPClient: ssrv.Client(),
		}),
	})

	const whsec = "whsec_test"
	limiter := rate.NewLimiter(100, 10, 100)
	t.Cleanup(limiter.Close)

	mux := api.APIMux(api.APIConfig{
		Log:      log,
		DB:       db,
		Verifier: signer.Verifier(),
		Payments: &payment.Service{DB: db, Log: log, Duitku: dk},
		Stripe: &payment.Stripe{API: sc, Cfg: config.Stripe{
			WebhookSecret: whsec,
			SuccessURL:    "http://localhost:3000/bookings?paid=1",
			CancelURL:     "http://localhost:3000/bookings",
		}},
		Files: &file.Storage{
			DB:        db,
			Dir:       t.TempDir(),
			PublicURL: "http://api.kelas.test",
			Secret:    []byte("file-secret"),
			TTL:       time.Minute,
			MaxBytes:  1 << 20,
		},
		Limiter: limiter,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &TestEnv{
		Server:        srv,
		DB:            db,
		Signer:        signer,
		Duitku:        dk,
		Gateway:       gw,
		Stripe:        ms,
		WebhookSecret: whsec,
	}
}

// Student returns a token for a user that signs in for the first time.
func (e *TestEnv) Student(t *testing.T) string {
	t.Helper()

	sub := "user_" + random.String(12)
	return e.Signer.Token(t, sub, sub+"@kelas.test", "")
}

// TokenFor returns a token for an already stored user.
func (e *TestEnv) TokenFor(t *testing.T, userID string) string {
	t.Helper()

	u, err := user.Fetch(context.Background(), e.DB, userID)
	if err != nil {
		t.Fatal(err)
	}
	return e.Signer.Token(t, u.ExternalID, u.Email, u.Role)
}

// Expert returns the expert id and a token for a freshly activated expert.
func (e *TestEnv) Expert(t *testing.T) (string, string) {
	t.Helper()

	ex, clm := coretest.Expert(t, e.DB, "Expert "+random.String(4))
	return ex.ID, e.TokenFor(t, clm.UserID)
}

func (e *TestEnv) Admin(t *testing.T) string {
	t.Helper()

	u := coretest.User(t, e.DB, claims.RoleAdmin)
	return e.TokenFor(t, u.ID)
}

// Do sends body as JSON and decodes the response into dest when it is set.
func (e *TestEnv) Do(t *testing.T, method, path, token string, body any, dest any) int {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, e.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w, err := e.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if dest != nil && w.StatusCode < 300 {
		if err := json.NewDecoder(w.Body).Decode(dest); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
	return w.StatusCode
}

func expect(t *testing.T, want, got int, what string) {
	t.Helper()

	if got != want {
		t.Fatalf("%s: expected status %d, got %d", what, want, got)
	}
}

func jsonDecode(r io.Reader, dest any) error {
	return json.NewDecoder(r).Decode(dest)
}

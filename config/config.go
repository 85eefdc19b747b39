package config

import (
	"time"

	"github.com/ardanlabs/conf/v3"
)

type Config struct {
	conf.Version
	Web       Web
	DB        DB
	Auth      Auth
	Duitku    Duitku
	Stripe    Stripe
	Email     Email
	Storage   Storage
	Cors      Cors
	Rollbar   Rollbar
	RateLimit RateLimit
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	PublicURL       string        `conf:"default:http://localhost:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	Driver       string `conf:"default:postgres"`
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:kelas"`
	Path         string `conf:"default:kelas.db"`
	MaxIdleConns int    `conf:"default:5"`
	MaxOpenConns int    `conf:"default:20"`
	DisableTLS   bool   `conf:"default:true"`
}

// Auth configures the identity provider whose session tokens are accepted.
type Auth struct {
	Issuer           string        `conf:"default:https://clerk.example.com"`
	DiscoveryTimeout time.Duration `conf:"default:10s"`
}

type Duitku struct {
	BaseURL      string        `conf:"default:https://sandbox.duitku.com/webapi/api/merchant"`
	MerchantCode string
	APIKey       string        `conf:"mask"`
	CallbackURL  string        `conf:"default:http://localhost:8000/payments/duitku/callback"`
	ReturnURL    string        `conf:"default:http://localhost:3000/bookings"`
	ExpiryPeriod int           `conf:"default:60"`
	Timeout      time.Duration `conf:"default:15s"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/bookings?paid=1"`
	CancelURL     string `conf:"default:http://localhost:3000/bookings"`
	URL           string
}

type Email struct {
	Provider string `conf:"default:log"`
	APIKey   string `conf:"mask"`
	From     string `conf:"default:Kelas <noreply@kelas.local>"`
}

type Storage struct {
	Dir         string        `conf:"default:uploads"`
	TokenSecret string        `conf:"default:change-me,mask"`
	TokenTTL    time.Duration `conf:"default:15m"`
	MaxBytes    int64         `conf:"default:10485760"`
}

type Cors struct {
	Origin string `conf:"default:*"`
}

type Rollbar struct {
	Token       string `conf:"mask"`
	Environment string `conf:"default:development"`
}

type RateLimit struct {
	Burst    int           `conf:"default:10"`
	Interval time.Duration `conf:"default:1s"`
	Expiry   int           `conf:"default:10"`
}

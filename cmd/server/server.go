package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/expert-class/api"
	"github.com/irsalhamdi/expert-class/api/background"
	"github.com/irsalhamdi/expert-class/config"
	"github.com/irsalhamdi/expert-class/core/auth"
	"github.com/irsalhamdi/expert-class/core/booking"
	"github.com/irsalhamdi/expert-class/core/file"
	"github.com/irsalhamdi/expert-class/core/payment"
	"github.com/irsalhamdi/expert-class/core/payment/duitku"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/email"
	"github.com/irsalhamdi/expert-class/logger"
	"github.com/irsalhamdi/expert-class/rate"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

var build = "develop"

func main() {
	log := logger.New("kelas-api", os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Entry) error {
	logger.Infof("starting server, build %s", build)
	defer logger.Info("shutdown complete")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	const prefix = "KELAS"
	cfg := config.Config{
		Version: conf.Version{Build: build, Desc: "expert class booking api"},
	}
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Rollbar.Token != "" {
		hook := newRollbarHook(cfg.Rollbar, build)
		defer hook.Close()
		logger.Logger.AddHook(hook)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	logger.Infof("startup config:\n%s", out)

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Auth.DiscoveryTimeout)
	defer cancel()
	verifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("failed to discover the identity provider: %w", err)
	}

	mail, err := email.New(cfg.Email.Provider, cfg.Email.APIKey, cfg.Email.From, logger)
	if err != nil {
		return fmt.Errorf("building mailer: %w", err)
	}

	bg := background.New(logger)
	notify := &booking.Notifier{DB: db, Mailer: mail, BG: bg}

	dk := cfg.Duitku
	if dk.MerchantCode == "" || dk.APIKey == "" {
		logger.Warn("duitku credentials are not configured, payments will fail")
	}
	payments := &payment.Service{
		DB:     db,
		Log:    logger,
		Notify: notify,
		Duitku: duitku.New(duitku.Config{
			BaseURL:      dk.BaseURL,
			MerchantCode: dk.MerchantCode,
			APIKey:       dk.APIKey,
			CallbackURL:  dk.CallbackURL,
			ReturnURL:    dk.ReturnURL,
			ExpiryPeriod: dk.ExpiryPeriod,
			Timeout:      dk.Timeout,
		}),
	}

	var strp *payment.Stripe
	if cfg.Stripe.APISecret != "" {
		sc := &stripecl.API{}
		sc.Init(cfg.Stripe.APISecret, nil)
		strp = &payment.Stripe{API: sc, Cfg: cfg.Stripe}
	}

	limiter := rate.NewLimiter(cfg.RateLimit.Burst, cfg.RateLimit.Expiry, rate.Every(cfg.RateLimit.Interval))
	defer limiter.Close()

	files := &file.Storage{
		DB:        db,
		Dir:       cfg.Storage.Dir,
		PublicURL: cfg.Web.PublicURL,
		Secret:    []byte(cfg.Storage.TokenSecret),
		TTL:       cfg.Storage.TokenTTL,
		MaxBytes:  cfg.Storage.MaxBytes,
	}

	mux := api.APIMux(api.APIConfig{
		CorsOrigin: cfg.Cors.Origin,
		Log:        logger,
		DB:         db,
		Verifier:   verifier,
		Payments:   payments,
		Stripe:     strp,
		Notify:     notify,
		Files:      files,
		Limiter:    limiter,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}

func newRollbarHook(cfg config.Rollbar, version string) *logger.RollbarHook {
	return logger.NewRollbarHook(cfg.Token, cfg.Environment, version)
}

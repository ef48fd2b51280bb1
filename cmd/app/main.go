package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bank-gateways-hub/internal/config"
	"bank-gateways-hub/internal/currency"
	"bank-gateways-hub/internal/domain/model"
	"bank-gateways-hub/internal/gateway"
	pg "bank-gateways-hub/internal/infra/db/postgres"
	"bank-gateways-hub/internal/infra/logging"
	"bank-gateways-hub/internal/infra/metrics"
	red "bank-gateways-hub/internal/infra/redis"
	"bank-gateways-hub/internal/infra/sched"
	"bank-gateways-hub/internal/infra/web"
	"bank-gateways-hub/internal/httpx"
	"bank-gateways-hub/internal/message"
	"bank-gateways-hub/internal/provider"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	store := pg.NewTransactionStore(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Bank adapters ----
	client := httpx.NewNetClient(httpx.WithObserver(metrics.ObserveGatewayRequest))
	deps := provider.Deps{
		Messages: message.NewService(),
		Client:   client,
		Logger:   *logger,
	}
	settings, err := providerSettings(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("bank settings")
	}

	gateways := make(map[string]*gateway.PaymentGateway)
	for _, tag := range configuredBanks(cfg) {
		p, err := provider.New(tag, settings, deps)
		if err != nil {
			logger.Fatal().Err(err).Str("bank", tag).Msg("build adapter")
		}
		gateways[tag] = gateway.New(p, store, locker, *logger)
		logger.Info().Str("bank", tag).Msg("gateway enabled")
	}
	if _, ok := gateways[cfg.Payment.DefaultBank]; !ok {
		logger.Fatal().Str("bank", cfg.Payment.DefaultBank).Msg("default bank is not configured")
	}

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SecureCookie, cfg.Admin.SessionTTL)
	srv := web.NewServer(gateways, auth, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Reconciler ----
	rec := sched.NewReconciler(gateways, store, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, cfg.Reconciler.BatchSize, *logger)
	go rec.Start(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = server.Shutdown(shutdownCtx)
}

// providerSettings translates YAML settings into adapter configs. The
// per-bank callback URL is the public base plus the callback route; the
// banks attach their own reference parameters when redirecting back.
func providerSettings(cfg *config.Config) (provider.Settings, error) {
	base, err := httpx.Parse(cfg.Payment.CallbackBaseURL)
	if err != nil {
		return provider.Settings{}, fmt.Errorf("callback_base_url: %w", err)
	}
	callback := func(tag string) func(model.OrderDetails) httpx.URL {
		target := base.Join("gateways/callback/" + tag)
		return func(model.OrderDetails) httpx.URL { return target }
	}

	var s provider.Settings
	if z := cfg.Payment.Zarinpal; z != nil {
		cur := currency.IRT
		if z.Currency != "" {
			if cur, err = currency.Get(z.Currency); err != nil {
				return provider.Settings{}, err
			}
		}
		pc := provider.ZarinpalConfig{
			MerchantCode: z.MerchantCode,
			CallbackURL:  callback(provider.BankZarinpal),
			Currency:     cur,
			Timeout:      cfg.Payment.RequestTimeout,
		}
		if pc.PaymentRequestURL, err = optionalURL(z.PaymentRequestURL); err != nil {
			return provider.Settings{}, err
		}
		if pc.StartPaymentURL, err = optionalURL(z.StartPaymentURL); err != nil {
			return provider.Settings{}, err
		}
		if pc.VerifyURL, err = optionalURL(z.VerifyURL); err != nil {
			return provider.Settings{}, err
		}
		if pc.ReverseURL, err = optionalURL(z.ReverseURL); err != nil {
			return provider.Settings{}, err
		}
		if pc.InquiryURL, err = optionalURL(z.InquiryURL); err != nil {
			return provider.Settings{}, err
		}
		s.Zarinpal = &pc
	}
	if z := cfg.Payment.Zibal; z != nil {
		s.Zibal = &provider.ZibalConfig{
			MerchantCode: z.MerchantCode,
			CallbackURL:  callback(provider.BankZibal),
			Timeout:      cfg.Payment.RequestTimeout,
		}
	}
	if i := cfg.Payment.IDPay; i != nil {
		s.IDPay = &provider.IDPayConfig{
			APIKey:      i.APIKey,
			Sandbox:     i.Sandbox,
			CallbackURL: callback(provider.BankIDPay),
			Timeout:     cfg.Payment.RequestTimeout,
		}
	}
	return s, nil
}

func optionalURL(raw string) (httpx.URL, error) {
	if raw == "" {
		return httpx.URL{}, nil
	}
	return httpx.Parse(raw)
}

func configuredBanks(cfg *config.Config) []string {
	var tags []string
	if cfg.Payment.Zarinpal != nil {
		tags = append(tags, provider.BankZarinpal)
	}
	if cfg.Payment.Zibal != nil {
		tags = append(tags, provider.BankZibal)
	}
	if cfg.Payment.IDPay != nil {
		tags = append(tags, provider.BankIDPay)
	}
	return tags
}

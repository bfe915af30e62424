// Command digamber runs the Discord bot and the dashboard REST API in one
// process.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/digamber-in/digamber-bot/internal/api"
	"github.com/digamber-in/digamber-bot/internal/billing"
	"github.com/digamber-in/digamber-bot/internal/bot"
	"github.com/digamber-in/digamber-bot/internal/config"
	"github.com/digamber-in/digamber-bot/internal/delivery"
	"github.com/digamber-in/digamber-bot/internal/metrics"
	"github.com/digamber-in/digamber-bot/internal/store"
)

const auditPurgeInterval = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("fatal error")
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}

	m := metrics.New()
	audit := store.NewAuditStore(db, logger)
	templates := store.NewTemplateStore(db, audit, logger)
	configs := store.NewGuildConfigStore(db, audit, logger)

	var billingClient *billing.Client
	switch billingClient, err = billing.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret, logger); {
	case errors.Is(err, billing.ErrNotConfigured):
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, billing disabled")
		billingClient = nil
	case err != nil:
		return err
	}

	var fetcher store.SubscriptionFetcher
	if billingClient != nil {
		fetcher = billingClient
	}
	premium := store.NewPremiumStore(db, audit, fetcher, logger)

	b, err := bot.New(bot.Config{
		Token:        cfg.DiscordToken,
		Premium:      premium,
		Templates:    templates,
		Configs:      configs,
		Audit:        audit,
		Metrics:      m,
		DashboardURL: cfg.DashboardBaseURL,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	engine := delivery.NewEngine(b.Session, templates, audit, m, logger)
	b.SetEngine(engine)

	apiCfg := api.Config{
		Premium:    premium,
		Templates:  templates,
		Configs:    configs,
		Audit:      audit,
		Engine:     engine,
		Admin:      b.Roles,
		Metrics:    m,
		JWTSecret:  cfg.JWTSecret,
		GuildCount: b.GuildCount,
		Logger:     logger,
	}
	if billingClient != nil {
		apiCfg.Billing = billingClient
		apiCfg.Webhook = billing.NewReconciler(billingClient, billingClient, premium, m, logger).Handler()
	}
	server := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.NewServer(apiCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := b.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.APIAddr).Msg("api listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Stop()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(auditPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				cutoff := time.Now().UTC().AddDate(0, 0, -cfg.AuditRetentionDays)
				if _, err := audit.Purge(ctx, cutoff); err != nil {
					logger.Error().Err(err).Msg("audit purge failed")
				}
			}
		}
	})

	logger.Info().Msg("digamber running")
	err = g.Wait()
	logger.Info().Msg("shutdown complete")
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mstgnz/paybridge/handler"
	"github.com/mstgnz/paybridge/infra/config"
	"github.com/mstgnz/paybridge/infra/events"
	"github.com/mstgnz/paybridge/infra/lock"
	"github.com/mstgnz/paybridge/infra/logger"
	"github.com/mstgnz/paybridge/infra/opensearch"
	"github.com/mstgnz/paybridge/infra/sqlite"
	"github.com/mstgnz/paybridge/infra/store"
	"github.com/mstgnz/paybridge/provider"

	// Import for side-effect registration
	_ "github.com/mstgnz/paybridge/provider/paypal"
	_ "github.com/mstgnz/paybridge/provider/stripe"
)

// app is the wired process: configuration, orchestrators and the
// backends behind them
type app struct {
	cfg       *config.Config
	service   *provider.PaymentService
	providers []string
	audit     handler.AuditReader
	// services names the backend of each supporting service for /health
	services map[string]string
	closers  []func() error
}

// Close releases the backends in reverse order of opening
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openApp loads the configuration and wires every backend it selects
func openApp(ctx context.Context, path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, provider.Wrap(provider.KindInvalidRequest, "load_config", err)
	}

	a := &app{
		cfg:      cfg,
		services: map[string]string{"audit": "", "intents": "memory", "lock": "memory", "events": ""},
	}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg
	opts := provider.Options{
		Retry: provider.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
	}

	// stdout carries command output, logs go to stderr
	logConfig := logger.SystemLoggerConfig{
		EnableConsole: true,
		MinLevel:      logger.ParseLevel(cfg.App.LogLevel),
		Service:       cfg.App.Name,
		Version:       version,
		Environment:   cfg.App.Environment,
		Output:        os.Stderr,
	}
	logger.InitGlobalLogger(nil, logConfig)

	var osLogger *opensearch.Logger
	switch cfg.Audit.Driver {
	case "sqlite":
		audit, err := sqlite.NewAuditLogger(cfg.Audit.SQLitePath)
		if err != nil {
			return provider.Wrap(provider.KindProviderUnavailable, "open_audit", err)
		}
		a.closers = append(a.closers, audit.Close)
		opts.Logger = audit
		a.audit = sqliteAudit{audit}
		a.services["audit"] = "sqlite"
	case "opensearch":
		client, err := opensearch.NewClient(opensearch.Config{
			URL:         cfg.Audit.OpensearchURL,
			Username:    cfg.Audit.OpensearchUser,
			Password:    cfg.Audit.OpensearchPassword,
			IndexPrefix: cfg.App.Name,
		})
		if err != nil {
			return provider.Wrap(provider.KindProviderUnavailable, "open_audit", err)
		}
		client.SetupIndices(ctx, provider.DefaultRegistry.GetProviderNames())
		osLogger = opensearch.NewLogger(client)
		opts.Logger = osLogger
		a.audit = opensearchAudit{logs: osLogger, now: time.Now}
		a.services["audit"] = "opensearch"
	}

	if osLogger != nil && cfg.Audit.SystemLogs {
		logger.InitGlobalLogger(osLogger, logConfig)
	}

	if cfg.Intents.BoltPath != "" {
		intents, err := store.Open(cfg.Intents.BoltPath)
		if err != nil {
			return provider.Wrap(provider.KindProviderUnavailable, "open_intents", err)
		}
		a.closers = append(a.closers, intents.Close)
		opts.Intents = intents
		a.services["intents"] = "bolt"
	}

	if cfg.Lock.RedisAddr != "" {
		locker, rc, err := lock.New(ctx, lock.Config{
			Addr:     cfg.Lock.RedisAddr,
			Password: cfg.Lock.RedisPassword,
			TTL:      cfg.Lock.TTL,
		})
		if err != nil {
			return provider.Wrap(provider.KindProviderUnavailable, "connect_lock", err)
		}
		a.closers = append(a.closers, rc.Close)
		opts.Locker = locker
		a.services["lock"] = "redis"
	}

	if cfg.Events.NatsURL != "" {
		pub, nc, err := events.Connect(events.Config{
			URL:           cfg.Events.NatsURL,
			Name:          cfg.App.Name,
			SubjectPrefix: cfg.Events.SubjectPrefix,
		})
		if err != nil {
			return provider.Wrap(provider.KindProviderUnavailable, "connect_events", err)
		}
		a.closers = append(a.closers, func() error { return nc.Drain() })
		opts.Events = pub
		a.services["events"] = "nats"
	}

	var providers []provider.Provider
	open := func(name string, conf map[string]string) error {
		p, err := provider.Open(ctx, name, conf)
		if err != nil {
			return err
		}
		providers = append(providers, p)
		a.providers = append(a.providers, name)
		logger.Info("Payment provider initialized", logger.LogContext{Provider: name})
		return nil
	}
	if cfg.StripeEnabled() {
		if err := open("stripe", cfg.StripeCredentials()); err != nil {
			return err
		}
	}
	if cfg.PayPalEnabled() {
		if err := open("paypal", cfg.PayPalCredentials()); err != nil {
			return err
		}
	}
	if len(providers) == 0 {
		return provider.NewError(provider.KindProviderUnavailable, "initialize", "no payment provider is configured")
	}

	a.service = provider.NewPaymentService(providers, opts)
	return nil
}

// sqliteAudit exposes the SQLite audit trail to the logs handler
type sqliteAudit struct {
	logs *sqlite.AuditLogger
}

func (s sqliteAudit) RecentErrors(ctx context.Context, providerName string, since time.Time) ([]handler.AuditEntry, error) {
	logs, err := s.logs.RecentErrors(ctx, providerName, since)
	if err != nil {
		return nil, err
	}
	entries := make([]handler.AuditEntry, len(logs))
	for i, l := range logs {
		entries[i] = handler.AuditEntry{
			LogID:        l.LogID,
			Provider:     l.Provider,
			Operation:    l.Operation,
			ErrorKind:    l.ErrorKind,
			ErrorMessage: l.ErrorMessage,
			ProcessingMs: l.ProcessingMs,
			Timestamp:    l.CreatedAt,
		}
	}
	return entries, nil
}

// opensearchAudit exposes the OpenSearch audit trail to the logs handler
type opensearchAudit struct {
	logs *opensearch.Logger
	now  func() time.Time
}

func (o opensearchAudit) RecentErrors(ctx context.Context, providerName string, since time.Time) ([]handler.AuditEntry, error) {
	hours := int(o.now().Sub(since).Hours())
	if hours < 1 {
		hours = 1
	}
	logs, err := o.logs.GetRecentErrorLogs(ctx, providerName, hours)
	if err != nil {
		return nil, fmt.Errorf("search audit errors: %w", err)
	}
	entries := make([]handler.AuditEntry, len(logs))
	for i, l := range logs {
		e := handler.AuditEntry{
			LogID:        l.LogID,
			Provider:     l.Provider,
			Operation:    l.Operation,
			ProcessingMs: l.ProcessingTimeMs,
			Timestamp:    l.Timestamp,
		}
		if l.Error != nil {
			e.ErrorKind = l.Error.Kind
			e.ErrorMessage = l.Error.Message
		}
		entries[i] = e
	}
	return entries, nil
}

package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/seenimoa/companydash/internal/config"
	"github.com/seenimoa/companydash/internal/dashboard"
	"github.com/seenimoa/companydash/internal/infra"
	"github.com/seenimoa/companydash/internal/metrics"
	"github.com/seenimoa/companydash/internal/news"
	"github.com/seenimoa/companydash/internal/provider"
	"github.com/seenimoa/companydash/internal/providers"
	"github.com/seenimoa/companydash/pkg/models"
)

// app holds the wired dashboard service and what must be released on exit.
type app struct {
	svc    *dashboard.Service
	store  infra.Store
	cancel context.CancelFunc
}

// newApp builds the provider registry, the session memo and the dashboard
// service from cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	ctx, cancel := context.WithCancel(ctx)
	a := &app{cancel: cancel}

	if cfg.Session.Enabled {
		store, err := newStore(ctx, cfg.Session)
		if err != nil {
			cancel()
			return nil, err
		}
		a.store = store
	}

	reg := provider.NewRegistry()
	if err := providers.RegisterAllTo(reg, cfg, a.store); err != nil {
		a.Close()
		return nil, err
	}

	rng, err := models.ParseRange(cfg.Dashboard.DefaultRange)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("dashboard.default_range: %w", err)
	}
	view, err := models.ParsePeriodKind(cfg.Dashboard.DefaultView)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("dashboard.default_view: %w", err)
	}

	var headlines dashboard.Headlines
	if cfg.News.Enabled {
		headlines = news.NewFeed(cfg.News.FeedURL, cfg.News.Limit, cfg.Provider.Timeout)
	}

	a.svc = dashboard.New(reg, metrics.New(cfg.Engine), headlines, dashboard.Options{
		DefaultRange:  rng,
		DefaultView:   view,
		DetailPeriods: cfg.Dashboard.DetailPeriods,
		ExportPeriods: cfg.Export.Periods,
	})
	log.Debug().
		Str("source", cfg.Provider.Name).
		Bool("sessions", cfg.Session.Enabled).
		Bool("headlines", cfg.News.Enabled).
		Msg("dashboard service ready")
	return a, nil
}

// Close stops background work and releases the session store.
func (a *app) Close() {
	a.cancel()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("closing session store")
		}
	}
}

func newStore(ctx context.Context, sc config.SessionConfig) (infra.Store, error) {
	switch sc.Store {
	case "redis":
		store, err := infra.NewRedisStore(ctx, sc.RedisURL, "companydash:")
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		return store, nil
	default:
		store := infra.NewMemoryStore()
		interval := sc.TTL / 2
		if interval <= 0 {
			interval = time.Minute
		}
		go store.RunCleanup(ctx, interval)
		return store, nil
	}
}

// splitAddr parses a host:port override, keeping port when addr has none.
func splitAddr(addr string, port int) (string, int) {
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, port
	}
	if n, err := strconv.Atoi(p); err == nil {
		port = n
	}
	return host, port
}

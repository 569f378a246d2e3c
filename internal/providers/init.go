// Package providers creates the concrete market data sources and registers
// them with a provider registry.
package providers

import (
	"github.com/seenimoa/companydash/internal/config"
	"github.com/seenimoa/companydash/internal/infra"
	"github.com/seenimoa/companydash/internal/provider"
	"github.com/seenimoa/companydash/internal/providers/yfinance"
)

// NewYahoo creates the Yahoo Finance source from provider settings.
func NewYahoo(pc config.ProviderConfig) *yfinance.Source {
	return yfinance.New(yfinance.Options{
		BaseURL:   pc.BaseURL,
		UserAgent: pc.UserAgent,
		Timeout:   pc.Timeout,
	})
}

// RegisterAllTo registers every available source with reg. When store is
// non-nil each source is wrapped in a session memo backed by it. The source
// named by cfg.Provider.Name becomes the default.
func RegisterAllTo(reg *provider.Registry, cfg *config.Config, store infra.Store) error {
	// --- YFinance (free, no API key) ---
	var yf provider.Source = NewYahoo(cfg.Provider)
	if store != nil {
		yf = provider.NewMemo(yf, store, cfg.Session.TTL)
	}
	if err := reg.Register(yf); err != nil {
		return err
	}

	if cfg.Provider.Name != "" {
		return reg.SetDefault(cfg.Provider.Name)
	}
	return nil
}

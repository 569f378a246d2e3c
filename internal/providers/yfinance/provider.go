// Package yfinance implements the Yahoo Finance market data source.
// It wraps two public endpoints: v8 chart for daily closes and v10
// quoteSummary for financial statements and key statistics.
//
// Yahoo Finance is a free, no-API-key provider. Nothing here retries or
// caches; each Fetch performs one chart request followed by one
// quoteSummary request.
package yfinance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/seenimoa/companydash/internal/provider"
	"github.com/seenimoa/companydash/pkg/models"
	"github.com/seenimoa/companydash/pkg/utils"
)

const sourceName = "yfinance"

// DefaultBaseURL is Yahoo's public query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Options configures the HTTP client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Source implements provider.Source for Yahoo Finance.
type Source struct {
	client *resty.Client
	now    func() time.Time
}

// New creates a Yahoo Finance source.
func New(opts Options) *Source {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	return &Source{client: client, now: time.Now}
}

// Name returns "yfinance".
func (s *Source) Name() string { return sourceName }

// Fetch retrieves price history and fundamentals for req.Ticker. A failed
// chart request fails the fetch; a failed quoteSummary request leaves the
// statements empty and adds a warning.
func (s *Source) Fetch(ctx context.Context, req provider.Request) (*models.MarketData, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ticker := utils.NormalizeTicker(req.Ticker)
	symbol := utils.ToYahooSymbol(ticker)
	log := zerolog.Ctx(ctx).With().Str("source", sourceName).Str("symbol", symbol).Logger()

	start := s.now()
	prices, meta, err := s.fetchChart(ctx, symbol, req.Range)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("points", len(prices)).Dur("took", s.now().Sub(start)).Msg("chart fetched")

	md := &models.MarketData{
		Ticker:    ticker,
		Prices:    prices,
		Annual:    models.NewStatementSet(models.Annual),
		Quarterly: models.NewStatementSet(models.Quarterly),
		FetchedAt: s.now().UTC(),
	}
	md.Fields.Currency = meta.Currency

	f, err := s.fetchFundamentals(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Msg("fundamentals unavailable")
		md.Warnings = append(md.Warnings, "Financial statements could not be loaded: "+err.Error())
		return md, nil
	}
	md.Annual = f.annual
	md.Quarterly = f.quarterly
	if f.fields.Currency == "" {
		f.fields.Currency = meta.Currency
	}
	md.Fields = f.fields
	md.Warnings = append(md.Warnings, f.warnings...)
	log.Debug().
		Int("annual_periods", len(md.Annual.Income.Periods)).
		Int("quarterly_periods", len(md.Quarterly.Income.Periods)).
		Msg("fundamentals fetched")
	return md, nil
}

// Ping checks connectivity to Yahoo Finance.
func (s *Source) Ping(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"range": "5d", "interval": "1d"}).
		Get("/v8/finance/chart/AAPL")
	if err != nil {
		return fmt.Errorf("yfinance ping: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("yfinance ping: %w", &provider.ErrHTTP{Status: resp.StatusCode(), URL: resp.Request.URL})
	}
	return nil
}

var _ provider.Source = (*Source)(nil)

// Package dashboard assembles everything shown for one ticker: it fetches
// market data, runs the metrics engine and collects headlines and warnings
// into a View that the HTML page, the JSON API, the CLI and the workbook
// export all render from.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/companydash/internal/export"
	"github.com/seenimoa/companydash/internal/metrics"
	"github.com/seenimoa/companydash/internal/provider"
	"github.com/seenimoa/companydash/pkg/models"
	"github.com/seenimoa/companydash/pkg/utils"
)

// DefaultDetailPeriods is the number of raw statement periods shown per kind.
const DefaultDetailPeriods = 5

var (
	// ErrInvalidTicker is returned for input that cannot be a ticker symbol.
	ErrInvalidTicker = errors.New("invalid ticker symbol")
	// ErrInvalidSelection is returned for an unknown range or view.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Headlines fetches recent news for a ticker.
type Headlines interface {
	Headlines(ctx context.Context, ticker string) ([]models.Headline, error)
}

// Options configures a Service.
type Options struct {
	Source        string // registry source name; empty selects the default
	DefaultRange  models.Range
	DefaultView   models.PeriodKind
	DetailPeriods int
	ExportPeriods int
}

// Request is one user selection. Empty Range and View fall back to the
// configured defaults.
type Request struct {
	Ticker string `json:"ticker"`
	Range  string `json:"range,omitempty"`
	View   string `json:"view,omitempty"`
}

// View is the assembled dashboard for one request.
type View struct {
	Ticker    string                 `json:"ticker"`
	Name      string                 `json:"name,omitempty"`
	Currency  string                 `json:"currency,omitempty"`
	Range     models.Range           `json:"range"`
	Kind      models.PeriodKind      `json:"view"`
	Source    string                 `json:"source"`
	FetchedAt time.Time              `json:"fetched_at"`
	Snapshot  *metrics.Snapshot      `json:"snapshot"`
	Prices    models.PriceSeries     `json:"prices"`
	Overview  *metrics.OverviewTable `json:"overview"`
	Details   []models.Statement     `json:"details"`
	Headlines []models.Headline      `json:"headlines,omitempty"`
	Warnings  []string               `json:"warnings,omitempty"`

	fields     models.CompanyFields
	statements models.StatementSet
}

// Service builds dashboard views.
type Service struct {
	registry *provider.Registry
	engine   *metrics.Engine
	news     Headlines
	opts     Options
}

// New creates a Service. news may be nil to disable headlines.
func New(registry *provider.Registry, engine *metrics.Engine, news Headlines, opts Options) *Service {
	if opts.DefaultRange == "" {
		opts.DefaultRange = models.Range5Y
	}
	if opts.DefaultView == "" {
		opts.DefaultView = models.Annual
	}
	if opts.DetailPeriods <= 0 {
		opts.DetailPeriods = DefaultDetailPeriods
	}
	if opts.ExportPeriods <= 0 {
		opts.ExportPeriods = export.DefaultPeriods
	}
	return &Service{registry: registry, engine: engine, news: news, opts: opts}
}

// Defaults returns the range and view used when a request leaves them empty.
func (s *Service) Defaults() (models.Range, models.PeriodKind) {
	return s.opts.DefaultRange, s.opts.DefaultView
}

// Resolve normalizes the ticker and applies the default range and view.
func (s *Service) Resolve(req Request) (provider.Request, error) {
	ticker := utils.NormalizeTicker(req.Ticker)
	if ticker == "" {
		return provider.Request{}, &provider.ErrMissingParam{Param: "ticker"}
	}
	if !utils.IsValidTicker(ticker) {
		return provider.Request{}, fmt.Errorf("%w: %q", ErrInvalidTicker, req.Ticker)
	}

	out := provider.Request{Ticker: ticker, Range: s.opts.DefaultRange, View: s.opts.DefaultView}
	if strings.TrimSpace(req.Range) != "" {
		r, err := models.ParseRange(req.Range)
		if err != nil {
			return provider.Request{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
		}
		out.Range = r
	}
	if strings.TrimSpace(req.View) != "" {
		v, err := models.ParsePeriodKind(req.View)
		if err != nil {
			return provider.Request{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
		}
		out.View = v
	}
	return out, nil
}

// Build fetches and transforms one request. A ticker without price history
// yields a *metrics.NoDataError; every other degradation becomes a warning on
// the returned view.
func (s *Service) Build(ctx context.Context, req Request) (*View, error) {
	preq, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx).With().Str("ticker", preq.Ticker).Str("range", string(preq.Range)).Str("view", string(preq.View)).Logger()

	md, err := s.registry.Fetch(ctx, s.opts.Source, preq)
	if err != nil {
		if errors.Is(err, provider.ErrTickerNotFound) {
			logger.Info().Err(err).Msg("no data for ticker")
			return nil, &metrics.NoDataError{Ticker: preq.Ticker}
		}
		return nil, fmt.Errorf("fetch %s: %w", preq.Ticker, err)
	}

	view, err := s.assemble(preq, md)
	if err != nil {
		return nil, err
	}

	// Headlines are best effort and only requested once market data is in.
	if s.news != nil {
		headlines, err := s.news.Headlines(ctx, preq.Ticker)
		if err != nil {
			logger.Warn().Err(err).Msg("headlines unavailable")
			view.Warnings = append(view.Warnings, "Headlines could not be loaded.")
		}
		view.Headlines = headlines
	}

	logger.Debug().Int("prices", len(view.Prices)).Int("warnings", len(view.Warnings)).Msg("dashboard built")
	return view, nil
}

// assemble runs the metrics engine over fetched data.
func (s *Service) assemble(req provider.Request, md *models.MarketData) (*View, error) {
	set := md.Statements(req.View)

	view := &View{
		Ticker:     req.Ticker,
		Name:       md.Fields.Name,
		Currency:   md.Fields.Currency,
		Range:      req.Range,
		Kind:       req.View,
		FetchedAt:  md.FetchedAt,
		Prices:     md.Prices,
		fields:     md.Fields,
		statements: set,
	}
	if src, err := s.registry.Get(s.opts.Source); err == nil {
		view.Source = src.Name()
	}
	view.Warnings = append(view.Warnings, md.Warnings...)

	trailing := metrics.TrailingQuarters{Income: md.Quarterly.Income, CashFlow: md.Quarterly.CashFlow}
	snap, err := s.engine.ComputeSnapshot(md.Prices, set.Income, set.CashFlow, trailing, md.Fields)
	if err != nil {
		var noData *metrics.NoDataError
		if errors.As(err, &noData) {
			noData.Ticker = req.Ticker
			return nil, noData
		}
		view.Warnings = append(view.Warnings, warning("Some metrics are not available", err))
	}
	view.Snapshot = snap

	table, err := s.engine.BuildOverviewTable(set.Income, set.CashFlow, trailing, req.View)
	if err != nil {
		view.Warnings = append(view.Warnings, warning("Some overview rows are not available", err))
	}
	view.Overview = table

	for _, k := range []models.StatementKind{models.IncomeStatement, models.CashFlowStatement, models.BalanceSheet} {
		view.Details = append(view.Details, set.ByKind(k).Latest(s.opts.DetailPeriods))
	}
	return view, nil
}

// Export builds the view for req and encodes it as a workbook named for today.
func (s *Service) Export(ctx context.Context, req Request, today time.Time) (string, []byte, error) {
	view, err := s.Build(ctx, req)
	if err != nil {
		return "", nil, err
	}
	data, err := export.Encode(view.ExportInput(s.opts.ExportPeriods, today))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("ticker", view.Ticker).Msg("export failed")
		return "", nil, err
	}
	return export.FileName(view.Ticker, today), data, nil
}

// ExportInput converts the view into encoder input.
func (v *View) ExportInput(periods int, generated time.Time) export.Input {
	return export.Input{
		Ticker:      v.Ticker,
		Fields:      v.fields,
		Snapshot:    v.Snapshot,
		Prices:      v.Prices,
		Overview:    v.Overview,
		Statements:  v.statements,
		Periods:     periods,
		GeneratedAt: generated,
	}
}

func warning(prefix string, err error) string {
	var partial *metrics.PartialDataError
	if errors.As(err, &partial) {
		return fmt.Sprintf("%s: %s.", prefix, strings.Join(partial.Missing, ", "))
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}

// Package provider defines the market data source abstraction the dashboard
// fetches through, the errors sources report, and a per-session fetch memo.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seenimoa/companydash/pkg/models"
)

//go:generate mockgen -package=provider_test -destination=mock_source_test.go -source=provider.go Source

// Source retrieves everything the dashboard needs for one ticker.
type Source interface {
	// Name identifies the source, e.g. "yfinance".
	Name() string

	// Fetch returns the price history for req.Range together with annual and
	// quarterly statements and company fields. Failures that only affect
	// fundamentals are reported through MarketData.Warnings rather than err.
	Fetch(ctx context.Context, req Request) (*models.MarketData, error)
}

// Request selects what to fetch.
type Request struct {
	Ticker string            `json:"ticker"`
	Range  models.Range      `json:"range"`
	View   models.PeriodKind `json:"view"`
}

// Validate checks that the request can be sent to a source.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Ticker) == "" {
		return &ErrMissingParam{Param: "ticker"}
	}
	if _, err := models.ParseRange(string(r.Range)); err != nil {
		return err
	}
	if _, err := models.ParsePeriodKind(string(r.View)); err != nil {
		return err
	}
	return nil
}

// ErrTickerNotFound is returned when the source knows nothing about a ticker
// or has no price history for it.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrHTTP is returned when the upstream API answers with a non-2xx status.
type ErrHTTP struct {
	Status int
	URL    string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d for %s", e.Status, e.URL)
}

// ErrMissingParam is returned when a required request field is empty.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

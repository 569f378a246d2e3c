package yfinance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/seenimoa/companydash/internal/provider"
	"github.com/seenimoa/companydash/pkg/models"
)

// fetchChart requests daily closes for symbol over rng.
func (s *Source) fetchChart(ctx context.Context, symbol string, rng models.Range) (models.PriceSeries, yfChartMeta, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":    string(rng),
			"interval": "1d",
		}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, yfChartMeta{}, fmt.Errorf("chart request: %w", err)
	}

	var chart yfChartResponse
	decodeErr := json.Unmarshal(resp.Body(), &chart)
	if decodeErr == nil && chart.Chart.Error.notFound() {
		return nil, yfChartMeta{}, fmt.Errorf("%s: %w", symbol, provider.ErrTickerNotFound)
	}
	if resp.IsError() {
		if resp.StatusCode() == 404 {
			return nil, yfChartMeta{}, fmt.Errorf("%s: %w", symbol, provider.ErrTickerNotFound)
		}
		return nil, yfChartMeta{}, &provider.ErrHTTP{Status: resp.StatusCode(), URL: resp.Request.URL}
	}
	if decodeErr != nil {
		return nil, yfChartMeta{}, fmt.Errorf("parse chart: %w", decodeErr)
	}
	if chart.Chart.Error != nil {
		return nil, yfChartMeta{}, fmt.Errorf("chart error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, yfChartMeta{}, fmt.Errorf("%s: %w", symbol, provider.ErrTickerNotFound)
	}

	res := chart.Chart.Result[0]
	prices := parseCloses(res)
	if len(prices) == 0 {
		return nil, res.Meta, fmt.Errorf("%s: no price history: %w", symbol, provider.ErrTickerNotFound)
	}
	return prices, res.Meta, nil
}

// parseCloses pairs timestamps with closes, skipping null closes. Timestamps
// are shifted by the exchange's GMT offset so each point lands on its local
// trading day.
func parseCloses(res yfChartResult) models.PriceSeries {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	closes := res.Indicators.Quote[0].Close
	points := make([]models.PricePoint, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		local := time.Unix(ts+res.Meta.GMTOffset, 0).UTC()
		points = append(points, models.PricePoint{Date: local, Close: *closes[i]})
	}
	return models.NewPriceSeries(points)
}

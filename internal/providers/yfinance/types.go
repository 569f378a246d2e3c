package yfinance

// --- Yahoo Finance API response types ---

// yfChartResponse wraps the v8 chart API response.
type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol               string  `json:"symbol"`
	Currency             string  `json:"currency"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
	InstrumentType       string  `json:"instrumentType"`
	ExchangeName         string  `json:"exchangeName"`
	ExchangeTimezoneName string  `json:"exchangeTimezoneName"`
	GMTOffset            int64   `json:"gmtoffset"`
}

type yfIndicators struct {
	Quote []yfQuote `json:"quote"`
}

type yfQuote struct {
	Close []*float64 `json:"close"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// notFound reports whether Yahoo's error payload means an unknown symbol.
func (e *yfError) notFound() bool {
	return e != nil && (e.Code == "Not Found" || e.Code == "not found")
}

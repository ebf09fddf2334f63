package valuation

// Asset is one valued position: a derived position joined with market data
// and converted to the reporting currency (USD).
type Asset struct {
	Ticker          string  `json:"ticker"`
	Broker          string  `json:"broker"`
	Quantity        float64 `json:"quantity"`
	Currency        string  `json:"currency"`
	AvgBuyPrice     float64 `json:"avg_buy_price"` // native
	AvgBuyPriceUSD  float64 `json:"avg_buy_price_usd"`
	CurrentPrice    float64 `json:"current_price"` // native
	CurrentPriceUSD float64 `json:"current_price_usd"`
	MarketValueUSD  float64 `json:"market_value_usd"`
	CostBasisUSD    float64 `json:"cost_basis_usd"`
	GainLossUSD     float64 `json:"gain_loss_usd"`
	GainLossPercent float64 `json:"gain_loss_percent"`
	DayChangeUSD    float64 `json:"day_change_usd"`
	Sector          string  `json:"sector,omitempty"`

	// IsUnknown: the provider resolved the symbol to nothing; valued at 0
	// as a worst-case display. IsPending: not fetched yet; valued at cost
	// so the UI never flashes zeros during fetch latency.
	IsUnknown bool `json:"is_unknown"`
	IsPending bool `json:"is_pending"`
}

// Summary aggregates the asset set into portfolio-level totals
type Summary struct {
	TotalValueUSD        float64 `json:"total_value_usd"`
	TotalCostUSD         float64 `json:"total_cost_usd"`
	TotalGainLossUSD     float64 `json:"total_gain_loss_usd"`
	TotalGainLossPercent float64 `json:"total_gain_loss_percent"`
	DayChangeUSD         float64 `json:"day_change_usd"`
	DayChangePercent     float64 `json:"day_change_percent"`
	AssetCount           int     `json:"asset_count"`
	UnknownCount         int     `json:"unknown_count"`
	PendingCount         int     `json:"pending_count"`
}

// AllocationSlice is one segment of an allocation breakdown
type AllocationSlice struct {
	Name     string  `json:"name"`
	ValueUSD float64 `json:"value_usd"`
	Percent  float64 `json:"percent"`
}

// Allocation breaks the portfolio down by ticker and by sector
type Allocation struct {
	ByTicker []AllocationSlice `json:"by_ticker"`
	BySector []AllocationSlice `json:"by_sector"`
}

// BrokerExposure is the per-broker value joined with user-maintained debt.
// Leverage = value / equity; the debt figure itself comes from settings.
type BrokerExposure struct {
	Broker         string  `json:"broker"`
	MarketValueUSD float64 `json:"market_value_usd"`
	Debt           float64 `json:"debt"`
	EquityUSD      float64 `json:"equity_usd"`
	Leverage       float64 `json:"leverage"`
}

// ValuePoint is one day of the portfolio value series
type ValuePoint struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	ValueUSD float64 `json:"value_usd"`
}

// RiskMetrics are the standard statistics over the daily value series
type RiskMetrics struct {
	Volatility       float64 `json:"volatility"`        // annualized
	AnnualizedReturn float64 `json:"annualized_return"` // mean daily return * 252
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`     // positive fraction
	CurrentDrawdown  float64 `json:"current_drawdown"` // distance of the latest value from the peak
}

// Performance bundles the value series with risk and trend statistics
type Performance struct {
	Series []ValuePoint `json:"series"`
	Risk   RiskMetrics  `json:"risk"`
	SMA30  *float64     `json:"sma_30,omitempty"`
	RSI14  *float64     `json:"rsi_14,omitempty"`
}

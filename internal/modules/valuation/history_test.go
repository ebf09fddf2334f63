package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/foliotrack/internal/clients/yahoo"
	"github.com/aristath/foliotrack/internal/marketdata"
	"github.com/aristath/foliotrack/internal/modules/ledger"
)

func closes(points ...yahoo.ClosePrice) []yahoo.ClosePrice { return points }

func closeOn(date string, price float64) yahoo.ClosePrice {
	parsed, _ := time.Parse("2006-01-02", date)
	return yahoo.ClosePrice{Date: parsed, Close: price}
}

func TestBuildValueSeriesBasic(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ops := []ledger.Operation{addOp("1", "AAPL", 10, 100, "2024-01-02", base)}

	markets := &stubMarkets{
		snapshots: map[string]*marketdata.Snapshot{
			"AAPL": {Symbol: "AAPL", Price: 110, Currency: "USD", History: closes(
				closeOn("2024-01-01", 100),
				closeOn("2024-01-02", 105),
				closeOn("2024-01-03", 110),
			)},
		},
		known: map[string]bool{"AAPL": true},
	}

	series := BuildValueSeries(ops, markets, &stubRates{})

	// 2024-01-01 is before the position existed: zero total, dropped.
	require.Len(t, series, 2)
	assert.Equal(t, "2024-01-02", series[0].Date)
	assert.InDelta(t, 1050.0, series[0].ValueUSD, 1e-9)
	assert.Equal(t, "2024-01-03", series[1].Date)
	assert.InDelta(t, 1100.0, series[1].ValueUSD, 1e-9)
}

func TestBuildValueSeriesCarryForwardPricing(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	// Two tickers whose histories cover different dates: MSFT has no close on
	// 2024-01-03, so its last known close carries forward into that day.
	ops := []ledger.Operation{
		addOp("1", "AAPL", 10, 100, "2024-01-01", base),
		addOp("2", "MSFT", 5, 300, "2024-01-01", base.Add(time.Hour)),
	}

	markets := &stubMarkets{
		snapshots: map[string]*marketdata.Snapshot{
			"AAPL": {Symbol: "AAPL", Price: 110, Currency: "USD", History: closes(
				closeOn("2024-01-02", 100),
				closeOn("2024-01-03", 110),
			)},
			"MSFT": {Symbol: "MSFT", Price: 310, Currency: "USD", History: closes(
				closeOn("2024-01-02", 300),
			)},
		},
		known: map[string]bool{"AAPL": true, "MSFT": true},
	}

	series := BuildValueSeries(ops, markets, &stubRates{})

	require.Len(t, series, 2)
	assert.InDelta(t, 10*100+5*300.0, series[0].ValueUSD, 1e-9)
	// MSFT still valued at its 2024-01-02 close.
	assert.InDelta(t, 10*110+5*300.0, series[1].ValueUSD, 1e-9)
}

func TestBuildValueSeriesReplayFollowsTrades(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ops := []ledger.Operation{
		addOp("1", "AAPL", 10, 100, "2024-01-01", base),
		{
			ID: "2", Type: ledger.OperationRemove, Ticker: "AAPL",
			Quantity: 6, Price: 120, Currency: "USD",
			Date: "2024-01-03", CreatedAt: base.Add(time.Hour),
		},
	}

	markets := &stubMarkets{
		snapshots: map[string]*marketdata.Snapshot{
			"AAPL": {Symbol: "AAPL", Price: 120, Currency: "USD", History: closes(
				closeOn("2024-01-02", 110),
				closeOn("2024-01-04", 120),
			)},
		},
		known: map[string]bool{"AAPL": true},
	}

	series := BuildValueSeries(ops, markets, &stubRates{})

	require.Len(t, series, 2)
	assert.InDelta(t, 10*110.0, series[0].ValueUSD, 1e-9)
	// After the sale only 4 shares remain.
	assert.InDelta(t, 4*120.0, series[1].ValueUSD, 1e-9)
}

func TestBuildValueSeriesConvertsCurrency(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ops := []ledger.Operation{addOp("1", "ASML", 2, 500, "2024-01-01", base)}

	markets := &stubMarkets{
		snapshots: map[string]*marketdata.Snapshot{
			"ASML": {Symbol: "ASML", Price: 600, Currency: "EUR", History: closes(
				closeOn("2024-01-02", 600),
			)},
		},
		known: map[string]bool{"ASML": true},
	}
	rates := &stubRates{rates: map[string]float64{"EURUSD": 1.10}}

	series := BuildValueSeries(ops, markets, rates)

	require.Len(t, series, 1)
	assert.InDelta(t, 2*600*1.10, series[0].ValueUSD, 1e-9)
}

func TestBuildValueSeriesPendingTickersSkipped(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ops := []ledger.Operation{
		addOp("1", "AAPL", 10, 100, "2024-01-01", base),
		addOp("2", "SLOW", 10, 100, "2024-01-01", base.Add(time.Hour)),
	}

	// SLOW has not been fetched yet: it contributes no dates and no value.
	markets := &stubMarkets{
		snapshots: map[string]*marketdata.Snapshot{
			"AAPL": {Symbol: "AAPL", Price: 110, Currency: "USD", History: closes(
				closeOn("2024-01-02", 110),
			)},
		},
		known: map[string]bool{"AAPL": true},
	}

	series := BuildValueSeries(ops, markets, &stubRates{})

	require.Len(t, series, 1)
	assert.InDelta(t, 10*110.0, series[0].ValueUSD, 1e-9)
}

func TestPerformanceRiskMetrics(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ops := []ledger.Operation{addOp("1", "AAPL", 1, 100, "2024-01-01", base)}

	markets := &stubMarkets{
		snapshots: map[string]*marketdata.Snapshot{
			"AAPL": {Symbol: "AAPL", Price: 120, Currency: "USD", History: closes(
				closeOn("2024-01-02", 100),
				closeOn("2024-01-03", 110),
				closeOn("2024-01-04", 90),
				closeOn("2024-01-05", 120),
			)},
		},
		known: map[string]bool{"AAPL": true},
	}

	svc := newTestService(ops, markets, &stubRates{}, nil)
	perf := svc.Performance()

	require.Len(t, perf.Series, 4)

	// Deepest trough: 90 against the 110 peak.
	assert.InDelta(t, 20.0/110.0, perf.Risk.MaxDrawdown, 1e-9)
	// The series closes on a new high, so the current drawdown is zero.
	assert.InDelta(t, 0.0, perf.Risk.CurrentDrawdown, 1e-9)

	// Four points are nowhere near the 30 and 14 sample windows.
	assert.Nil(t, perf.SMA30)
	assert.Nil(t, perf.RSI14)
}

package valuation

import (
	"sort"

	"github.com/aristath/foliotrack/internal/modules/ledger"
	"github.com/aristath/foliotrack/internal/modules/positions"
	"github.com/aristath/foliotrack/pkg/formulas"
)

type pricePoint struct {
	date  string // YYYY-MM-DD
	close float64
}

type tickerHistory struct {
	currency string
	prices   []pricePoint // ascending by date
}

// ValueSeries reconstructs the daily portfolio value in USD: for every date
// any tracked ticker has a close, replay the ledger up to that date and
// value the holdings at the closest close on or before it.
func (s *Service) ValueSeries() []ValuePoint {
	state := s.tracker.Snapshot()
	return BuildValueSeries(state.Operations, s.markets, s.rates)
}

// BuildValueSeries is the pure form of ValueSeries, exposed for tests.
//
// Holdings replay is quantity-only (cost basis is irrelevant to a value
// curve) and ignores the broker split. Dates before the first position
// existed produce a zero total and are dropped.
func BuildValueSeries(ops []ledger.Operation, markets Markets, rates Rates) []ValuePoint {
	ordered := ledger.SortForReplay(ledger.NormalizeAll(ops))

	histories := make(map[string]tickerHistory)
	dateSet := make(map[string]bool)

	for _, ticker := range distinctTickers(ordered) {
		snap, known := markets.Get(ticker)
		if !known || snap == nil || len(snap.History) == 0 {
			continue
		}

		history := tickerHistory{currency: snap.Currency}
		for _, point := range snap.History {
			date := point.Date.Format("2006-01-02")
			history.prices = append(history.prices, pricePoint{date: date, close: point.Close})
			dateSet[date] = true
		}

		sort.Slice(history.prices, func(i, j int) bool {
			return history.prices[i].date < history.prices[j].date
		})

		histories[ticker] = history
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	holdings := make(map[string]float64)
	opIndex := 0

	var series []ValuePoint
	for _, date := range dates {
		// Advance the replay cursor through everything traded on or before
		// this date.
		for opIndex < len(ordered) && ordered[opIndex].Date <= date {
			op := ordered[opIndex]
			switch op.Type {
			case ledger.OperationAdd:
				holdings[op.Ticker] += op.Quantity
			case ledger.OperationRemove:
				holdings[op.Ticker] -= op.Quantity
				if holdings[op.Ticker] < 0 {
					holdings[op.Ticker] = 0
				}
			}
			opIndex++
		}

		total := 0.0
		for ticker, quantity := range holdings {
			if quantity <= positions.Epsilon {
				continue
			}

			history, ok := histories[ticker]
			if !ok {
				continue
			}

			price, ok := priceOnOrBefore(history.prices, date)
			if !ok {
				continue
			}

			total += quantity * price * rates.Rate(history.currency, "USD")
		}

		if total == 0 {
			continue
		}

		series = append(series, ValuePoint{Date: date, ValueUSD: total})
	}

	return series
}

// priceOnOrBefore finds the most recent close at or before the date
// (carry-forward pricing across gaps and holidays)
func priceOnOrBefore(prices []pricePoint, date string) (float64, bool) {
	idx := sort.Search(len(prices), func(i int) bool {
		return prices[i].date > date
	})

	if idx == 0 {
		return 0, false
	}

	return prices[idx-1].close, true
}

func distinctTickers(ops []ledger.Operation) []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, op := range ops {
		if !seen[op.Ticker] {
			seen[op.Ticker] = true
			tickers = append(tickers, op.Ticker)
		}
	}
	return tickers
}

// Performance computes the value series plus the risk and trend statistics
// over it. Raw engine output: no smoothing, no winsorization, so a bad
// upstream print flows straight into volatility and drawdown.
func (s *Service) Performance() Performance {
	series := s.ValueSeries()

	values := make([]float64, len(series))
	for i, point := range series {
		values[i] = point.ValueUSD
	}

	returns := formulas.DailyReturns(values)
	volatility := formulas.AnnualizedVolatility(returns)
	annualized := formulas.AnnualizedReturn(returns)

	return Performance{
		Series: series,
		Risk: RiskMetrics{
			Volatility:       volatility,
			AnnualizedReturn: annualized,
			SharpeRatio:      formulas.SharpeRatio(annualized, volatility, s.riskFreeRate),
			MaxDrawdown:      formulas.MaxDrawdown(values),
			CurrentDrawdown:  formulas.CurrentDrawdown(values),
		},
		SMA30: formulas.SMA(values, 30),
		RSI14: formulas.RSI(values, 14),
	}
}

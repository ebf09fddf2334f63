package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/foliotrack/internal/marketdata"
)

// TickerSource supplies the symbols currently present in the ledger
type TickerSource interface {
	Tickers() []string
}

// MarketRefreshJob periodically refreshes market data for every tracked
// ticker. Fetching is batched inside the service; a failed run leaves the
// cache as it was and the next run simply tries again (no retries).
type MarketRefreshJob struct {
	market  *marketdata.Service
	tickers TickerSource
	log     zerolog.Logger
}

// NewMarketRefreshJob creates a new market refresh job
func NewMarketRefreshJob(market *marketdata.Service, tickers TickerSource, log zerolog.Logger) *MarketRefreshJob {
	return &MarketRefreshJob{
		market:  market,
		tickers: tickers,
		log:     log.With().Str("job", "market_refresh").Logger(),
	}
}

// Name returns the job name
func (j *MarketRefreshJob) Name() string {
	return "market_refresh"
}

// Run refreshes all tracked tickers
func (j *MarketRefreshJob) Run() error {
	symbols := j.tickers.Tickers()
	if len(symbols) == 0 {
		j.log.Debug().Msg("No tickers to refresh")
		return nil
	}

	j.log.Info().Int("symbols", len(symbols)).Msg("Refreshing market data")
	j.market.Refresh(symbols)

	return nil
}

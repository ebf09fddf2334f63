package realized

// Stats are aggregate statistics over the closed-trade set. All of them are
// plain reductions; nothing here re-runs the matcher.
type Stats struct {
	TotalTrades        int          `json:"total_trades"`
	Wins               int          `json:"wins"`
	Losses             int          `json:"losses"`
	WinRate            float64      `json:"win_rate"` // percent of trades with positive PnL
	TotalRealizedUSD   float64      `json:"total_realized_usd"`
	AvgRealizedPercent float64      `json:"avg_realized_percent"`
	BestTrade          *ClosedTrade `json:"best_trade,omitempty"`
	WorstTrade         *ClosedTrade `json:"worst_trade,omitempty"`
}

// ComputeStats reduces a closed-trade set into aggregate statistics
func ComputeStats(trades []ClosedTrade) Stats {
	stats := Stats{TotalTrades: len(trades)}

	if len(trades) == 0 {
		return stats
	}

	var percentSum float64

	for i := range trades {
		trade := &trades[i]

		stats.TotalRealizedUSD += trade.RealizedPnLUSD
		percentSum += trade.RealizedPnLPercent

		if trade.RealizedPnLUSD > 0 {
			stats.Wins++
		} else if trade.RealizedPnLUSD < 0 {
			stats.Losses++
		}

		if stats.BestTrade == nil || trade.RealizedPnLUSD > stats.BestTrade.RealizedPnLUSD {
			stats.BestTrade = trade
		}
		if stats.WorstTrade == nil || trade.RealizedPnLUSD < stats.WorstTrade.RealizedPnLUSD {
			stats.WorstTrade = trade
		}
	}

	stats.WinRate = float64(stats.Wins) / float64(len(trades)) * 100
	stats.AvgRealizedPercent = percentSum / float64(len(trades))

	return stats
}

package realized

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	trades := []ClosedTrade{
		{ID: "a", RealizedPnLUSD: 500, RealizedPnLPercent: 50},
		{ID: "b", RealizedPnLUSD: -100, RealizedPnLPercent: -10},
		{ID: "c", RealizedPnLUSD: 60, RealizedPnLPercent: 25},
		{ID: "d", RealizedPnLUSD: 0, RealizedPnLPercent: 0},
	}

	stats := ComputeStats(trades)

	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)
	assert.InDelta(t, 460.0, stats.TotalRealizedUSD, 1e-9)
	assert.InDelta(t, 16.25, stats.AvgRealizedPercent, 1e-9)

	require.NotNil(t, stats.BestTrade)
	require.NotNil(t, stats.WorstTrade)
	assert.Equal(t, "a", stats.BestTrade.ID)
	assert.Equal(t, "b", stats.WorstTrade.ID)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)

	assert.Equal(t, 0, stats.TotalTrades)
	assert.InDelta(t, 0.0, stats.WinRate, 1e-9)
	assert.Nil(t, stats.BestTrade)
	assert.Nil(t, stats.WorstTrade)
}

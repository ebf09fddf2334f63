package formulas

import (
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	sma := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if sma == nil {
		t.Fatal("SMA returned nil for a sufficient series")
	}
	if math.Abs(*sma-4.0) > 1e-9 {
		t.Errorf("SMA = %v, want 4 (mean of last three values)", *sma)
	}
}

func TestSMAInsufficientData(t *testing.T) {
	if SMA([]float64{1, 2}, 3) != nil {
		t.Error("SMA should be nil when the series is shorter than the period")
	}
	if SMA([]float64{1, 2, 3}, 1) != nil {
		t.Error("SMA should be nil for a degenerate period")
	}
}

func TestRSIMonotonicGains(t *testing.T) {
	// All gains and no losses saturate the index at 100.
	rsi := RSI([]float64{1, 2, 3, 4, 5, 6}, 3)
	if rsi == nil {
		t.Fatal("RSI returned nil for a sufficient series")
	}
	if math.Abs(*rsi-100.0) > 1e-6 {
		t.Errorf("RSI = %v, want 100", *rsi)
	}
}

func TestRSIInsufficientData(t *testing.T) {
	if RSI([]float64{1, 2, 3}, 14) != nil {
		t.Error("RSI should be nil when the series is shorter than period+1")
	}
}

package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA returns the latest simple moving average of the series over the given
// period, or nil if the series is too short
func SMA(values []float64, period int) *float64 {
	if len(values) < period || period < 2 {
		return nil
	}

	sma := talib.Sma(values, period)
	if len(sma) == 0 {
		return nil
	}

	last := sma[len(sma)-1]
	if isNaN(last) {
		return nil
	}

	return &last
}

// RSI returns the latest Relative Strength Index (0-100) of the series over
// the given period, or nil if the series is too short
func RSI(values []float64, period int) *float64 {
	if len(values) < period+1 {
		return nil
	}

	rsi := talib.Rsi(values, period)
	if len(rsi) == 0 {
		return nil
	}

	last := rsi[len(rsi)-1]
	if isNaN(last) {
		return nil
	}

	return &last
}

func isNaN(f float64) bool {
	return f != f
}

package formulas

// MaxDrawdown calculates the maximum peak-to-trough loss of a value series:
//
//	Drawdown = (Peak So Far - Value) / Peak So Far
//
// The peak starts at the first value. Result is a positive fraction
// (0.25 = 25% below the peak); an empty or rising series yields 0.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, value := range values {
		if value > peak {
			peak = value
		}

		if peak > 0 {
			drawdown := (peak - value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// CurrentDrawdown calculates how far the last value sits below the series
// peak
func CurrentDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	for _, value := range values {
		if value > peak {
			peak = value
		}
	}

	if peak <= 0 {
		return 0
	}

	return (peak - values[len(values)-1]) / peak
}

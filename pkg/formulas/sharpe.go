package formulas

// DefaultRiskFreeRate is the annual risk-free rate used when none is
// configured (2%)
const DefaultRiskFreeRate = 0.02

// SharpeRatio calculates the risk-adjusted return:
//
//	Sharpe = (Annualized Return - Risk-free Rate) / Annualized Volatility
//
// Returns 0 when volatility is 0 (a flat series has no meaningful Sharpe).
func SharpeRatio(annualizedReturn, volatility, riskFreeRate float64) float64 {
	if volatility == 0 {
		return 0
	}
	return (annualizedReturn - riskFreeRate) / volatility
}

package settings

// Broker is a brokerage account the user splits positions across. Debt is
// the user-maintained margin debt for that account; the core only reads it
// to display leverage, it never computes it.
type Broker struct {
	Name string  `json:"name"`
	Debt float64 `json:"debt"`
}

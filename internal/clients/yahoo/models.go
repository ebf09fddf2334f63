package yahoo

import "time"

// Quote is the current-market snapshot for one symbol
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	ChangePercent float64 `json:"change_percent"`
	Sector        string  `json:"sector,omitempty"`
	ShortName     string  `json:"short_name,omitempty"`
}

// ClosePrice is a single point of a daily close series
type ClosePrice struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// SearchResult is one symbol-lookup match
type SearchResult struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

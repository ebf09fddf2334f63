package positions

import (
	"sort"

	"github.com/aristath/foliotrack/internal/modules/ledger"
)

// Epsilon below which a derived quantity counts as zero. Floating-point
// residue from partial sells must not keep a closed position alive.
const Epsilon = 1e-6

// Position is the derived open holding for a (ticker, broker) pair. It has
// no lifecycle of its own: it is recomputed from the full ledger on every
// change.
type Position struct {
	Ticker         string  `json:"ticker"`
	Broker         string  `json:"broker"`
	Quantity       float64 `json:"quantity"`
	AvgBuyPrice    float64 `json:"avg_buy_price"` // native currency, quantity-weighted
	AvgBuyPriceUSD float64 `json:"avg_buy_price_usd"`
	BuyDate        string  `json:"buy_date"` // date of the oldest open lot
	Currency       string  `json:"currency"`
}

// Key identifies the position in the derived map
func (p Position) Key() string {
	return p.Ticker + "|" + p.Broker
}

// Derive replays the full operation log into the set of currently active
// positions using weighted-average cost basis. Selling never moves the
// average price; an ADD into a flat position restarts the buy date.
//
// Returns the active positions (quantity above Epsilon) sorted by key, plus
// a warning for every REMOVE that exceeded the quantity available.
func Derive(ops []ledger.Operation) ([]Position, []ledger.OversellWarning) {
	ordered := ledger.SortForReplay(ledger.NormalizeAll(ops))

	book := make(map[string]*Position)
	var warnings []ledger.OversellWarning

	for _, op := range ordered {
		key := op.Ticker + "|" + op.Broker

		pos, ok := book[key]
		if !ok {
			pos = &Position{
				Ticker:   op.Ticker,
				Broker:   op.Broker,
				Currency: op.Currency,
			}
			book[key] = pos
		}

		switch op.Type {
		case ledger.OperationAdd:
			if pos.Quantity <= Epsilon {
				// Reopened from flat: this lot starts a fresh holding period.
				pos.Quantity = 0
				pos.BuyDate = op.Date
				pos.AvgBuyPrice = 0
				pos.AvgBuyPriceUSD = 0
			}

			newQty := pos.Quantity + op.Quantity
			pos.AvgBuyPrice = (pos.Quantity*pos.AvgBuyPrice + op.Quantity*op.Price) / newQty
			pos.AvgBuyPriceUSD = (pos.Quantity*pos.AvgBuyPriceUSD + op.Quantity*op.PriceInUSD) / newQty
			pos.Quantity = newQty
			pos.Currency = op.Currency

		case ledger.OperationRemove:
			if op.Quantity > pos.Quantity+Epsilon {
				warnings = append(warnings, ledger.OversellWarning{
					OperationID: op.ID,
					Ticker:      op.Ticker,
					Broker:      op.Broker,
					Date:        op.Date,
					Requested:   op.Quantity,
					Available:   pos.Quantity,
				})
			}

			pos.Quantity -= op.Quantity
			if pos.Quantity < 0 {
				pos.Quantity = 0
			}
		}
	}

	var active []Position
	for _, pos := range book {
		if pos.Quantity > Epsilon {
			active = append(active, *pos)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].Key() < active[j].Key()
	})

	return active, warnings
}

// ByTicker folds broker-level positions into per-ticker totals, weighting
// the average buy prices by quantity.
func ByTicker(positions []Position) []Position {
	byTicker := make(map[string]*Position)

	for _, pos := range positions {
		agg, ok := byTicker[pos.Ticker]
		if !ok {
			byTicker[pos.Ticker] = &Position{
				Ticker:         pos.Ticker,
				Quantity:       pos.Quantity,
				AvgBuyPrice:    pos.AvgBuyPrice,
				AvgBuyPriceUSD: pos.AvgBuyPriceUSD,
				BuyDate:        pos.BuyDate,
				Currency:       pos.Currency,
			}
			continue
		}

		newQty := agg.Quantity + pos.Quantity
		agg.AvgBuyPrice = (agg.Quantity*agg.AvgBuyPrice + pos.Quantity*pos.AvgBuyPrice) / newQty
		agg.AvgBuyPriceUSD = (agg.Quantity*agg.AvgBuyPriceUSD + pos.Quantity*pos.AvgBuyPriceUSD) / newQty
		agg.Quantity = newQty
		if pos.BuyDate != "" && (agg.BuyDate == "" || pos.BuyDate < agg.BuyDate) {
			agg.BuyDate = pos.BuyDate
		}
	}

	var result []Position
	for _, pos := range byTicker {
		result = append(result, *pos)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticker < result[j].Ticker
	})

	return result
}

package realized

import (
	"fmt"
	"sort"

	"github.com/aristath/foliotrack/internal/modules/ledger"
)

// Lot is a still-open purchase, waiting in a per-ticker FIFO queue. It only
// lives for the duration of a replay.
type lot struct {
	quantity    float64
	priceNative float64
	priceUSD    float64
	currency    string
	openDate    string
}

// ClosedTrade is one REMOVE matched against one lot (or part of one). A
// single sale that spans several lots emits several trades.
type ClosedTrade struct {
	ID                 string  `json:"id"`
	Ticker             string  `json:"ticker"`
	OpenDate           string  `json:"open_date"`
	CloseDate          string  `json:"close_date"`
	Quantity           float64 `json:"quantity"`
	EntryPriceNative   float64 `json:"entry_price_native"`
	ExitPriceNative    float64 `json:"exit_price_native"`
	EntryPriceUSD      float64 `json:"entry_price_usd"`
	ExitPriceUSD       float64 `json:"exit_price_usd"`
	Currency           string  `json:"currency"`
	RealizedPnLUSD     float64 `json:"realized_pnl_usd"`
	RealizedPnLPercent float64 `json:"realized_pnl_percent"`
}

// Match replays the full operation log with FIFO lot matching and returns
// every closed trade, newest close first.
//
// Trade identity is a pure function of ledger content (REMOVE id, matched
// lot's open date, split sequence), so replaying an unchanged ledger yields
// byte-identical output. A REMOVE that outruns the open lots loses its
// unmatched remainder; that surplus is reported as a warning, not a trade.
func Match(ops []ledger.Operation) ([]ClosedTrade, []ledger.OversellWarning) {
	ordered := ledger.SortForReplay(ledger.NormalizeAll(ops))

	queues := make(map[string][]lot)
	var trades []ClosedTrade
	var warnings []ledger.OversellWarning

	for _, op := range ordered {
		switch op.Type {
		case ledger.OperationAdd:
			queues[op.Ticker] = append(queues[op.Ticker], lot{
				quantity:    op.Quantity,
				priceNative: op.Price,
				priceUSD:    op.PriceInUSD,
				currency:    op.Currency,
				openDate:    op.Date,
			})

		case ledger.OperationRemove:
			queue := queues[op.Ticker]
			toClose := op.Quantity
			seq := 0

			for toClose > 0 && len(queue) > 0 {
				head := &queue[0]

				matched := head.quantity
				if matched > toClose {
					matched = toClose
				}

				trades = append(trades, closeAgainstLot(op, *head, matched, seq))
				seq++

				head.quantity -= matched
				toClose -= matched

				if head.quantity <= 0 {
					queue = queue[1:]
				}
			}

			queues[op.Ticker] = queue

			if toClose > 0 {
				warnings = append(warnings, ledger.OversellWarning{
					OperationID: op.ID,
					Ticker:      op.Ticker,
					Date:        op.Date,
					Requested:   op.Quantity,
					Available:   op.Quantity - toClose,
				})
			}
		}
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].CloseDate > trades[j].CloseDate
	})

	return trades, warnings
}

func closeAgainstLot(op ledger.Operation, l lot, quantity float64, seq int) ClosedTrade {
	pnlUSD := (op.PriceInUSD - l.priceUSD) * quantity

	pnlPercent := 0.0
	if l.priceUSD != 0 {
		pnlPercent = pnlUSD / (l.priceUSD * quantity) * 100
	}

	return ClosedTrade{
		ID:                 fmt.Sprintf("%s:%s:%d", op.ID, l.openDate, seq),
		Ticker:             op.Ticker,
		OpenDate:           l.openDate,
		CloseDate:          op.Date,
		Quantity:           quantity,
		EntryPriceNative:   l.priceNative,
		ExitPriceNative:    op.Price,
		EntryPriceUSD:      l.priceUSD,
		ExitPriceUSD:       op.PriceInUSD,
		Currency:           l.currency,
		RealizedPnLUSD:     pnlUSD,
		RealizedPnLPercent: pnlPercent,
	}
}

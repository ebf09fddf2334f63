package portfolio

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/foliotrack/internal/events"
	"github.com/aristath/foliotrack/internal/modules/ledger"
	"github.com/aristath/foliotrack/internal/modules/positions"
	"github.com/aristath/foliotrack/internal/modules/realized"
)

// State is the derived read model: everything downstream of the ledger,
// rebuilt from scratch on every change. Consumers get a consistent pointer;
// the tracker never mutates a published state.
type State struct {
	Operations   []ledger.Operation
	Positions    []positions.Position
	ClosedTrades []realized.ClosedTrade
	TradeStats   realized.Stats
	Warnings     []ledger.OversellWarning
}

// Tracker subscribes to the ledger and keeps the derived state current.
// Recompute-from-scratch is the correctness guarantee here: edits, deletes
// and backdated entries all come out right because nothing incremental is
// kept between notifications.
type Tracker struct {
	log    zerolog.Logger
	events *events.Manager

	mu    sync.RWMutex
	state *State
}

// NewTracker creates a new tracker with an empty state
func NewTracker(log zerolog.Logger, evts *events.Manager) *Tracker {
	return &Tracker{
		log:    log.With().Str("service", "tracker").Logger(),
		events: evts,
		state:  &State{},
	}
}

// Rebuild recomputes the full derived state from a ledger snapshot. It is
// the subscription callback registered with the ledger repository.
func (t *Tracker) Rebuild(ops []ledger.Operation) {
	derived, posWarnings := positions.Derive(ops)
	trades, fifoWarnings := realized.Match(ops)

	warnings := mergeWarnings(posWarnings, fifoWarnings)

	state := &State{
		Operations:   ops,
		Positions:    derived,
		ClosedTrades: trades,
		TradeStats:   realized.ComputeStats(trades),
		Warnings:     warnings,
	}

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	t.log.Debug().
		Int("operations", len(ops)).
		Int("positions", len(derived)).
		Int("closed_trades", len(trades)).
		Msg("Derived state rebuilt")

	if t.events != nil {
		t.events.Emit(events.StateRecomputed, "portfolio", map[string]interface{}{
			"operations":    len(ops),
			"positions":     len(derived),
			"closed_trades": len(trades),
		})

		for _, warning := range warnings {
			t.events.Emit(events.OversellDetected, "portfolio", map[string]interface{}{
				"operation_id": warning.OperationID,
				"ticker":       warning.Ticker,
				"requested":    warning.Requested,
				"available":    warning.Available,
			})
		}
	}
}

// Snapshot returns the current derived state
func (t *Tracker) Snapshot() *State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Tickers returns the distinct tickers present anywhere in the ledger,
// including fully closed ones (closed trades still need their history).
func (t *Tracker) Tickers() []string {
	state := t.Snapshot()

	seen := make(map[string]bool)
	var tickers []string
	for _, op := range state.Operations {
		if !seen[op.Ticker] {
			seen[op.Ticker] = true
			tickers = append(tickers, op.Ticker)
		}
	}

	return tickers
}

// mergeWarnings deduplicates oversell warnings reported by both engines for
// the same REMOVE. The broker-aware variant from the position deriver wins.
func mergeWarnings(posWarnings, fifoWarnings []ledger.OversellWarning) []ledger.OversellWarning {
	seen := make(map[string]bool)
	var merged []ledger.OversellWarning

	for _, w := range posWarnings {
		seen[w.OperationID] = true
		merged = append(merged, w)
	}
	for _, w := range fifoWarnings {
		if !seen[w.OperationID] {
			merged = append(merged, w)
		}
	}

	return merged
}

package portfolio

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/foliotrack/internal/modules/ledger"
	"github.com/aristath/foliotrack/internal/modules/positions"
	"github.com/aristath/foliotrack/internal/modules/realized"
)

// Handler serves the derived ledger views: open positions, closed trades,
// trade statistics and data-integrity warnings.
type Handler struct {
	tracker *Tracker
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(tracker *Tracker, log zerolog.Logger) *Handler {
	return &Handler{
		tracker: tracker,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// Routes mounts the derived-state routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/positions", h.HandlePositions)
	r.Get("/trades", h.HandleTrades)
	r.Get("/trades/stats", h.HandleTradeStats)
	r.Get("/warnings", h.HandleWarnings)
}

// HandlePositions returns the currently active positions. Default is the
// (ticker, broker) split; ?group=ticker folds brokers into per-ticker totals.
func (h *Handler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	state := h.tracker.Snapshot()

	result := state.Positions
	if r.URL.Query().Get("group") == "ticker" {
		result = positions.ByTicker(result)
	}
	if result == nil {
		result = []positions.Position{}
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleTrades returns closed trades, newest close first
func (h *Handler) HandleTrades(w http.ResponseWriter, r *http.Request) {
	state := h.tracker.Snapshot()

	trades := state.ClosedTrades
	if trades == nil {
		trades = []realized.ClosedTrade{}
	}

	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if limit, err := strconv.Atoi(limitParam); err == nil && limit > 0 && limit < len(trades) {
			trades = trades[:limit]
		}
	}

	h.writeJSON(w, http.StatusOK, trades)
}

// HandleTradeStats returns aggregate realized-P&L statistics
func (h *Handler) HandleTradeStats(w http.ResponseWriter, r *http.Request) {
	state := h.tracker.Snapshot()
	h.writeJSON(w, http.StatusOK, state.TradeStats)
}

// HandleWarnings returns oversell warnings from the latest replay
func (h *Handler) HandleWarnings(w http.ResponseWriter, r *http.Request) {
	state := h.tracker.Snapshot()

	warnings := state.Warnings
	if warnings == nil {
		warnings = []ledger.OversellWarning{}
	}

	h.writeJSON(w, http.StatusOK, warnings)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

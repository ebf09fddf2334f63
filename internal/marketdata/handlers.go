package marketdata

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/foliotrack/internal/clients/yahoo"
)

// Tickers supplies the symbols currently worth refreshing (everything that
// appears in the ledger). Implemented by the portfolio tracker.
type Tickers interface {
	Tickers() []string
}

// RefreshTrigger runs a full refresh of the tracked tickers. Wired to the
// scheduler running the market refresh job on demand, so manual refreshes
// get the same job logging as scheduled ones.
type RefreshTrigger func() error

// Handler handles market data HTTP requests
type Handler struct {
	service *Service
	tickers Tickers
	trigger RefreshTrigger
	log     zerolog.Logger
}

// NewHandler creates a new market data handler
func NewHandler(service *Service, tickers Tickers, trigger RefreshTrigger, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		tickers: tickers,
		trigger: trigger,
		log:     log.With().Str("handler", "marketdata").Logger(),
	}
}

// Routes mounts the market data routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/quotes", h.HandleQuotes)
	r.Get("/search", h.HandleSearch)
	r.Post("/refresh", h.HandleRefresh)
}

// HandleQuotes returns the whole snapshot cache, including known-unknown
// symbols (their entries are null).
func (h *Handler) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.All())
}

// HandleSearch looks up symbols matching ?q=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	results, err := h.service.Search(query)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if results == nil {
		results = []yahoo.SearchResult{}
	}

	h.writeJSON(w, http.StatusOK, results)
}

// HandleRefresh triggers a manual refresh of all tracked tickers. The fetch
// runs in the background; the caller polls the portfolio views for results.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	symbols := h.tickers.Tickers()

	go func() {
		if err := h.trigger(); err != nil {
			h.log.Error().Err(err).Msg("Manual refresh failed")
		}
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":  "refreshing",
		"symbols": len(symbols),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

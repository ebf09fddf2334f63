package valuation

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles valuation HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "valuation").Logger(),
	}
}

// Routes mounts the valuation routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.HandleSummary)
	r.Get("/assets", h.HandleAssets)
	r.Get("/allocation", h.HandleAllocation)
	r.Get("/brokers", h.HandleBrokers)
	r.Get("/history", h.HandleHistory)
	r.Get("/performance", h.HandlePerformance)
}

// HandleSummary returns the portfolio totals
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Summary())
}

// HandleAssets returns the valued positions, largest first
func (h *Handler) HandleAssets(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Assets())
}

// HandleAllocation returns the ticker and sector breakdowns
func (h *Handler) HandleAllocation(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Allocation())
}

// HandleBrokers returns per-broker value, debt and leverage
func (h *Handler) HandleBrokers(w http.ResponseWriter, r *http.Request) {
	exposures, err := h.service.BrokerExposures()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, exposures)
}

// HandleHistory returns the daily portfolio value series
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	series := h.service.ValueSeries()
	if series == nil {
		series = []ValuePoint{}
	}

	h.writeJSON(w, http.StatusOK, series)
}

// HandlePerformance returns the value series with risk and trend metrics
func (h *Handler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Performance())
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

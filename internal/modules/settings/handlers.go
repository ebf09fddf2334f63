package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles settings HTTP requests
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "settings").Logger(),
	}
}

// Routes mounts the settings routes
func (h *Handler) Routes(r chi.Router) {
	r.Get("/brokers", h.HandleListBrokers)
	r.Put("/brokers", h.HandleSaveBroker)
	r.Delete("/brokers/{name}", h.HandleDeleteBroker)
}

// HandleListBrokers returns all configured brokers
func (h *Handler) HandleListBrokers(w http.ResponseWriter, r *http.Request) {
	brokers, err := h.repo.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if brokers == nil {
		brokers = []Broker{}
	}

	h.writeJSON(w, http.StatusOK, brokers)
}

// HandleSaveBroker creates or updates a broker
func (h *Handler) HandleSaveBroker(w http.ResponseWriter, r *http.Request) {
	var broker Broker
	if err := json.NewDecoder(r.Body).Decode(&broker); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.repo.Upsert(broker); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, broker)
}

// HandleDeleteBroker removes a broker
func (h *Handler) HandleDeleteBroker(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.repo.Delete(name); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "broker not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
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

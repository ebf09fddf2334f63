package ledger

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/foliotrack/internal/events"
)

// Rates is the currency conversion surface the ledger needs when recording
// an entry. Implemented by forex.Converter.
type Rates interface {
	Rate(from, to string) float64
}

// Service records ledger entries, deriving and caching the USD price at
// entry time so replay never needs a live forex lookup.
type Service struct {
	repo   *Repository
	rates  Rates
	events *events.Manager
	log    zerolog.Logger
}

// NewService creates a new ledger service
func NewService(repo *Repository, rates Rates, evts *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		rates:  rates,
		events: evts,
		log:    log.With().Str("service", "ledger").Logger(),
	}
}

// Record validates an operation, stamps its USD price and exchange rate,
// and appends it to the ledger.
func (s *Service) Record(op Operation) (string, error) {
	if err := op.Validate(); err != nil {
		return "", err
	}

	op = s.stampUSD(op)

	id, err := s.repo.Append(op)
	if err != nil {
		return "", fmt.Errorf("failed to record operation: %w", err)
	}

	s.emit(events.OperationRecorded, id, op.Ticker)

	return id, nil
}

// Edit applies a partial edit. When price or currency changed, the USD
// stamp is re-derived at current rates and written as part of the same
// update, so the snapshot delivered to subscribers is never stale.
func (s *Service) Edit(id string, patch OperationPatch) error {
	if patch.Price != nil || patch.Currency != nil {
		op, err := s.repo.Get(id)
		if err != nil {
			return err
		}

		op = op.Normalize()
		if patch.Price != nil {
			op.Price = *patch.Price
		}
		if patch.Currency != nil {
			op.Currency = *patch.Currency
		}

		op = s.stampUSD(op)
		patch.PriceInUSD = &op.PriceInUSD
		patch.ExchangeRateAtEntry = &op.ExchangeRateAtEntry
	}

	if err := s.repo.Update(id, patch); err != nil {
		return err
	}

	s.emit(events.OperationEdited, id, "")

	return nil
}

// Remove deletes an operation from the ledger
func (s *Service) Remove(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.emit(events.OperationDeleted, id, "")

	return nil
}

// Operations returns the full normalized ledger
func (s *Service) Operations() ([]Operation, error) {
	return s.repo.List()
}

func (s *Service) stampUSD(op Operation) Operation {
	currency := op.Currency
	if currency == "" {
		currency = "USD"
	}

	rate := s.rates.Rate(currency, "USD")
	op.ExchangeRateAtEntry = rate
	op.PriceInUSD = op.Price * rate

	return op
}

func (s *Service) emit(eventType events.EventType, id, ticker string) {
	if s.events == nil {
		return
	}

	data := map[string]interface{}{"id": id}
	if ticker != "" {
		data["ticker"] = ticker
	}

	s.events.Emit(eventType, "ledger", data)
}

package marketdata

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/foliotrack/internal/clients/yahoo"
	"github.com/aristath/foliotrack/internal/events"
)

// DefaultBatchSize bounds how many symbols are fetched per wave, and
// DefaultBatchDelay spaces the waves out, to stay under upstream rate limits.
const (
	DefaultBatchSize    = 5
	DefaultBatchDelay   = time.Second
	DefaultHistoryRange = "1y"
)

// Provider is the upstream market data source. Quote returning (nil, nil)
// means the symbol resolved to nothing; an error means the fetch failed and
// whatever is cached stays valid.
type Provider interface {
	Quote(symbol string) (*yahoo.Quote, error)
	History(symbol, period string) ([]yahoo.ClosePrice, error)
	Search(query string) ([]yahoo.SearchResult, error)
}

// Snapshot is the cached market view of one symbol
type Snapshot struct {
	Symbol        string             `json:"symbol"`
	Price         float64            `json:"price"`
	Currency      string             `json:"currency"`
	ChangePercent float64            `json:"change_percent"`
	Sector        string             `json:"sector,omitempty"`
	History       []yahoo.ClosePrice `json:"history,omitempty"`
	FetchedAt     time.Time          `json:"fetched_at"`
}

// Service maintains the market data cache. Three states per symbol:
// absent = pending (not fetched yet), nil = known-unknown (provider
// resolved the symbol to nothing), non-nil = loaded.
type Service struct {
	provider     Provider
	events       *events.Manager
	log          zerolog.Logger
	batchSize    int
	batchDelay   time.Duration
	historyRange string

	mu    sync.RWMutex
	cache map[string]*Snapshot
	known map[string]bool
}

// Config holds market data service configuration
type Config struct {
	BatchSize    int
	BatchDelay   time.Duration
	HistoryRange string
}

// NewService creates a new market data service
func NewService(provider Provider, evts *events.Manager, cfg Config, log zerolog.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = DefaultBatchDelay
	}
	if cfg.HistoryRange == "" {
		cfg.HistoryRange = DefaultHistoryRange
	}

	return &Service{
		provider:     provider,
		events:       evts,
		log:          log.With().Str("service", "marketdata").Logger(),
		batchSize:    cfg.BatchSize,
		batchDelay:   cfg.BatchDelay,
		historyRange: cfg.HistoryRange,
		cache:        make(map[string]*Snapshot),
		known:        make(map[string]bool),
	}
}

// Get returns the cached snapshot for a symbol. known is false while the
// symbol is still pending; a nil snapshot with known=true means the symbol
// resolved to nothing.
func (s *Service) Get(symbol string) (snap *Snapshot, known bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[symbol], s.known[symbol]
}

// All returns a copy of the whole cache, including known-unknown entries
func (s *Service) All() map[string]*Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*Snapshot, len(s.cache))
	for symbol := range s.known {
		result[symbol] = s.cache[symbol]
	}
	return result
}

// Refresh fetches the given symbols in bounded waves. Fetch failures keep
// the previous cached value; completed waves overwrite whatever an earlier
// wave stored (last write wins). Never blocks ledger replay: callers run
// it from the scheduler or a request goroutine.
func (s *Service) Refresh(symbols []string) {
	if len(symbols) == 0 {
		return
	}

	if s.events != nil {
		s.events.Emit(events.MarketRefreshStart, "marketdata", map[string]interface{}{
			"symbols": len(symbols),
		})
	}

	for start := 0; start < len(symbols); start += s.batchSize {
		end := start + s.batchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		var wg sync.WaitGroup
		for _, symbol := range symbols[start:end] {
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()
				s.refreshOne(symbol)
			}(symbol)
		}
		wg.Wait()

		if end < len(symbols) {
			time.Sleep(s.batchDelay)
		}
	}

	if s.events != nil {
		s.events.Emit(events.MarketRefreshComplete, "marketdata", map[string]interface{}{
			"symbols": len(symbols),
		})
	}
}

func (s *Service) refreshOne(symbol string) {
	quote, err := s.provider.Quote(symbol)
	if err != nil {
		// Transient failure: keep serving whatever we had.
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed, keeping cached value")
		if s.events != nil {
			s.events.EmitError("marketdata", err, map[string]interface{}{"symbol": symbol})
		}
		return
	}

	if quote == nil {
		s.log.Info().Str("symbol", symbol).Msg("Symbol resolved to nothing")
		s.mu.Lock()
		s.cache[symbol] = nil
		s.known[symbol] = true
		s.mu.Unlock()
		return
	}

	history, err := s.provider.History(symbol, s.historyRange)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("History fetch failed, storing quote without series")
	}

	s.mu.Lock()
	s.cache[symbol] = &Snapshot{
		Symbol:        symbol,
		Price:         quote.Price,
		Currency:      quote.Currency,
		ChangePercent: quote.ChangePercent,
		Sector:        quote.Sector,
		History:       history,
		FetchedAt:     time.Now().UTC(),
	}
	s.known[symbol] = true
	s.mu.Unlock()
}

// Search looks up symbols via the provider
func (s *Service) Search(query string) ([]yahoo.SearchResult, error) {
	return s.provider.Search(query)
}

package forex

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/foliotrack/internal/events"
)

// DefaultTTL bounds how long a fetched rate is served from cache.
const DefaultTTL = 5 * time.Minute

// RateProvider fetches a live rate for a pair symbol like "EURUSD=X".
// Implemented by the yahoo client.
type RateProvider interface {
	FetchRate(pair string) (float64, error)
}

type cacheEntry struct {
	rate      float64
	fetchedAt time.Time
}

// Converter resolves currency-pair rates with a TTL cache and a static
// fallback table. Conversion never fails: when nothing resolves it returns
// rate 1 and logs a warning, so valuation always renders (degraded, not
// blocked).
type Converter struct {
	provider RateProvider
	ttl      time.Duration
	now      func() time.Time
	events   *events.Manager
	log      zerolog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// Option configures a Converter
type Option func(*Converter)

// WithTTL overrides the cache TTL
func WithTTL(ttl time.Duration) Option {
	return func(c *Converter) { c.ttl = ttl }
}

// WithClock overrides the time source, for deterministic expiry tests
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithEvents emits a ForexFallbackUsed event whenever a rate comes from the
// static table or the degraded default instead of the live provider
func WithEvents(evts *events.Manager) Option {
	return func(c *Converter) { c.events = evts }
}

// NewConverter creates a new converter
func NewConverter(provider RateProvider, log zerolog.Logger, opts ...Option) *Converter {
	c := &Converter{
		provider: provider,
		ttl:      DefaultTTL,
		now:      time.Now,
		log:      log.With().Str("service", "forex").Logger(),
		cache:    make(map[string]cacheEntry),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Rate resolves how many units of `to` one unit of `from` buys.
//
// Resolution order: identity, cache, live provider ("{from}{to}=X"), static
// fallback (direct, inverse, then triangulated through USD), and finally 1.
func (c *Converter) Rate(from, to string) float64 {
	if from == to {
		return 1
	}

	pair := from + to

	if rate, ok := c.cached(pair); ok {
		return rate
	}

	if c.provider != nil {
		rate, err := c.provider.FetchRate(pair + "=X")
		if err == nil && rate > 0 {
			c.store(pair, rate)
			return rate
		}
		if err != nil {
			c.log.Warn().Err(err).Str("pair", pair).Msg("Rate fetch failed, using fallback")
		}
	}

	if rate, ok := fallbackRate(from, to); ok {
		c.emitFallback(from, to, rate)
		return rate
	}

	c.log.Warn().
		Str("from", from).
		Str("to", to).
		Msg("No rate available, defaulting to 1")
	c.emitFallback(from, to, 1)

	return 1
}

func (c *Converter) emitFallback(from, to string, rate float64) {
	if c.events == nil {
		return
	}

	c.events.Emit(events.ForexFallbackUsed, "forex", map[string]interface{}{
		"from": from,
		"to":   to,
		"rate": rate,
	})
}

// ToUSD converts an amount in the given currency to USD
func (c *Converter) ToUSD(amount float64, currency string) float64 {
	return amount * c.Rate(currency, "USD")
}

// FromUSD converts a USD amount to the given currency
func (c *Converter) FromUSD(amount float64, currency string) float64 {
	return amount * c.Rate("USD", currency)
}

func (c *Converter) cached(pair string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[pair]
	if !ok {
		return 0, false
	}

	if c.now().Sub(entry.fetchedAt) > c.ttl {
		delete(c.cache, pair)
		return 0, false
	}

	return entry.rate, true
}

func (c *Converter) store(pair string, rate float64) {
	c.mu.Lock()
	c.cache[pair] = cacheEntry{rate: rate, fetchedAt: c.now()}
	c.mu.Unlock()
}

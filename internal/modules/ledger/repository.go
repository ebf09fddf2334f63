package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when an operation id does not exist
var ErrNotFound = errors.New("operation not found")

// Subscriber receives the full normalized snapshot after every mutation.
// Snapshots, never deltas: subscribers recompute derived state from scratch.
type Subscriber func(ops []Operation)

// Repository handles ledger database operations and change notification
type Repository struct {
	db  *sql.DB
	log zerolog.Logger

	mu          sync.Mutex
	subscribers map[int]Subscriber
	nextSubID   int
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:          db,
		log:         log.With().Str("repo", "ledger").Logger(),
		subscribers: make(map[int]Subscriber),
	}
}

// Append inserts a new operation and returns its assigned id
func (r *Repository) Append(op Operation) (string, error) {
	if err := op.Validate(); err != nil {
		return "", fmt.Errorf("invalid operation: %w", err)
	}

	op.ID = uuid.NewString()
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO operations
		(id, type, ticker, quantity, price, currency, price_in_usd,
		 exchange_rate_at_entry, date, broker, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		op.ID,
		string(op.Type),
		op.Ticker,
		op.Quantity,
		op.Price,
		op.Currency,
		op.PriceInUSD,
		op.ExchangeRateAtEntry,
		op.Date,
		op.Broker,
		op.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to append operation: %w", err)
	}

	r.log.Info().
		Str("id", op.ID).
		Str("ticker", op.Ticker).
		Str("type", string(op.Type)).
		Float64("quantity", op.Quantity).
		Msg("Operation appended")

	r.notify()

	return op.ID, nil
}

// OperationPatch holds the editable fields of an operation. Nil fields are
// left unchanged.
type OperationPatch struct {
	Type     *OperationType `json:"type,omitempty"`
	Ticker   *string        `json:"ticker,omitempty"`
	Quantity *float64       `json:"quantity,omitempty"`
	Price    *float64       `json:"price,omitempty"`
	Currency *string        `json:"currency,omitempty"`
	Date     *string        `json:"date,omitempty"`
	Broker   *string        `json:"broker,omitempty"`

	// Set by the service when a price or currency edit re-derives the USD
	// stamp. Never accepted from clients.
	PriceInUSD          *float64 `json:"-"`
	ExchangeRateAtEntry *float64 `json:"-"`
}

// Update applies a partial edit to an existing operation
func (r *Repository) Update(id string, patch OperationPatch) error {
	op, err := r.Get(id)
	if err != nil {
		return err
	}

	if patch.Type != nil {
		op.Type = *patch.Type
	}
	if patch.Ticker != nil {
		op.Ticker = *patch.Ticker
	}
	if patch.Quantity != nil {
		op.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		op.Price = *patch.Price
	}
	if patch.Currency != nil {
		op.Currency = *patch.Currency
		op.PriceInUSD = 0 // stale against the edited currency unless re-stamped below
	}
	if patch.Date != nil {
		op.Date = *patch.Date
	}
	if patch.Broker != nil {
		op.Broker = *patch.Broker
	}
	if patch.PriceInUSD != nil {
		op.PriceInUSD = *patch.PriceInUSD
	}
	if patch.ExchangeRateAtEntry != nil {
		op.ExchangeRateAtEntry = *patch.ExchangeRateAtEntry
	}

	if err := op.Validate(); err != nil {
		return fmt.Errorf("invalid operation after update: %w", err)
	}

	query := `
		UPDATE operations
		SET type = ?, ticker = ?, quantity = ?, price = ?, currency = ?,
		    price_in_usd = ?, exchange_rate_at_entry = ?, date = ?, broker = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(op.Type),
		op.Ticker,
		op.Quantity,
		op.Price,
		op.Currency,
		op.PriceInUSD,
		op.ExchangeRateAtEntry,
		op.Date,
		op.Broker,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	r.log.Info().Str("id", id).Msg("Operation updated")

	r.notify()

	return nil
}

// Delete removes an operation from the ledger
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM operations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	r.log.Info().Str("id", id).Msg("Operation deleted")

	r.notify()

	return nil
}

// Get retrieves a single operation by id
func (r *Repository) Get(id string) (Operation, error) {
	row := r.db.QueryRow(`
		SELECT id, type, ticker, quantity, price, currency, price_in_usd,
		       exchange_rate_at_entry, date, broker, created_at
		FROM operations WHERE id = ?
	`, id)

	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Operation{}, ErrNotFound
	}
	if err != nil {
		return Operation{}, fmt.Errorf("failed to get operation: %w", err)
	}

	return op, nil
}

// List returns the full normalized ledger in replay order
func (r *Repository) List() ([]Operation, error) {
	rows, err := r.db.Query(`
		SELECT id, type, ticker, quantity, price, currency, price_in_usd,
		       exchange_rate_at_entry, date, broker, created_at
		FROM operations
		ORDER BY date ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}

	return NormalizeAll(ops), nil
}

// Subscribe registers a callback invoked with the full snapshot after every
// mutation. The returned function removes the subscription.
func (r *Repository) Subscribe(fn Subscriber) func() {
	r.mu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
}

// notify delivers the current snapshot to all subscribers, synchronously and
// in a single goroutine so derived state is never rebuilt concurrently.
func (r *Repository) notify() {
	ops, err := r.List()
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to load snapshot for notification")
		return
	}

	r.mu.Lock()
	subs := make([]Subscriber, 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(ops)
	}
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanOperation(row scannable) (Operation, error) {
	var op Operation
	var opType, createdAt string
	var currency, broker sql.NullString
	var priceInUSD, exchangeRate sql.NullFloat64

	err := row.Scan(
		&op.ID,
		&opType,
		&op.Ticker,
		&op.Quantity,
		&op.Price,
		&currency,
		&priceInUSD,
		&exchangeRate,
		&op.Date,
		&broker,
		&createdAt,
	)
	if err != nil {
		return Operation{}, err
	}

	op.Type = OperationType(opType)
	if currency.Valid {
		op.Currency = currency.String
	}
	if priceInUSD.Valid {
		op.PriceInUSD = priceInUSD.Float64
	}
	if exchangeRate.Valid {
		op.ExchangeRateAtEntry = exchangeRate.Float64
	}
	if broker.Valid {
		op.Broker = broker.String
	}

	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		op.CreatedAt = ts
	}

	return op, nil
}

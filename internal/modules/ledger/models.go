package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultBroker is assigned to operations recorded without a broker.
const DefaultBroker = "Unassigned"

// OperationType represents the direction of a ledger entry (buy or sell)
type OperationType string

const (
	OperationAdd    OperationType = "ADD"
	OperationRemove OperationType = "REMOVE"
)

// IsValid checks if the operation type is valid
func (t OperationType) IsValid() bool {
	return t == OperationAdd || t == OperationRemove
}

// OperationTypeFromString creates an OperationType from a string (case-insensitive)
func OperationTypeFromString(value string) (OperationType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "ADD":
		return OperationAdd, nil
	case "REMOVE":
		return OperationRemove, nil
	default:
		return "", fmt.Errorf("invalid operation type: %q", value)
	}
}

// Operation is a single immutable ledger entry. The ledger is the only
// persisted state; positions and closed trades are derived from it on
// every change.
type Operation struct {
	ID                  string        `json:"id"`
	Type                OperationType `json:"type"`
	Ticker              string        `json:"ticker"`
	Quantity            float64       `json:"quantity"`
	Price               float64       `json:"price"` // in native currency
	Currency            string        `json:"currency"`
	PriceInUSD          float64       `json:"price_in_usd"`
	ExchangeRateAtEntry float64       `json:"exchange_rate_at_entry,omitempty"`
	Date                string        `json:"date"` // YYYY-MM-DD, user-assigned trade date
	Broker              string        `json:"broker"`
	CreatedAt           time.Time     `json:"created_at"`
}

// Validate validates operation data and normalizes the ticker
func (o *Operation) Validate() error {
	if strings.TrimSpace(o.Ticker) == "" {
		return fmt.Errorf("ticker cannot be empty")
	}

	if !o.Type.IsValid() {
		return fmt.Errorf("invalid operation type: %q", o.Type)
	}

	if o.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}

	if o.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}

	if _, err := time.Parse("2006-01-02", o.Date); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", o.Date)
	}

	o.Ticker = strings.ToUpper(strings.TrimSpace(o.Ticker))

	return nil
}

// Normalize fills the legacy-record fallbacks so the replay engines never
// have to: missing currency means USD, missing USD price means the native
// price already was USD, missing broker means DefaultBroker.
func (o Operation) Normalize() Operation {
	o.Ticker = strings.ToUpper(strings.TrimSpace(o.Ticker))

	if o.Currency == "" {
		o.Currency = "USD"
	}

	if o.PriceInUSD == 0 {
		o.PriceInUSD = o.Price
	}

	if o.Broker == "" {
		o.Broker = DefaultBroker
	}

	return o
}

// NormalizeAll normalizes a full snapshot
func NormalizeAll(ops []Operation) []Operation {
	result := make([]Operation, len(ops))
	for i, op := range ops {
		result[i] = op.Normalize()
	}
	return result
}

// SortForReplay orders operations the way both replay engines consume them:
// ascending by trade date, creation timestamp breaking ties. Backdated
// entries therefore land where their date says, not where they were typed.
// The returned slice is a copy; the input is left untouched.
func SortForReplay(ops []Operation) []Operation {
	sorted := make([]Operation, len(ops))
	copy(sorted, ops)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	return sorted
}

// OversellWarning reports a REMOVE that exceeded the quantity available at
// that point of the replay. The excess is clamped, never turned into a
// negative position or a synthetic trade.
type OversellWarning struct {
	OperationID string  `json:"operation_id"`
	Ticker      string  `json:"ticker"`
	Broker      string  `json:"broker,omitempty"`
	Date        string  `json:"date"`
	Requested   float64 `json:"requested"`
	Available   float64 `json:"available"`
}

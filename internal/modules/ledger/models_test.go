package ledger

import (
	"testing"
	"time"
)

func TestOperationValidate(t *testing.T) {
	valid := Operation{
		Type:     OperationAdd,
		Ticker:   "aapl",
		Quantity: 10,
		Price:    100,
		Date:     "2024-01-01",
	}

	tests := []struct {
		name    string
		mutate  func(*Operation)
		wantErr bool
	}{
		{name: "valid", mutate: func(o *Operation) {}, wantErr: false},
		{name: "empty ticker", mutate: func(o *Operation) { o.Ticker = "  " }, wantErr: true},
		{name: "bad type", mutate: func(o *Operation) { o.Type = "HOLD" }, wantErr: true},
		{name: "zero quantity", mutate: func(o *Operation) { o.Quantity = 0 }, wantErr: true},
		{name: "negative quantity", mutate: func(o *Operation) { o.Quantity = -1 }, wantErr: true},
		{name: "negative price", mutate: func(o *Operation) { o.Price = -1 }, wantErr: true},
		{name: "zero price allowed", mutate: func(o *Operation) { o.Price = 0 }, wantErr: false},
		{name: "bad date", mutate: func(o *Operation) { o.Date = "01/02/2024" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := valid
			tt.mutate(&op)

			err := op.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUppercasesTicker(t *testing.T) {
	op := Operation{Type: OperationAdd, Ticker: " aapl ", Quantity: 1, Price: 1, Date: "2024-01-01"}

	if err := op.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if op.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want AAPL", op.Ticker)
	}
}

func TestNormalizeLegacyFallbacks(t *testing.T) {
	op := Operation{Ticker: "aapl", Price: 100}

	normalized := op.Normalize()

	if normalized.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want AAPL", normalized.Ticker)
	}
	if normalized.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", normalized.Currency)
	}
	if normalized.PriceInUSD != 100 {
		t.Errorf("PriceInUSD = %v, want 100 (native price taken as USD)", normalized.PriceInUSD)
	}
	if normalized.Broker != DefaultBroker {
		t.Errorf("Broker = %q, want %q", normalized.Broker, DefaultBroker)
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	op := Operation{Ticker: "ASML", Price: 600, Currency: "EUR", PriceInUSD: 660, Broker: "Degiro"}

	normalized := op.Normalize()

	if normalized.Currency != "EUR" || normalized.PriceInUSD != 660 || normalized.Broker != "Degiro" {
		t.Errorf("Normalize() clobbered explicit values: %+v", normalized)
	}
}

func TestSortForReplay(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	ops := []Operation{
		{ID: "c", Date: "2024-03-01", CreatedAt: base},
		{ID: "a", Date: "2024-01-01", CreatedAt: base.Add(time.Hour)},
		{ID: "b2", Date: "2024-02-01", CreatedAt: base.Add(3 * time.Hour)},
		{ID: "b1", Date: "2024-02-01", CreatedAt: base.Add(2 * time.Hour)},
	}

	sorted := SortForReplay(ops)

	want := []string{"a", "b1", "b2", "c"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Errorf("sorted[%d].ID = %q, want %q", i, sorted[i].ID, id)
		}
	}

	// Input order untouched.
	if ops[0].ID != "c" {
		t.Error("SortForReplay mutated its input")
	}
}

func TestOperationTypeFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    OperationType
		wantErr bool
	}{
		{input: "ADD", want: OperationAdd},
		{input: "add", want: OperationAdd},
		{input: " Remove ", want: OperationRemove},
		{input: "SELL", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := OperationTypeFromString(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("OperationTypeFromString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("OperationTypeFromString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

package ledger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/foliotrack/internal/events"
)

type fixedRates struct {
	rates map[string]float64
}

func (r *fixedRates) Rate(from, to string) float64 {
	if from == to {
		return 1
	}
	if rate, ok := r.rates[from+to]; ok {
		return rate
	}
	return 1
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo := newTestRepository(t)
	rates := &fixedRates{rates: map[string]float64{"EURUSD": 1.10}}
	return NewService(repo, rates, nil, zerolog.Nop())
}

func TestRecordStampsUSDPrice(t *testing.T) {
	service := newTestService(t)

	op := testOp("ASML", OperationAdd, 2, 600, "2024-01-01")
	op.Currency = "EUR"

	id, err := service.Record(op)
	require.NoError(t, err)

	stored, err := service.repo.Get(id)
	require.NoError(t, err)

	assert.InDelta(t, 1.10, stored.ExchangeRateAtEntry, 1e-9)
	assert.InDelta(t, 660.0, stored.PriceInUSD, 1e-9)
}

func TestRecordUSDOperationIsIdentity(t *testing.T) {
	service := newTestService(t)

	id, err := service.Record(testOp("AAPL", OperationAdd, 10, 100, "2024-01-01"))
	require.NoError(t, err)

	stored, err := service.repo.Get(id)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, stored.ExchangeRateAtEntry, 1e-9)
	assert.InDelta(t, 100.0, stored.PriceInUSD, 1e-9)
}

func TestRecordRejectsInvalid(t *testing.T) {
	service := newTestService(t)

	_, err := service.Record(testOp("", OperationAdd, 10, 100, "2024-01-01"))
	assert.Error(t, err)
}

func TestEditCurrencyRestampsUSDPrice(t *testing.T) {
	service := newTestService(t)

	id, err := service.Record(testOp("ASML", OperationAdd, 2, 600, "2024-01-01"))
	require.NoError(t, err)

	currency := "EUR"
	require.NoError(t, service.Edit(id, OperationPatch{Currency: &currency}))

	stored, err := service.repo.Get(id)
	require.NoError(t, err)

	assert.Equal(t, "EUR", stored.Currency)
	assert.InDelta(t, 660.0, stored.PriceInUSD, 1e-9)
}

// A currency edit must reach subscribers already re-stamped: the snapshot
// delivered by the notification carries the recomputed USD price, not an
// intermediate zeroed one.
func TestEditCurrencyNotifiesWithRestampedPrice(t *testing.T) {
	service := newTestService(t)

	id, err := service.Record(testOp("ASML", OperationAdd, 2, 600, "2024-01-01"))
	require.NoError(t, err)

	var last []Operation
	service.repo.Subscribe(func(ops []Operation) { last = ops })

	currency := "EUR"
	require.NoError(t, service.Edit(id, OperationPatch{Currency: &currency}))

	require.Len(t, last, 1)
	assert.Equal(t, "EUR", last[0].Currency)
	assert.InDelta(t, 660.0, last[0].PriceInUSD, 1e-9)
	assert.InDelta(t, 1.10, last[0].ExchangeRateAtEntry, 1e-9)
}

func TestEditPriceNotifiesWithRestampedPrice(t *testing.T) {
	service := newTestService(t)

	op := testOp("ASML", OperationAdd, 2, 600, "2024-01-01")
	op.Currency = "EUR"

	id, err := service.Record(op)
	require.NoError(t, err)

	var last []Operation
	service.repo.Subscribe(func(ops []Operation) { last = ops })

	price := 700.0
	require.NoError(t, service.Edit(id, OperationPatch{Price: &price}))

	require.Len(t, last, 1)
	assert.InDelta(t, 770.0, last[0].PriceInUSD, 1e-9)
}

func TestEditUnrelatedFieldKeepsUSDPrice(t *testing.T) {
	service := newTestService(t)

	id, err := service.Record(testOp("AAPL", OperationAdd, 10, 100, "2024-01-01"))
	require.NoError(t, err)

	broker := "Degiro"
	require.NoError(t, service.Edit(id, OperationPatch{Broker: &broker}))

	stored, err := service.repo.Get(id)
	require.NoError(t, err)

	assert.Equal(t, "Degiro", stored.Broker)
	assert.InDelta(t, 100.0, stored.PriceInUSD, 1e-9)
}

func TestMutationsEmitLifecycleEvents(t *testing.T) {
	var buf bytes.Buffer
	evts := events.NewManager(zerolog.New(&buf))

	repo := newTestRepository(t)
	service := NewService(repo, &fixedRates{}, evts, zerolog.Nop())

	id, err := service.Record(testOp("AAPL", OperationAdd, 10, 100, "2024-01-01"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), string(events.OperationRecorded))

	qty := 12.0
	require.NoError(t, service.Edit(id, OperationPatch{Quantity: &qty}))
	assert.Contains(t, buf.String(), string(events.OperationEdited))

	require.NoError(t, service.Remove(id))
	assert.Contains(t, buf.String(), string(events.OperationDeleted))
}

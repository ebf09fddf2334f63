package yahoo

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithBase(server.URL, zerolog.Nop())
}

func TestQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbols"))

		fmt.Fprint(w, `{
			"quoteResponse": {
				"result": [{
					"symbol": "AAPL",
					"regularMarketPrice": 150.25,
					"regularMarketChangePercent": 1.5,
					"currency": "USD",
					"sector": "Technology",
					"shortName": "Apple Inc."
				}],
				"error": null
			}
		}`)
	})

	quote, err := client.Quote("AAPL")
	require.NoError(t, err)
	require.NotNil(t, quote)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.InDelta(t, 150.25, quote.Price, 1e-9)
	assert.InDelta(t, 1.5, quote.ChangePercent, 1e-9)
	assert.Equal(t, "USD", quote.Currency)
	assert.Equal(t, "Technology", quote.Sector)
}

func TestQuoteUnknownSymbolIsNilNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse": {"result": [], "error": null}}`)
	})

	quote, err := client.Quote("BOGUS")
	require.NoError(t, err)
	assert.Nil(t, quote)
}

func TestQuoteZeroPriceTreatedAsUnknown(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse": {"result": [{"symbol": "DEAD", "regularMarketPrice": 0}], "error": null}}`)
	})

	quote, err := client.Quote("DEAD")
	require.NoError(t, err)
	assert.Nil(t, quote)
}

func TestQuoteTransportErrorIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := client.Quote("AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFetchRate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EURUSD=X", r.URL.Query().Get("symbols"))
		fmt.Fprint(w, `{"quoteResponse": {"result": [{"symbol": "EURUSD=X", "regularMarketPrice": 1.0935, "currency": "USD"}], "error": null}}`)
	})

	rate, err := client.FetchRate("EURUSD=X")
	require.NoError(t, err)
	assert.InDelta(t, 1.0935, rate, 1e-9)
}

func TestFetchRateUnknownPair(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse": {"result": [], "error": null}}`)
	})

	_, err := client.FetchRate("XXXYYY=X")
	assert.Error(t, err)
}

func TestHistorySkipsNullCloses(t *testing.T) {
	day1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	day3 := day2.Add(24 * time.Hour)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"))
		assert.Equal(t, "1y", r.URL.Query().Get("range"))

		fmt.Fprintf(w, `{
			"chart": {
				"result": [{
					"timestamp": [%d, %d, %d],
					"indicators": {"quote": [{"close": [100.5, null, 102.25]}]}
				}],
				"error": null
			}
		}`, day1.Unix(), day2.Unix(), day3.Unix())
	})

	series, err := client.History("AAPL", "1y")
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, day1, series[0].Date)
	assert.InDelta(t, 100.5, series[0].Close, 1e-9)
	assert.Equal(t, day3, series[1].Date)
	assert.InDelta(t, 102.25, series[1].Close, 1e-9)
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("q"))

		fmt.Fprint(w, `{
			"quotes": [
				{"symbol": "AAPL", "shortname": "Apple Inc.", "longname": "Apple Inc.", "quoteType": "EQUITY"},
				{"symbol": "APLE", "shortname": "Apple Hospitality", "quoteType": "EQUITY"}
			]
		}`)
	})

	results, err := client.Search("apple")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "Apple Inc.", results[0].Description)
	// Falls back to the short name when there is no long name.
	assert.Equal(t, "Apple Hospitality", results[1].Description)
}

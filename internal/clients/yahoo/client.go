package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const (
	quoteURL  = "https://query1.finance.yahoo.com/v7/finance/quote"
	chartURL  = "https://query1.finance.yahoo.com/v8/finance/chart/"
	searchURL = "https://query1.finance.yahoo.com/v1/finance/search"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Client is a Yahoo Finance API client. It serves both equity quotes and
// forex pairs ("EURUSD=X"), so it backs the market data provider and the
// forex rate provider with one HTTP surface.
type Client struct {
	client  *http.Client
	baseURL string // override for tests; empty means the real endpoints
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// NewClientWithBase creates a client pointed at a test server
func NewClientWithBase(baseURL string, log zerolog.Logger) *Client {
	c := NewClient(log)
	c.baseURL = baseURL
	return c
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

// Quote fetches the current quote for a symbol.
//
// A nil Quote with a nil error means the symbol resolved to nothing
// (delisted or unknown). That is a different state from a transport error,
// which is returned as an error and leaves caches untouched upstream.
func (c *Client) Quote(symbol string) (*Quote, error) {
	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", "symbol,regularMarketPrice,regularMarketChangePercent,currency,sector,shortName")

	body, err := c.get(c.endpoint(quoteURL, "/v7/finance/quote") + "?" + params.Encode())
	if err != nil {
		return nil, err
	}

	var result quoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote API error: %v", result.QuoteResponse.Error)
	}

	if len(result.QuoteResponse.Result) == 0 {
		// Resolved but unknown symbol.
		return nil, nil
	}

	info := result.QuoteResponse.Result[0]

	price := getFloat64OrZero(info, "regularMarketPrice")
	if price == 0 {
		return nil, nil
	}

	return &Quote{
		Symbol:        getString(info, "symbol", symbol),
		Price:         price,
		Currency:      getString(info, "currency", "USD"),
		ChangePercent: getFloat64OrZero(info, "regularMarketChangePercent"),
		Sector:        getString(info, "sector", ""),
		ShortName:     getString(info, "shortName", ""),
	}, nil
}

// FetchRate fetches a forex rate for a pair symbol like "EURUSD=X"
func (c *Client) FetchRate(pair string) (float64, error) {
	quote, err := c.Quote(pair)
	if err != nil {
		return 0, err
	}

	if quote == nil || quote.Price <= 0 {
		return 0, fmt.Errorf("no rate data for pair %s", pair)
	}

	return quote.Price, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// History fetches the daily close series for a symbol.
//
// Supported ranges: 1mo, 3mo, 6mo, 1y, 2y, 5y, max. Null closes (market
// holidays, partial days) are skipped.
func (c *Client) History(symbol, period string) ([]ClosePrice, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", period)

	endpoint := c.endpoint(chartURL+url.PathEscape(symbol), "/v8/finance/chart/"+url.PathEscape(symbol))

	body, err := c.get(endpoint + "?" + params.Encode())
	if err != nil {
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse chart response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %v", result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	chart := result.Chart.Result[0]
	closes := chart.Indicators.Quote[0].Close

	var series []ClosePrice
	for i, ts := range chart.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		series = append(series, ClosePrice{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}

	return series, nil
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// Search looks up symbols matching a free-text query
func (c *Client) Search(query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("quotesCount", "10")
	params.Add("newsCount", "0")

	body, err := c.get(c.endpoint(searchURL, "/v1/finance/search") + "?" + params.Encode())
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	var matches []SearchResult
	for _, q := range result.Quotes {
		description := q.LongName
		if description == "" {
			description = q.ShortName
		}

		matches = append(matches, SearchResult{
			Symbol:      q.Symbol,
			Description: description,
			Type:        q.QuoteType,
		})
	}

	return matches, nil
}

func (c *Client) endpoint(real, path string) string {
	if c.baseURL != "" {
		return c.baseURL + path
	}
	return real
}

func (c *Client) get(reqURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// Helper functions to safely extract values from map-based JSON

func getFloat64OrZero(m map[string]interface{}, key string) float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return 0
}

func getString(m map[string]interface{}, key string, defaultVal string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}

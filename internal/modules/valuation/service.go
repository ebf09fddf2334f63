package valuation

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/foliotrack/internal/marketdata"
	"github.com/aristath/foliotrack/internal/modules/portfolio"
	"github.com/aristath/foliotrack/internal/modules/positions"
	"github.com/aristath/foliotrack/internal/modules/settings"
)

// Markets is the read side of the market data cache
type Markets interface {
	Get(symbol string) (*marketdata.Snapshot, bool)
}

// Rates converts between currencies. Implemented by forex.Converter.
type Rates interface {
	Rate(from, to string) float64
	ToUSD(amount float64, currency string) float64
}

// Brokers supplies the configured broker debt figures
type Brokers interface {
	List() ([]settings.Broker, error)
}

// Service joins derived positions with market data and forex rates into the
// reporting views. It holds no state of its own: every call reads the
// current tracker snapshot and caches.
type Service struct {
	tracker      *portfolio.Tracker
	markets      Markets
	rates        Rates
	brokers      Brokers
	riskFreeRate float64
	log          zerolog.Logger
}

// NewService creates a new valuation service
func NewService(
	tracker *portfolio.Tracker,
	markets Markets,
	rates Rates,
	brokers Brokers,
	riskFreeRate float64,
	log zerolog.Logger,
) *Service {
	return &Service{
		tracker:      tracker,
		markets:      markets,
		rates:        rates,
		brokers:      brokers,
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("service", "valuation").Logger(),
	}
}

// Assets values every active position against current market data
func (s *Service) Assets() []Asset {
	state := s.tracker.Snapshot()

	assets := make([]Asset, 0, len(state.Positions))
	for _, pos := range state.Positions {
		assets = append(assets, s.valuePosition(pos))
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].MarketValueUSD > assets[j].MarketValueUSD
	})

	return assets
}

// valuePosition applies the three-state valuation policy: unknown symbols
// are written down to zero (worst case on display, not a market event),
// pending symbols are held at cost, loaded symbols are marked to market.
func (s *Service) valuePosition(pos positions.Position) Asset {
	asset := Asset{
		Ticker:         pos.Ticker,
		Broker:         pos.Broker,
		Quantity:       pos.Quantity,
		Currency:       pos.Currency,
		AvgBuyPrice:    pos.AvgBuyPrice,
		AvgBuyPriceUSD: pos.AvgBuyPriceUSD,
		CostBasisUSD:   pos.Quantity * pos.AvgBuyPriceUSD,
	}

	snap, known := s.markets.Get(pos.Ticker)

	switch {
	case !known:
		// Fetch still outstanding: hold at cost, show flat PnL.
		asset.IsPending = true
		asset.CurrentPrice = pos.AvgBuyPrice
		asset.CurrentPriceUSD = pos.AvgBuyPriceUSD
		asset.MarketValueUSD = asset.CostBasisUSD

	case snap == nil:
		asset.IsUnknown = true
		asset.GainLossUSD = -asset.CostBasisUSD
		asset.GainLossPercent = -100

	default:
		asset.Currency = snap.Currency
		asset.Sector = snap.Sector
		asset.CurrentPrice = snap.Price
		asset.CurrentPriceUSD = s.rates.ToUSD(snap.Price, snap.Currency)
		asset.MarketValueUSD = pos.Quantity * asset.CurrentPriceUSD
		asset.GainLossUSD = asset.MarketValueUSD - asset.CostBasisUSD
		if asset.CostBasisUSD != 0 {
			asset.GainLossPercent = asset.GainLossUSD / asset.CostBasisUSD * 100
		}
		asset.DayChangeUSD = dayChange(asset.CurrentPriceUSD, snap.ChangePercent, pos.Quantity)
	}

	return asset
}

// dayChange reconstructs the previous close from the day change percent and
// sums the USD delta. Dividing out the percent is numerically safer than
// multiplying it back onto the current price.
func dayChange(currentPriceUSD, changePercent, quantity float64) float64 {
	denom := 1 + changePercent/100
	if denom == 0 {
		return 0
	}

	previousUSD := currentPriceUSD / denom
	return (currentPriceUSD - previousUSD) * quantity
}

// Summarize aggregates an asset set into portfolio totals
func Summarize(assets []Asset) Summary {
	var summary Summary
	summary.AssetCount = len(assets)

	var previousTotal float64

	for _, asset := range assets {
		summary.TotalValueUSD += asset.MarketValueUSD
		summary.TotalCostUSD += asset.CostBasisUSD
		summary.DayChangeUSD += asset.DayChangeUSD
		previousTotal += asset.MarketValueUSD - asset.DayChangeUSD

		if asset.IsUnknown {
			summary.UnknownCount++
		}
		if asset.IsPending {
			summary.PendingCount++
		}
	}

	summary.TotalGainLossUSD = summary.TotalValueUSD - summary.TotalCostUSD
	if summary.TotalCostUSD != 0 {
		summary.TotalGainLossPercent = summary.TotalGainLossUSD / summary.TotalCostUSD * 100
	}
	if previousTotal != 0 {
		summary.DayChangePercent = summary.DayChangeUSD / previousTotal * 100
	}

	return summary
}

// Summary returns the portfolio-level totals
func (s *Service) Summary() Summary {
	return Summarize(s.Assets())
}

// Allocation breaks the current value down by ticker and by sector.
// Unknown-sector assets land in "Other".
func (s *Service) Allocation() Allocation {
	assets := s.Assets()

	var total float64
	tickerValues := make(map[string]float64)
	sectorValues := make(map[string]float64)

	for _, asset := range assets {
		total += asset.MarketValueUSD
		tickerValues[asset.Ticker] += asset.MarketValueUSD

		sector := asset.Sector
		if sector == "" {
			sector = "Other"
		}
		sectorValues[sector] += asset.MarketValueUSD
	}

	return Allocation{
		ByTicker: buildSlices(tickerValues, total),
		BySector: buildSlices(sectorValues, total),
	}
}

func buildSlices(values map[string]float64, total float64) []AllocationSlice {
	slices := make([]AllocationSlice, 0, len(values))

	for name, value := range values {
		percent := 0.0
		if total > 0 {
			percent = value / total * 100
		}
		slices = append(slices, AllocationSlice{
			Name:     name,
			ValueUSD: value,
			Percent:  percent,
		})
	}

	sort.Slice(slices, func(i, j int) bool {
		if slices[i].ValueUSD != slices[j].ValueUSD {
			return slices[i].ValueUSD > slices[j].ValueUSD
		}
		return slices[i].Name < slices[j].Name
	})

	return slices
}

// BrokerExposures joins per-broker market value with the configured debt
// figures. Brokers with debt but no open positions still show up.
func (s *Service) BrokerExposures() ([]BrokerExposure, error) {
	assets := s.Assets()

	values := make(map[string]float64)
	for _, asset := range assets {
		values[asset.Broker] += asset.MarketValueUSD
	}

	debts := make(map[string]float64)
	if s.brokers != nil {
		brokers, err := s.brokers.List()
		if err != nil {
			return nil, err
		}
		for _, b := range brokers {
			debts[b.Name] = b.Debt
			if _, ok := values[b.Name]; !ok {
				values[b.Name] = 0
			}
		}
	}

	exposures := make([]BrokerExposure, 0, len(values))
	for broker, value := range values {
		exposure := BrokerExposure{
			Broker:         broker,
			MarketValueUSD: value,
			Debt:           debts[broker],
			EquityUSD:      value - debts[broker],
		}
		if exposure.EquityUSD > 0 {
			exposure.Leverage = value / exposure.EquityUSD
		}
		exposures = append(exposures, exposure)
	}

	sort.Slice(exposures, func(i, j int) bool {
		return exposures[i].Broker < exposures[j].Broker
	})

	return exposures, nil
}

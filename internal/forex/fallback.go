package forex

// fallbackRates are approximate rates used when the live provider is down.
// Accuracy matters less than always having a number; anything missing here
// still triangulates through USD.
var fallbackRates = map[string]float64{
	"EURUSD": 1.08,
	"GBPUSD": 1.27,
	"AUDUSD": 0.66,
	"NZDUSD": 0.61,
	"USDJPY": 149.50,
	"USDCHF": 0.88,
	"USDCAD": 1.36,
	"USDHKD": 7.82,
	"USDSGD": 1.34,
	"USDSEK": 10.45,
	"USDNOK": 10.60,
	"USDDKK": 6.90,
	"USDCNY": 7.24,
	"USDINR": 83.10,
	"USDKRW": 1330.0,
	"USDTWD": 31.60,
	"USDMXN": 17.10,
	"USDBRL": 4.95,
	"USDPLN": 4.00,
	"USDTRY": 32.00,
	"USDZAR": 18.70,
	"USDILS": 3.65,
}

// fallbackRate resolves a pair from the static table: direct entry first,
// then the inverse, then triangulation through USD.
func fallbackRate(from, to string) (float64, bool) {
	if rate, ok := fallbackRates[from+to]; ok {
		return rate, true
	}

	if rate, ok := fallbackRates[to+from]; ok && rate != 0 {
		return 1 / rate, true
	}

	fromUSD, okFrom := fallbackUSD(from)
	usdTo, okTo := fallbackUSDInverse(to)
	if okFrom && okTo {
		return fromUSD * usdTo, true
	}

	return 0, false
}

// fallbackUSD resolves from -> USD from the table
func fallbackUSD(from string) (float64, bool) {
	if from == "USD" {
		return 1, true
	}
	if rate, ok := fallbackRates[from+"USD"]; ok {
		return rate, true
	}
	if rate, ok := fallbackRates["USD"+from]; ok && rate != 0 {
		return 1 / rate, true
	}
	return 0, false
}

// fallbackUSDInverse resolves USD -> to from the table
func fallbackUSDInverse(to string) (float64, bool) {
	if to == "USD" {
		return 1, true
	}
	if rate, ok := fallbackRates["USD"+to]; ok {
		return rate, true
	}
	if rate, ok := fallbackRates[to+"USD"]; ok && rate != 0 {
		return 1 / rate, true
	}
	return 0, false
}

package indicator

import "trading-analytics/internal/model"

// MACDResult holds the three MACD lines.
type MACDResult struct {
	MACD      model.Series `json:"macd"`
	Signal    model.Series `json:"signal"`
	Histogram model.Series `json:"histogram"`
}

// MACD calculates MACD = EMA(fast) - EMA(slow), its signal line and histogram.
//
// The signal EMA runs over the defined MACD values only; an explicit map of
// valid positions puts each signal value back at the index it came from.
func MACD(values []float64, fast, slow, signal int) MACDResult {
	n := len(values)
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	line := model.NewSeries(n)
	valid := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if fastEMA.Defined(i) && slowEMA.Defined(i) {
			line[i] = fastEMA[i] - slowEMA[i]
			valid = append(valid, i)
		}
	}

	compact := make([]float64, len(valid))
	for k, idx := range valid {
		compact[k] = line[idx]
	}
	compactSignal := EMA(compact, signal)

	sig := model.NewSeries(n)
	for k, idx := range valid {
		sig[idx] = compactSignal[k]
	}

	hist := model.NewSeries(n)
	for i := 0; i < n; i++ {
		if line.Defined(i) && sig.Defined(i) {
			hist[i] = line[i] - sig[i]
		}
	}

	return MACDResult{MACD: line, Signal: sig, Histogram: hist}
}

// MACDDefault uses 12/26/9.
func MACDDefault(values []float64) MACDResult {
	return MACD(values, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
}

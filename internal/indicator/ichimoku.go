package indicator

import "trading-analytics/internal/model"

// IchimokuResult holds the five Ichimoku lines, all truncated to the input
// length so that index i always refers to bar i.
type IchimokuResult struct {
	Tenkan model.Series `json:"tenkan"`
	Kijun  model.Series `json:"kijun"`
	SpanA  model.Series `json:"span_a"`
	SpanB  model.Series `json:"span_b"`
	Chikou model.Series `json:"chikou"`
}

// IchimokuCloud calculates the Ichimoku Cloud.
//
// Tenkan and Kijun are high/low midpoints over their windows. Senkou Span A
// ((tenkan+kijun)/2) and Span B (senkouB-period midpoint) are shifted
// displacement bars forward; values pushed past the last bar are dropped.
// Chikou is the close shifted displacement bars back.
func IchimokuCloud(bars []model.Bar, tenkan, kijun, senkouB, displacement int) IchimokuResult {
	n := len(bars)
	tenkanLine := midpoint(bars, tenkan)
	kijunLine := midpoint(bars, kijun)
	spanBRaw := midpoint(bars, senkouB)

	spanA := model.NewSeries(n)
	spanB := model.NewSeries(n)
	chikou := model.NewSeries(n)

	for i := 0; i < n; i++ {
		target := i + displacement
		if target < n {
			if tenkanLine.Defined(i) && kijunLine.Defined(i) {
				spanA[target] = (tenkanLine[i] + kijunLine[i]) / 2
			}
			if spanBRaw.Defined(i) {
				spanB[target] = spanBRaw[i]
			}
		}
		if back := i - displacement; back >= 0 {
			chikou[back] = bars[i].Close
		}
	}

	return IchimokuResult{
		Tenkan: tenkanLine,
		Kijun:  kijunLine,
		SpanA:  spanA,
		SpanB:  spanB,
		Chikou: chikou,
	}
}

// IchimokuDefault uses 9/26/52 with a displacement of 26.
func IchimokuDefault(bars []model.Bar) IchimokuResult {
	return IchimokuCloud(bars, DefaultTenkanPeriod, DefaultKijunPeriod, DefaultSenkouBPeriod, DefaultDisplacement)
}

// midpoint is (highest high + lowest low) / 2 over the trailing period.
func midpoint(bars []model.Bar, period int) model.Series {
	out := model.NewSeries(len(bars))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(bars); i++ {
		hh, ll := windowHighLow(bars[i-period+1 : i+1])
		out[i] = (hh + ll) / 2
	}
	return out
}

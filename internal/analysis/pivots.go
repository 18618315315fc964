package analysis

import "trading-analytics/internal/model"

// PivotKind distinguishes pivot highs from pivot lows.
type PivotKind string

const (
	PivotHigh PivotKind = "high"
	PivotLow  PivotKind = "low"
)

// Pivot is a local extreme within a symmetric lookback window.
type Pivot struct {
	Index int       `json:"index"`
	TS    int64     `json:"ts"`
	Price float64   `json:"price"`
	Kind  PivotKind `json:"kind"`
}

// DetectPivots scans bars for pivot highs (high strictly above every other
// high within lookback bars on each side) and pivot lows (low strictly below
// every other low in the window). Bars closer than lookback to either end
// cannot be pivots. Both slices are in index order.
func DetectPivots(bars []model.Bar, lookback int) (highs, lows []Pivot) {
	if lookback <= 0 {
		return nil, nil
	}
	for i := lookback; i < len(bars)-lookback; i++ {
		isHigh, isLow := true, true
		for j := i - lookback; j <= i+lookback; j++ {
			if j == i {
				continue
			}
			if bars[j].High >= bars[i].High {
				isHigh = false
			}
			if bars[j].Low <= bars[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, Pivot{Index: i, TS: bars[i].TS, Price: bars[i].High, Kind: PivotHigh})
		}
		if isLow {
			lows = append(lows, Pivot{Index: i, TS: bars[i].TS, Price: bars[i].Low, Kind: PivotLow})
		}
	}
	return highs, lows
}

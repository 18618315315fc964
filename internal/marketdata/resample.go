package marketdata

import (
	"fmt"

	"trading-analytics/internal/model"
)

// Resample aggregates an oldest-first series into tf-second buckets aligned
// to ts - ts%tf. Each output bar opens with the first bar of its bucket,
// closes with the last, spans the bucket's extremes and sums volume. The
// bucket volume is nil only when no input bar in it carried a volume.
func Resample(bars []model.Bar, tf int) ([]model.Bar, error) {
	if tf <= 0 {
		return nil, fmt.Errorf("resample: timeframe must be positive, got %d", tf)
	}
	if err := model.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}

	tf64 := int64(tf)
	out := make([]model.Bar, 0, len(bars))
	var (
		cur    model.Bar
		bucket int64
		open   bool
	)
	for _, b := range bars {
		bk := b.TS - (b.TS % tf64)
		if open && bk > bucket {
			out = append(out, cur)
			open = false
		}
		if !open {
			bucket, open = bk, true
			cur = model.Bar{TS: bk, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
			if b.Volume != nil {
				v := *b.Volume
				cur.Volume = &v
			}
			continue
		}
		// same bucket: merge
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		if b.Volume != nil {
			if cur.Volume == nil {
				v := 0.0
				cur.Volume = &v
			}
			*cur.Volume += *b.Volume
		}
	}
	if open {
		out = append(out, cur)
	}
	return out, nil
}

package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmptySeries is returned when a routine needs at least one bar.
	ErrEmptySeries = errors.New("empty series")
	// ErrUnordered is returned when timestamps are not strictly increasing.
	ErrUnordered = errors.New("timestamps not strictly increasing")
	// ErrInvalidBar is returned for non-positive prices or a broken high/low envelope.
	ErrInvalidBar = errors.New("invalid bar")
)

// Bar is one OHLCV candle. Series of bars are ordered oldest-first.
type Bar struct {
	TS     int64    `json:"ts"` // unix seconds
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume *float64 `json:"volume,omitempty"` // nil when the source has no volume
}

// Vol returns the bar volume, or def when the volume is absent.
func (b *Bar) Vol(def float64) float64 {
	if b.Volume == nil {
		return def
	}
	return *b.Volume
}

// JSON returns the JSON-encoded bar (ignoring errors).
func (b *Bar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}

// NewBar builds a bar with a volume.
func NewBar(ts int64, open, high, low, close, volume float64) Bar {
	v := volume
	return Bar{TS: ts, Open: open, High: high, Low: low, Close: close, Volume: &v}
}

// ValidateBars checks that bars form a well-formed series: non-empty,
// strictly increasing timestamps, positive prices, a consistent high/low
// envelope and non-negative volume.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return ErrEmptySeries
	}
	for i := range bars {
		b := &bars[i]
		if i > 0 && b.TS <= bars[i-1].TS {
			return fmt.Errorf("bar %d (ts=%d after %d): %w", i, b.TS, bars[i-1].TS, ErrUnordered)
		}
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d: non-positive price: %w", i, ErrInvalidBar)
		}
		if b.High < b.Open || b.High < b.Close || b.Low > b.Open || b.Low > b.Close {
			return fmt.Errorf("bar %d: high/low do not enclose open/close: %w", i, ErrInvalidBar)
		}
		if b.Volume != nil && *b.Volume < 0 {
			return fmt.Errorf("bar %d: negative volume: %w", i, ErrInvalidBar)
		}
	}
	return nil
}

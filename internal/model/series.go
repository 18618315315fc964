package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Series is a derived series index-aligned 1:1 with its input bars.
// Positions inside a warm-up window hold NaN; use Defined rather than
// comparing against NaN directly.
type Series []float64

// NewSeries returns a series of length n with every position undefined.
func NewSeries(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// IsDefined reports whether v is a real value rather than the undefined marker.
func IsDefined(v float64) bool {
	return !math.IsNaN(v)
}

// Defined reports whether position i holds a value.
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && IsDefined(s[i])
}

// Last returns the final element (possibly NaN). Returns NaN for an empty series.
func (s Series) Last() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// LastDefined returns the most recent defined value and its index, or -1.
func (s Series) LastDefined() (float64, int) {
	for i := len(s) - 1; i >= 0; i-- {
		if IsDefined(s[i]) {
			return s[i], i
		}
	}
	return math.NaN(), -1
}

// FirstDefined returns the index of the first defined value, or -1.
func (s Series) FirstDefined() int {
	for i, v := range s {
		if IsDefined(v) {
			return i
		}
	}
	return -1
}

// MarshalJSON encodes undefined positions as null.
func (s Series) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.Grow(len(s) * 8)
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if !IsDefined(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes null elements back to NaN.
func (s *Series) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = nil
		return nil
	}
	out := make(Series, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *p
		}
	}
	*s = out
	return nil
}

// Number is a scalar that survives JSON encoding when it is NaN or infinite:
// NaN encodes as null, ±Inf as "Infinity" / "-Infinity".
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte("null"), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*n = Number(math.NaN())
		return nil
	case `"Infinity"`:
		*n = Number(math.Inf(1))
		return nil
	case `"-Infinity"`:
		*n = Number(math.Inf(-1))
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

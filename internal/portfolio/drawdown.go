package portfolio

// Drawdown tracks the running equity peak and the deepest percentage decline
// from it.
type Drawdown struct {
	peak float64
	max  float64
	seen bool
}

// Observe records an equity value and returns the current drawdown in percent.
func (d *Drawdown) Observe(equity float64) float64 {
	if !d.seen || equity > d.peak {
		d.peak = equity
		d.seen = true
	}
	if d.peak <= 0 {
		return 0
	}
	dd := (d.peak - equity) / d.peak * 100
	if dd > d.max {
		d.max = dd
	}
	return dd
}

// Peak returns the highest equity observed.
func (d *Drawdown) Peak() float64 { return d.peak }

// Max returns the largest drawdown observed, in percent.
func (d *Drawdown) Max() float64 { return d.max }

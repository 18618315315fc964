package analysis

// Fit is an ordinary least-squares line y = Slope*x + Intercept.
type Fit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// At evaluates the line at x.
func (f Fit) At(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// LinearRegression fits ys against xs. When every y is equal the line fits
// exactly and R2 is 1; with fewer than two points the zero Fit is returned.
func LinearRegression(xs, ys []float64) Fit {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return Fit{}
	}
	meanX, meanY := 0.0, 0.0
	for i := 0; i < n; i++ {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	sxy, sxx := 0.0, 0.0
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		sxy += dx * (ys[i] - meanY)
		sxx += dx * dx
	}
	var slope float64
	if sxx != 0 {
		slope = sxy / sxx
	}
	fit := Fit{Slope: slope, Intercept: meanY - slope*meanX}

	ssTot, ssRes := 0.0, 0.0
	for i := 0; i < n; i++ {
		d := ys[i] - meanY
		ssTot += d * d
		r := ys[i] - fit.At(xs[i])
		ssRes += r * r
	}
	if ssTot == 0 {
		fit.R2 = 1
	} else {
		fit.R2 = 1 - ssRes/ssTot
	}
	return fit
}

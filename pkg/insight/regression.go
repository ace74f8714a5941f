package insight

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func split(points []Point) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

// ComputeRegression is an ordinary least-squares fit. R² is the squared
// Pearson correlation of x and y. Degenerate input gives neutral zeros.
func ComputeRegression(points []Point) RegressionResult {
	if len(points) < 2 {
		return RegressionResult{}
	}
	xs, ys := split(points)
	if stat.Variance(xs, nil) <= epsilon {
		return RegressionResult{B: stat.Mean(ys, nil)}
	}

	b, m := stat.LinearRegression(xs, ys, nil, false)
	r := stat.Correlation(xs, ys, nil)
	r2 := r * r
	if math.IsNaN(r2) {
		r2 = 0
	}
	return RegressionResult{M: m, B: b, R2: r2}
}

// ComputeRegressionThroughOrigin returns the least-squares slope of y = m*x.
func ComputeRegressionThroughOrigin(points []Point) float64 {
	xs, ys := split(points)
	denom := floats.Dot(xs, xs)
	if denom <= epsilon {
		return 0
	}
	return floats.Dot(xs, ys) / denom
}

// ComputeModelR2 returns 1 - SSE/SST against a given line, which need not be
// the least-squares one.
func ComputeModelR2(points []Point, m, b float64) float64 {
	if len(points) < 2 {
		return 0
	}
	xs, ys := split(points)
	meanY := stat.Mean(ys, nil)
	var sst, sse float64
	for i := range ys {
		d := ys[i] - meanY
		sst += d * d
		e := ys[i] - (m*xs[i] + b)
		sse += e * e
	}
	if sst <= epsilon {
		return 0
	}
	return 1 - sse/sst
}

// ClipRegressionLine returns the plotted line from x=0 (or the x-intercept
// when b < 0) to maxX, never dipping below zero energy.
func ClipRegressionLine(m, b, maxX float64) [2]Point {
	startX := 0.0
	if b < 0 && m != 0 {
		startX = -b / m
	}
	return [2]Point{
		{X: startX, Y: math.Max(0, m*startX+b)},
		{X: maxX, Y: m*maxX + b},
	}
}

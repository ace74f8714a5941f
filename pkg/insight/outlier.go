package insight

import (
	"math"
	"sort"
)

const (
	// DefaultFenceFactor is the robust z-score above which a day is an outlier.
	DefaultFenceFactor = 3.5

	minOutlierSample = 7
	maxRemovalShare  = 0.2
	// madToSigma makes MAD a consistent estimator of a normal sigma.
	madToSigma = 1.4826
	epsilon    = 1e-9
)

type robustLine struct {
	m, b float64
}

// theilSen fits the median of all pairwise slopes. O(n²) in the number of
// days, which stays in the low thousands after daily aggregation.
func theilSen(points []RawPoint) robustLine {
	slopes := make([]float64, 0, len(points)*(len(points)-1)/2)
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			dx := points[j].X - points[i].X
			if math.Abs(dx) < epsilon {
				continue
			}
			slopes = append(slopes, (points[j].Y-points[i].Y)/dx)
		}
	}

	if len(slopes) == 0 {
		ys := make([]float64, len(points))
		for i, p := range points {
			ys[i] = p.Y
		}
		return robustLine{m: 0, b: median(ys)}
	}

	m := median(slopes)
	intercepts := make([]float64, len(points))
	for i, p := range points {
		intercepts[i] = p.Y - m*p.X
	}
	return robustLine{m: m, b: median(intercepts)}
}

type candidate struct {
	date  string
	score float64
}

// FilterOutliersByResidual removes days that deviate strongly from a robust
// Theil-Sen baseline. The yesterday point is never removed and at most 20% of
// the sample (minimum one) is dropped.
func FilterOutliersByResidual(points []RawPoint, fenceFactor float64) OutlierFilterResult {
	if len(points) < minOutlierSample {
		clean := make([]RawPoint, len(points))
		copy(clean, points)
		return OutlierFilterResult{Clean: clean, RemovedDates: []string{}}
	}

	line := theilSen(points)
	residuals := make([]float64, len(points))
	for i, p := range points {
		residuals[i] = p.Y - (line.m*p.X + line.b)
	}
	residualMedian := median(residuals)
	absDev := make([]float64, len(residuals))
	for i, r := range residuals {
		absDev[i] = math.Abs(r - residualMedian)
	}
	mad := median(absDev)

	var candidates []candidate
	if mad > epsilon {
		sigma := madToSigma * mad
		for i, p := range points {
			if p.IsYesterday {
				continue
			}
			score := absDev[i] / sigma
			if score > fenceFactor {
				candidates = append(candidates, candidate{date: p.Date, score: score})
			}
		}
	} else {
		// MAD collapses on near-perfect lines, fence on the residual IQR instead.
		sorted := make([]float64, len(residuals))
		copy(sorted, residuals)
		sort.Float64s(sorted)
		q1 := quantileSorted(sorted, 0.25)
		q3 := quantileSorted(sorted, 0.75)
		delta := epsilon
		if iqr := q3 - q1; iqr > epsilon {
			delta = fenceFactor * iqr
		}
		lower, upper := residualMedian-delta, residualMedian+delta
		for i, p := range points {
			if p.IsYesterday {
				continue
			}
			if r := residuals[i]; r < lower || r > upper {
				candidates = append(candidates, candidate{date: p.Date, score: absDev[i]})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	maxRemovals := int(math.Max(1, math.Floor(float64(len(points))*maxRemovalShare)))
	if len(candidates) > maxRemovals {
		candidates = candidates[:maxRemovals]
	}

	removed := make(map[string]bool, len(candidates))
	removedDates := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if removed[c.date] {
			continue
		}
		removed[c.date] = true
		removedDates = append(removedDates, c.date)
	}

	clean := make([]RawPoint, 0, len(points)-len(removedDates))
	for _, p := range points {
		if !removed[p.Date] {
			clean = append(clean, p)
		}
	}
	return OutlierFilterResult{Clean: clean, RemovedDates: removedDates}
}

// median averages the two middle values for even counts.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// quantileSorted returns the p-quantile of ascending values. When n*p is a
// whole number and n is even the two neighbouring values are averaged.
func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case p >= 1:
		return sorted[n-1]
	case p <= 0:
		return sorted[0]
	}
	idx := float64(n) * p
	if idx != math.Trunc(idx) {
		return sorted[int(math.Ceil(idx))-1]
	}
	i := int(idx)
	if n%2 == 0 {
		return (sorted[i-1] + sorted[i]) / 2
	}
	return sorted[i]
}

package insight

import (
	"sort"
)

// Day is one selectable day of an analysis.
type Day struct {
	Date      string  `json:"date"`
	HDD       float64 `json:"hdd"`
	Energy    float64 `json:"energy"`
	Expected  float64 `json:"expected"`
	Deviation float64 `json:"deviation"`
}

// Days converts dated points into days sorted by date, each scored against
// the model line.
func Days(points []DatedPoint, m, b float64) []Day {
	days := make([]Day, 0, len(points))
	for _, p := range points {
		days = append(days, scoreDay(Day{Date: p.Date, HDD: p.X, Energy: p.Y}, m, b))
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
	return days
}

func scoreDay(d Day, m, b float64) Day {
	d.Expected = m*d.HDD + b
	d.Deviation = d.Energy - d.Expected
	return d
}

// ResolveSelectedDay returns the index of the requested day in sorted days.
// Without a request the latest day is chosen. An unknown date selects the
// latest day not after it, or the first day. -1 means no days.
func ResolveSelectedDay(days []Day, requested string) int {
	if len(days) == 0 {
		return -1
	}
	if requested == "" {
		return len(days) - 1
	}
	idx := 0
	for i, d := range days {
		if d.Date == requested {
			return i
		}
		if d.Date > requested {
			break
		}
		idx = i
	}
	return idx
}

// NavigateDay moves the selection by delta and reports false at the edges.
func NavigateDay(days []Day, current, delta int) (int, bool) {
	if current < 0 || current >= len(days) {
		return current, false
	}
	next := current + delta
	if next < 0 || next >= len(days) {
		return current, false
	}
	return next, true
}

package insight

import (
	"math"
	"time"

	"github.com/nergy-se/insight/pkg/statistics"
)

type PointOptions struct {
	HeatingLimit float64
	// FilterStart drops days whose local midnight is before it. Zero keeps all.
	FilterStart       time.Time
	IdentifyYesterday bool
	ExcludeZeroHDD    bool
	Now               time.Time
	Location          *time.Location
}

// HDD returns the heating degree days of a day with the given mean temperature.
func HDD(heatingLimit, meanTemp float64) float64 {
	return math.Max(0, heatingLimit-meanTemp)
}

// BuildRawPoints joins daily energy with daily temperature. Today is always
// skipped since it is incomplete. The output is in chronological order.
func BuildRawPoints(source, temps DayMap, opts PointOptions) []RawPoint {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := statistics.DayKey(now, opts.Location)
	yesterday := statistics.DayKey(now.AddDate(0, 0, -1), opts.Location)

	var points []RawPoint
	for _, day := range source.Keys() {
		if day == today {
			continue
		}
		temp, ok := temps[day]
		if !ok {
			continue
		}
		hdd := HDD(opts.HeatingLimit, temp)
		if opts.ExcludeZeroHDD && hdd <= 0 {
			continue
		}
		isYesterday := opts.IdentifyYesterday && day == yesterday
		if !isYesterday && !opts.FilterStart.IsZero() {
			midnight, err := statistics.ParseDay(day, opts.Location)
			if err != nil || midnight.Before(opts.FilterStart) {
				continue
			}
		}
		points = append(points, RawPoint{X: hdd, Y: source[day], Date: day, IsYesterday: isYesterday})
	}
	return points
}

type Extracted struct {
	Points         []Point
	YesterdayPoint *Point
	YesterdayMeta  *YesterdayMeta
}

// ExtractYesterday splits the flagged yesterday point from the rest.
func ExtractYesterday(points []RawPoint) Extracted {
	ex := Extracted{Points: make([]Point, 0, len(points))}
	for _, p := range points {
		if !p.IsYesterday {
			ex.Points = append(ex.Points, p.Point())
			continue
		}
		pt := p.Point()
		ex.YesterdayPoint = &pt
		meta := &YesterdayMeta{Date: p.Date, Energy: p.Y, HDD: p.X}
		if p.X > 0 {
			meta.Efficiency = p.Y / p.X
		}
		ex.YesterdayMeta = meta
	}
	return ex
}

func datedPoints(points []RawPoint) []DatedPoint {
	dated := make([]DatedPoint, 0, len(points))
	for _, p := range points {
		if p.IsYesterday {
			continue
		}
		dated = append(dated, DatedPoint{X: p.X, Y: p.Y, Date: p.Date})
	}
	return dated
}

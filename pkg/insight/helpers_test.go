package insight

import (
	"testing"
	"time"

	"github.com/nergy-se/insight/pkg/statistics"
	"github.com/stretchr/testify/require"
)

const (
	heatingID  = "sensor.heating"
	hotwaterID = "sensor.hotwater"
	tempID     = "sensor.outdoor"
)

var fixtureNow = time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)

// dayStart returns midnight daysAgo days before fixtureNow.
func dayStart(daysAgo int) time.Time {
	d := fixtureNow.AddDate(0, 0, -daysAgo)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(daysAgo int) string {
	return statistics.DayKey(dayStart(daysAgo), time.UTC)
}

func change(daysAgo int, v float64) statistics.Sample {
	return statistics.Sample{Start: dayStart(daysAgo), Change: statistics.Float(v)}
}

func mean(daysAgo int, v float64) statistics.Sample {
	return statistics.Sample{Start: dayStart(daysAgo), Mean: statistics.Float(v)}
}

func params(stats statistics.Result) SeriesParams {
	return SeriesParams{
		Stats:        stats,
		HeatingID:    heatingID,
		HotwaterID:   hotwaterID,
		TempID:       tempID,
		HeatingLimit: 15,
		Now:          fixtureNow,
		Location:     time.UTC,
	}
}

// linearStats builds days 10..1 days ago with temp 15-1.5*i and energy
// 2*hdd+3 on the heating sensor.
func linearStats(t *testing.T) statistics.Result {
	t.Helper()
	stats := statistics.Result{}
	for i := 0; i < 10; i++ {
		ago := 10 - i
		temp := 15 - 1.5*float64(i)
		hdd := HDD(15, temp)
		stats[heatingID] = append(stats[heatingID], change(ago, 2*hdd+3))
		stats[tempID] = append(stats[tempID], mean(ago, temp))
	}
	require.Len(t, stats[heatingID], 10)
	return stats
}

func rawLine(n int, m, b float64, noise ...float64) []RawPoint {
	points := make([]RawPoint, 0, n)
	for i := 1; i <= n; i++ {
		y := m*float64(i) + b
		if len(noise) > 0 {
			y += noise[i%len(noise)]
		}
		points = append(points, RawPoint{X: float64(i), Y: y, Date: dayKey(n + 1 - i)})
	}
	return points
}

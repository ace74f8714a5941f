package insight

import (
	"math"
	"time"

	"github.com/nergy-se/insight/pkg/statistics"
)

// EnergyMaps holds daily energy per series. Total is heating plus hot water.
type EnergyMaps struct {
	Heating  DayMap
	Hotwater DayMap
	Total    DayMap
}

// BuildEnergyMaps sums the change of every sample per local calendar day.
// Negative and non-finite deltas (counter resets, glitches) count as 0.
// A missing or empty id yields an empty map.
func BuildEnergyMaps(stats statistics.Result, heatingID, hotwaterID string, loc *time.Location) EnergyMaps {
	maps := EnergyMaps{
		Heating:  DayMap{},
		Hotwater: DayMap{},
		Total:    DayMap{},
	}
	if stats.Has(heatingID) {
		accumulate(stats[heatingID], loc, maps.Heating, maps.Total)
	}
	if stats.Has(hotwaterID) {
		accumulate(stats[hotwaterID], loc, maps.Hotwater, maps.Total)
	}
	return maps
}

func accumulate(samples []statistics.Sample, loc *time.Location, dst ...DayMap) {
	for _, s := range samples {
		if s.Start.IsZero() {
			continue
		}
		key := statistics.DayKey(s.Start, loc)
		v := clampDelta(s.Change)
		for _, m := range dst {
			m[key] += v
		}
	}
}

func clampDelta(change *float64) float64 {
	if change == nil {
		return 0
	}
	v := *change
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// BuildTempMap returns the mean outdoor temperature per local calendar day.
// Several samples on the same day are averaged.
func BuildTempMap(stats statistics.Result, tempID string, loc *time.Location) DayMap {
	temps := DayMap{}
	if !stats.Has(tempID) {
		return temps
	}
	counts := make(map[string]int)
	for _, s := range stats[tempID] {
		if s.Start.IsZero() || s.Mean == nil {
			continue
		}
		v := *s.Mean
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		key := statistics.DayKey(s.Start, loc)
		n := counts[key]
		temps[key] = (temps[key]*float64(n) + v) / float64(n+1)
		counts[key] = n + 1
	}
	return temps
}

package insight

import (
	"github.com/nergy-se/insight/pkg/api/v1/types"
)

// Entities are the configured statistic ids.
type Entities struct {
	EnergyHeating  string
	EnergyHotwater string
	EnergyTotal    string
	OutdoorTemp    string
}

type ResolvedEnergy struct {
	HeatingID  string
	HotwaterID string
	Mode       types.EnergyMode
}

// IDs returns every statistic id that has to be fetched, temperature last.
func (r ResolvedEnergy) IDs(tempID string) []string {
	ids := []string{r.HeatingID}
	if r.HotwaterID != "" {
		ids = append(ids, r.HotwaterID)
	}
	if tempID != "" {
		ids = append(ids, tempID)
	}
	return ids
}

// ExcludeZeroHDD reports whether non-heating days are dropped from the
// regression. A single total sensor keeps them since they carry the hot
// water base load.
func (r ResolvedEnergy) ExcludeZeroHDD() bool {
	return r.Mode != types.EnergyModeFallbackTotal
}

// ResolveEnergy prefers separate heating (and hot water) sensors and falls
// back to one total sensor. It returns false if no energy sensor is set.
func ResolveEnergy(e Entities) (ResolvedEnergy, bool) {
	if e.EnergyHeating != "" {
		r := ResolvedEnergy{
			HeatingID:  e.EnergyHeating,
			HotwaterID: e.EnergyHotwater,
			Mode:       types.EnergyModeHeatingOnly,
		}
		if e.EnergyHotwater != "" {
			r.Mode = types.EnergyModeSplit
		}
		return r, true
	}
	if e.EnergyTotal != "" {
		return ResolvedEnergy{HeatingID: e.EnergyTotal, Mode: types.EnergyModeFallbackTotal}, true
	}
	return ResolvedEnergy{}, false
}

// BaseLoad picks the measured hot water load when a dedicated series exists,
// otherwise the non-negative model intercept.
func BaseLoad(res *SeriesResult, hasDedicatedWW bool) (float64, types.BaseLoadSource) {
	if hasDedicatedWW {
		return res.WwBaseLoad, types.BaseLoadSourceWW
	}
	if res.B < 0 {
		return 0, types.BaseLoadSourceRegression
	}
	return res.B, types.BaseLoadSourceRegression
}

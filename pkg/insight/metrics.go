package insight

import (
	"gonum.org/v1/gonum/stat"
)

const (
	// AnnualHDDReference is the regional annual heating degree day sum.
	AnnualHDDReference = 2800.0

	// DesignHDD is the HDD of a design day at -10 °C with a 15 °C heating limit.
	DesignHDD = 25.0

	daysPerYear  = 365.25
	hoursPerDay  = 24.0
	wattsPerKilo = 1000.0
)

func ComputeAnnualHeatingProjection(m float64) float64 {
	return m * AnnualHDDReference
}

// ComputeWwBaseLoad is the mean daily hot water energy. Days at zero carry no
// data and are left out.
func ComputeWwBaseLoad(ww DayMap) float64 {
	var days []float64
	for _, v := range ww {
		if v > 0 {
			days = append(days, v)
		}
	}
	if len(days) == 0 {
		return 0
	}
	return stat.Mean(days, nil)
}

// ComputeAvgEfficiency is kWh per HDD over heating days.
func ComputeAvgEfficiency(points []Point) float64 {
	var energy, hdd float64
	for _, p := range points {
		if p.X > 0 {
			energy += p.Y
			hdd += p.X
		}
	}
	if hdd <= 0 {
		return 0
	}
	return energy / hdd
}

// ComputeAvgHeatingPower is the mean electrical power in kW over heating days.
func ComputeAvgHeatingPower(points []Point) float64 {
	var daily []float64
	for _, p := range points {
		if p.X > 0 {
			daily = append(daily, p.Y)
		}
	}
	if len(daily) == 0 {
		return 0
	}
	return stat.Mean(daily, nil) / hoursPerDay
}

// ComputeDeviation returns actual minus expected energy, 0 without a point.
func ComputeDeviation(p *Point, m, b float64) float64 {
	if p == nil {
		return 0
	}
	return p.Y - (m*p.X + b)
}

func SumMapValues(d DayMap) (total float64, dayCount int) {
	for _, v := range d {
		total += v
	}
	return total, len(d)
}

// ComputeDimensioning derives the virtual energy certificate. Area based
// figures are 0 when no area is known.
func ComputeDimensioning(in DimensioningInput) DimensioningData {
	annualElectr := in.AnnualHeatingElecKwh
	if in.TotalDaysPeriod > 0 {
		annualElectr = in.TotalElecPeriod * (daysPerYear / float64(in.TotalDaysPeriod))
	}

	peakElectr := (in.M*DesignHDD + in.B) / hoursPerDay

	d := DimensioningData{
		AvgElectricalPower:  in.AvgPowerForHeating,
		AvgThermalLoad:      in.AvgPowerForHeating * in.Jaz,
		PeakElectricalPower: peakElectr,
		PeakThermalLoad:     peakElectr * in.CopCold,
		Jaz:                 in.Jaz,
		JazSource:           in.JazSource,
		WwBaseLoad:          in.WwBaseLoad,
	}
	if in.Area > 0 {
		d.EnergyIndex = annualElectr * in.Jaz / in.Area
		d.SpecificHeatLoad = peakElectr * in.CopCold * wattsPerKilo / in.Area
		d.CostIndex = annualElectr * in.ElectricityPrice / in.Area
	}
	return d
}

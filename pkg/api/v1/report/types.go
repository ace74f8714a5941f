package report

import (
	"time"

	"github.com/nergy-se/insight/pkg/api/v1/types"
	"github.com/nergy-se/insight/pkg/insight"
)

type Metrics struct {
	BaseLoad       float64              `json:"baseLoad"`
	BaseLoadSource types.BaseLoadSource `json:"baseLoadSource"`
	ModelIntercept float64              `json:"modelIntercept"`
	WwBaseLoad     float64              `json:"wwBaseLoad"`
	Slope          float64              `json:"slope"`
	R2             float64              `json:"r2"`
	AvgEfficiency  float64              `json:"avgEfficiency"`
}

// Report is one published analysis of a period.
type Report struct {
	Period     types.Period     `json:"period"`
	EnergyMode types.EnergyMode `json:"energyMode"`
	Model      insight.Mode     `json:"model"`
	Start      time.Time        `json:"start"`
	End        time.Time        `json:"end"`
	Version    string           `json:"version,omitempty"`

	Metrics      Metrics                  `json:"metrics"`
	LinePoints   [2]insight.Point         `json:"linePoints"`
	Days         []insight.Day            `json:"days"`
	SelectedDay  *insight.Day             `json:"selectedDay,omitempty"`
	RemovedDates []string                 `json:"removedDates,omitempty"`
	Dimensioning insight.DimensioningData `json:"dimensioning"`

	AnnualHeatingElecKwh float64 `json:"annualHeatingElecKwh"`
	TotalElecPeriod      float64 `json:"totalElecPeriod"`
	TotalDaysPeriod      int     `json:"totalDaysPeriod"`
}

type Settings struct {
	Jaz              float64
	JazSource        types.JazSource
	CopCold          float64
	Area             float64
	ElectricityPrice float64
}

// New builds the report of a finished analysis. selected is the requested
// day, empty selects the latest one.
func New(period types.Period, energy insight.ResolvedEnergy, hasDedicatedWW bool, res *insight.SeriesResult, s Settings, selected string) *Report {
	baseLoad, source := insight.BaseLoad(res, hasDedicatedWW)
	days := insight.Days(res.DatedPoints, res.M, res.B)

	r := &Report{
		Period:     period,
		EnergyMode: energy.Mode,
		Model:      res.Mode,
		Metrics: Metrics{
			BaseLoad:       baseLoad,
			BaseLoadSource: source,
			ModelIntercept: res.B,
			WwBaseLoad:     res.WwBaseLoad,
			Slope:          res.M,
			R2:             res.R2,
			AvgEfficiency:  res.AvgEfficiency,
		},
		LinePoints:   res.LinePoints,
		Days:         days,
		RemovedDates: res.RemovedDates,
		Dimensioning: insight.ComputeDimensioning(insight.DimensioningInput{
			M:                    res.M,
			B:                    res.B,
			TotalElecPeriod:      res.TotalElecPeriod,
			TotalDaysPeriod:      res.TotalDaysPeriod,
			AnnualHeatingElecKwh: res.AnnualHeatingElecKwh,
			WwBaseLoad:           res.WwBaseLoad,
			AvgPowerForHeating:   res.AvgPowerForHeating,
			Jaz:                  s.Jaz,
			JazSource:            s.JazSource,
			CopCold:              s.CopCold,
			Area:                 s.Area,
			ElectricityPrice:     s.ElectricityPrice,
		}),
		AnnualHeatingElecKwh: res.AnnualHeatingElecKwh,
		TotalElecPeriod:      res.TotalElecPeriod,
		TotalDaysPeriod:      res.TotalDaysPeriod,
	}
	if idx := insight.ResolveSelectedDay(days, selected); idx >= 0 {
		day := days[idx]
		r.SelectedDay = &day
	}
	return r
}

package insight

import (
	"sort"

	"github.com/nergy-se/insight/pkg/api/v1/types"
)

// DayMap maps a calendar-day key to a daily value.
type DayMap map[string]float64

// Keys returns the day keys in chronological order.
func (d DayMap) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RawPoint is one day in heating-degree-day space.
type RawPoint struct {
	X           float64 `json:"x"` // HDD
	Y           float64 `json:"y"` // kWh
	Date        string  `json:"date"`
	IsYesterday bool    `json:"isYesterday,omitempty"`
}

func (p RawPoint) Point() Point {
	return Point{X: p.X, Y: p.Y}
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type DatedPoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Date string  `json:"date"`
}

type OutlierFilterResult struct {
	Clean        []RawPoint
	RemovedDates []string
}

type RegressionResult struct {
	M  float64 `json:"m"`  // kWh per HDD
	B  float64 `json:"b"`  // kWh
	R2 float64 `json:"r2"` // coefficient of determination
}

type YesterdayMeta struct {
	Date       string  `json:"date"`
	Energy     float64 `json:"energy"`
	HDD        float64 `json:"hdd"`
	Efficiency float64 `json:"efficiency"`
}

// SeriesResult is everything the display layer needs for one analysis.
type SeriesResult struct {
	Mode           Mode           `json:"mode"`
	Points         []Point        `json:"points"`
	DatedPoints    []DatedPoint   `json:"datedPoints"`
	YesterdayPoint *Point         `json:"yesterdayPoint,omitempty"`
	YesterdayMeta  *YesterdayMeta `json:"yesterdayMeta,omitempty"`
	RemovedDates   []string       `json:"removedDates,omitempty"`

	M          float64  `json:"m"`
	B          float64  `json:"b"`
	R2         float64  `json:"r2"`
	LinePoints [2]Point `json:"linePoints"`

	Deviation            float64 `json:"deviation"`
	AvgEfficiency        float64 `json:"avgEfficiency"`
	AvgPowerForHeating   float64 `json:"avgPowerForHeating"`
	AnnualHeatingElecKwh float64 `json:"annualHeatingElecKwh"`
	TotalElecPeriod      float64 `json:"totalElecPeriod"`
	TotalDaysPeriod      int     `json:"totalDaysPeriod"`
	WwBaseLoad           float64 `json:"wwBaseLoad"`
}

type DimensioningInput struct {
	M                    float64
	B                    float64
	TotalElecPeriod      float64
	TotalDaysPeriod      int
	AnnualHeatingElecKwh float64
	WwBaseLoad           float64
	AvgPowerForHeating   float64
	Jaz                  float64
	JazSource            types.JazSource
	CopCold              float64
	Area                 float64
	ElectricityPrice     float64
}

// DimensioningData is the virtual energy certificate.
type DimensioningData struct {
	AvgElectricalPower  float64         `json:"avgElectricalPower"`  // kW
	AvgThermalLoad      float64         `json:"avgThermalLoad"`      // kW
	PeakElectricalPower float64         `json:"peakElectricalPower"` // kW
	PeakThermalLoad     float64         `json:"peakThermalLoad"`     // kW
	EnergyIndex         float64         `json:"energyIndex"`         // kWh/m²a
	SpecificHeatLoad    float64         `json:"specificHeatLoad"`    // W/m²
	CostIndex           float64         `json:"costIndex"`           // currency/m²a
	Jaz                 float64         `json:"jaz"`
	JazSource           types.JazSource `json:"jazSource"`
	WwBaseLoad          float64         `json:"wwBaseLoad"`
}

package insight

import (
	"math"
	"time"

	"github.com/nergy-se/insight/pkg/statistics"
)

// Mode selects how the model line is fitted.
type Mode string

const (
	// ModeSplit fits the slope through the origin on heating-only days and
	// anchors the intercept at the measured hot water base load. Displayed
	// points are total energy.
	ModeSplit = Mode("split")
	// ModeFallback is a plain least-squares fit on the single available series.
	ModeFallback = Mode("fallback")
)

// minLineHDD is the minimum x extent of the plotted model line.
const minLineHDD = 20.0

type SeriesParams struct {
	Stats             statistics.Result
	HeatingID         string
	HotwaterID        string
	TempID            string
	HeatingLimit      float64
	IdentifyYesterday bool
	FilterStart       time.Time
	ExcludeZeroHDD    bool
	// FenceFactor defaults to DefaultFenceFactor when 0.
	FenceFactor float64
	// Now defaults to time.Now and Location to time.Local.
	Now      time.Time
	Location *time.Location
}

type fitted struct {
	points         []Point
	datedPoints    []DatedPoint
	yesterdayPoint *Point
	yesterdayMeta  *YesterdayMeta
	line           RegressionResult
}

type model interface {
	mode() Mode
	fit(clean []RawPoint, regression Extracted) (fitted, bool)
}

type splitModel struct {
	total      DayMap
	wwBaseLoad float64
}

func (splitModel) mode() Mode { return ModeSplit }

func (s splitModel) fit(clean []RawPoint, regression Extracted) (fitted, bool) {
	m := ComputeRegressionThroughOrigin(regression.Points)
	b := s.wwBaseLoad

	display := make([]RawPoint, 0, len(clean))
	for _, p := range clean {
		total, ok := s.total[p.Date]
		if !ok {
			continue
		}
		p.Y = total
		display = append(display, p)
	}
	ex := ExtractYesterday(display)
	if len(ex.Points) < 2 {
		return fitted{}, false
	}
	return fitted{
		points:         ex.Points,
		datedPoints:    datedPoints(display),
		yesterdayPoint: ex.YesterdayPoint,
		yesterdayMeta:  ex.YesterdayMeta,
		line:           RegressionResult{M: m, B: b, R2: ComputeModelR2(ex.Points, m, b)},
	}, true
}

type fallbackModel struct{}

func (fallbackModel) mode() Mode { return ModeFallback }

func (fallbackModel) fit(clean []RawPoint, regression Extracted) (fitted, bool) {
	return fitted{
		points:         regression.Points,
		datedPoints:    datedPoints(clean),
		yesterdayPoint: regression.YesterdayPoint,
		yesterdayMeta:  regression.YesterdayMeta,
		line:           ComputeRegression(regression.Points),
	}, true
}

// ProcessSeries runs the whole analysis. It returns false when there is
// nothing to show: no temperature series, no energy series, or fewer than
// two usable days after outlier removal.
func ProcessSeries(p SeriesParams) (*SeriesResult, bool) {
	if !p.Stats.Has(p.TempID) {
		return nil, false
	}
	hasHeating := p.Stats.Has(p.HeatingID)
	hasHotwater := p.Stats.Has(p.HotwaterID)
	if !hasHeating && !hasHotwater {
		return nil, false
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	fence := p.FenceFactor
	if fence <= 0 {
		fence = DefaultFenceFactor
	}

	maps := BuildEnergyMaps(p.Stats, p.HeatingID, p.HotwaterID, p.Location)
	today := statistics.DayKey(now, p.Location)
	delete(maps.Hotwater, today)
	delete(maps.Total, today)

	source := maps.Total
	if hasHeating {
		source = maps.Heating
	}

	temps := BuildTempMap(p.Stats, p.TempID, p.Location)
	raw := BuildRawPoints(source, temps, PointOptions{
		HeatingLimit:      p.HeatingLimit,
		FilterStart:       p.FilterStart,
		IdentifyYesterday: p.IdentifyYesterday,
		ExcludeZeroHDD:    p.ExcludeZeroHDD,
		Now:               now,
		Location:          p.Location,
	})

	filtered := FilterOutliersByResidual(raw, fence)
	for _, day := range filtered.RemovedDates {
		delete(maps.Total, day)
		delete(maps.Hotwater, day)
	}

	regression := ExtractYesterday(filtered.Clean)
	if len(regression.Points) < 2 {
		return nil, false
	}

	wwBaseLoad := ComputeWwBaseLoad(maps.Hotwater)

	var mdl model = fallbackModel{}
	if hasHeating && hasHotwater {
		mdl = splitModel{total: maps.Total, wwBaseLoad: wwBaseLoad}
	}
	fit, ok := mdl.fit(filtered.Clean, regression)
	if !ok {
		return nil, false
	}

	maxHDD := minLineHDD
	for _, pt := range fit.points {
		maxHDD = math.Max(maxHDD, pt.X)
	}
	total, days := SumMapValues(maps.Total)

	return &SeriesResult{
		Mode:           mdl.mode(),
		Points:         fit.points,
		DatedPoints:    fit.datedPoints,
		YesterdayPoint: fit.yesterdayPoint,
		YesterdayMeta:  fit.yesterdayMeta,
		RemovedDates:   filtered.RemovedDates,

		M:          fit.line.M,
		B:          fit.line.B,
		R2:         fit.line.R2,
		LinePoints: ClipRegressionLine(fit.line.M, fit.line.B, maxHDD),

		Deviation:            ComputeDeviation(fit.yesterdayPoint, fit.line.M, fit.line.B),
		AvgEfficiency:        ComputeAvgEfficiency(regression.Points),
		AvgPowerForHeating:   ComputeAvgHeatingPower(regression.Points),
		AnnualHeatingElecKwh: ComputeAnnualHeatingProjection(fit.line.M),
		TotalElecPeriod:      total,
		TotalDaysPeriod:      days,
		WwBaseLoad:           wwBaseLoad,
	}, true
}

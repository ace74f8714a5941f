package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nergy-se/insight/pkg/api/v1/config"
	"github.com/nergy-se/insight/pkg/api/v1/report"
	"github.com/nergy-se/insight/pkg/api/v1/types"
	"github.com/nergy-se/insight/pkg/hass"
	"github.com/nergy-se/insight/pkg/insight"
	"github.com/nergy-se/insight/pkg/metrics"
	"github.com/nergy-se/insight/pkg/mqtt"
	"github.com/nergy-se/insight/pkg/statistics"
	"github.com/nergy-se/insight/pkg/version"
	"github.com/sirupsen/logrus"
)

// ErrStale is returned when a newer request for the same period was issued
// while a fetch was in flight. The older result is dropped.
var ErrStale = errors.New("stale statistics response")

// Source is the Home Assistant API the app reads from.
type Source interface {
	StatisticsDuringPeriod(ctx context.Context, req hass.StatisticsRequest) (statistics.Result, error)
	State(ctx context.Context, entityID string) (float64, error)
}

type App struct {
	wg      *sync.WaitGroup
	config  *config.CliConfig
	source  Source
	cache   *report.Cache
	broker  *mqtt.Broker
	now     func() time.Time
	loc     *time.Location
	periods []types.Period

	mu         sync.Mutex
	requestIDs map[types.Period]uint64
}

func New(config *config.CliConfig) *App {
	return &App{
		wg:         &sync.WaitGroup{},
		config:     config,
		source:     hass.New(config.Server, config.Token),
		cache:      &report.Cache{},
		now:        time.Now,
		requestIDs: make(map[types.Period]uint64),
	}
}

// WithSource replaces the Home Assistant client.
func (a *App) WithSource(s Source) *App {
	a.source = s
	return a
}

func (a *App) Start(ctx context.Context) error {
	logrus.Infof("starting insight %s", version.Version)
	err := a.config.LoadToken()
	if err != nil {
		return fmt.Errorf("error loading token: %w", err)
	}
	err = a.setup()
	if err != nil {
		return err
	}

	if a.config.Mqtt {
		a.broker, err = mqtt.Start(ctx, a.wg, a.config.MqttAddress, a.config.MqttTopic)
		if err != nil {
			return fmt.Errorf("error starting mqtt broker: %w", err)
		}
	}
	if a.config.MetricsAddress != "" {
		metrics.Serve(ctx, a.wg, a.config.MetricsAddress)
	}

	a.wg.Add(1)
	go a.analysisLoop(ctx)
	return nil
}

func (a *App) setup() error {
	err := a.config.Validate()
	if err != nil {
		return err
	}
	a.loc, err = a.config.Location()
	if err != nil {
		return err
	}
	a.periods, err = a.config.AnalysisPeriods()
	return err
}

func (a *App) Wait() {
	a.wg.Wait()
}

// Broker returns the embedded broker, nil if disabled.
func (a *App) Broker() *mqtt.Broker {
	return a.broker
}

// Report returns the latest report of a period.
func (a *App) Report(p types.Period) *report.Report {
	return a.cache.Get(p)
}

func (a *App) analysisLoop(ctx context.Context) {
	defer a.wg.Done()
	delay := nextDelay(time.Now())
	timer := time.NewTimer(delay)
	a.analyzeAll(ctx)
	logrus.Debug("scheduling next run in ", delay)
	for {
		select {
		case <-timer.C:
			timer.Reset(nextDelay(time.Now()))
			a.analyzeAll(ctx)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (a *App) analyzeAll(ctx context.Context) {
	for _, p := range a.periods {
		_, err := a.Analyze(ctx, p)
		if err != nil && !errors.Is(err, ErrStale) {
			logrus.Errorf("error analyzing %s: %s", p, err)
		}
	}
}

func (a *App) nextRequestID(p types.Period) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requestIDs[p]++
	return a.requestIDs[p]
}

func (a *App) isLatest(p types.Period, id uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requestIDs[p] == id
}

// commit runs fn only if id is still the latest request for p. The check and
// fn run under the same lock so an older request can not overwrite a newer
// result.
func (a *App) commit(p types.Period, id uint64, fn func()) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.requestIDs[p] != id {
		return false
	}
	fn()
	return true
}

func (a *App) dropStale(p types.Period, id uint64, started time.Time) error {
	metrics.ObserveAnalysis(string(p), metrics.ResultStale, started)
	logrus.Debugf("dropping stale response for %s request %d", p, id)
	return ErrStale
}

// Analyze fetches statistics for a period and publishes a fresh report. It
// returns a nil report without error when there is not enough data.
func (a *App) Analyze(ctx context.Context, p types.Period) (*report.Report, error) {
	started := time.Now()
	id := a.nextRequestID(p)

	energy, ok := insight.ResolveEnergy(a.config.Entities())
	if !ok {
		return nil, fmt.Errorf("no energy sensor configured")
	}

	end := a.now()
	start := end.AddDate(0, 0, -p.Days())
	stats, err := a.source.StatisticsDuringPeriod(ctx, hass.StatisticsRequest{
		Start:  start,
		End:    end,
		IDs:    energy.IDs(a.config.OutdoorTemp),
		Period: "day",
		Types:  []string{"change", "mean"},
	})
	if !a.isLatest(p, id) {
		return nil, a.dropStale(p, id, started)
	}
	if err != nil {
		metrics.ObserveAnalysis(string(p), metrics.ResultError, started)
		return nil, fmt.Errorf("error fetching statistics: %w", err)
	}

	res, ok := insight.ProcessSeries(insight.SeriesParams{
		Stats:          stats,
		HeatingID:      energy.HeatingID,
		HotwaterID:     energy.HotwaterID,
		TempID:         a.config.OutdoorTemp,
		HeatingLimit:   a.config.HeatingLimit,
		FilterStart:    start,
		ExcludeZeroHDD: energy.ExcludeZeroHDD(),
		Now:            end,
		Location:       a.loc,
	})
	if !ok {
		cleared := a.commit(p, id, func() {
			a.cache.Delete(p)
			if a.broker != nil {
				err := a.broker.ClearReport(string(p))
				if err != nil {
					logrus.Error(err)
				}
			}
		})
		if !cleared {
			return nil, a.dropStale(p, id, started)
		}
		logrus.Debugf("not enough data to analyze %s", p)
		metrics.ObserveAnalysis(string(p), metrics.ResultNoData, started)
		return nil, nil
	}

	hasDedicatedWW := stats.Has(energy.HotwaterID)
	r := report.New(p, energy, hasDedicatedWW, res, a.settings(ctx), "")
	r.Start = start
	r.End = end
	r.Version = version.Version

	var publishErr error
	committed := a.commit(p, id, func() {
		a.cache.Set(p, r)
		metrics.ObserveReport(r)
		if a.broker != nil {
			publishErr = a.broker.PublishReport(r)
		}
	})
	if !committed {
		return nil, a.dropStale(p, id, started)
	}
	metrics.ObserveAnalysis(string(p), metrics.ResultOK, started)
	if publishErr != nil {
		return r, fmt.Errorf("error publishing report: %w", publishErr)
	}
	logrus.Debugf("analyzed %s: m=%.3f b=%.3f r2=%.3f days=%d removed=%d",
		p, r.Metrics.Slope, r.Metrics.ModelIntercept, r.Metrics.R2, len(r.Days), len(r.RemovedDates))
	return r, nil
}

// settings resolves JAZ and electricity price, preferring fixed values over
// sensor states.
func (a *App) settings(ctx context.Context) report.Settings {
	s := report.Settings{
		JazSource:        types.JazSourceMissing,
		CopCold:          a.config.CopCold,
		Area:             a.config.Area,
		ElectricityPrice: a.config.ElectricityPrice,
	}

	switch {
	case a.config.FixedJaz > 0:
		s.Jaz = a.config.FixedJaz
		s.JazSource = types.JazSourceFixed
	case a.config.ScopSensor != "":
		jaz, err := a.source.State(ctx, a.config.ScopSensor)
		if err != nil {
			logrus.Warnf("error reading scop sensor: %s", err)
			break
		}
		s.Jaz = jaz
		s.JazSource = types.JazSourceSensor
	}

	if s.ElectricityPrice <= 0 && a.config.ElectricityPriceSensor != "" {
		price, err := a.source.State(ctx, a.config.ElectricityPriceSensor)
		if err != nil {
			logrus.Warnf("error reading electricity price sensor: %s", err)
		} else {
			s.ElectricityPrice = price
		}
	}
	return s
}

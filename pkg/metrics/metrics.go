package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/nergy-se/insight/pkg/api/v1/report"
	"github.com/nergy-se/insight/pkg/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const metricPrefix = "heatpump_insight_"

var (
	registerOnce sync.Once

	slope           *prometheus.GaugeVec
	intercept       *prometheus.GaugeVec
	r2              *prometheus.GaugeVec
	baseLoad        *prometheus.GaugeVec
	days            *prometheus.GaugeVec
	removedDays     *prometheus.GaugeVec
	specificHeat    *prometheus.GaugeVec
	energyIndex     *prometheus.GaugeVec
	analysesTotal   *prometheus.CounterVec
	analysisLatency *prometheus.HistogramVec
	buildInfo       *prometheus.GaugeVec
)

// Init registers the collectors once.
func Init() {
	registerOnce.Do(func() {
		gauge := func(name, help string) *prometheus.GaugeVec {
			return prometheus.NewGaugeVec(
				prometheus.GaugeOpts{Name: metricPrefix + name, Help: help},
				[]string{"period"},
			)
		}
		slope = gauge("slope_kwh_per_hdd", "Model slope in kWh per heating degree day")
		intercept = gauge("intercept_kwh", "Model intercept in kWh per day")
		r2 = gauge("r2", "Coefficient of determination of the model")
		baseLoad = gauge("base_load_kwh", "Daily base load in kWh")
		days = gauge("days", "Days in the analysis after outlier removal")
		removedDays = gauge("removed_days", "Days removed as outliers")
		specificHeat = gauge("specific_heat_load_watt_per_m2", "Specific heat load at design temperature")
		energyIndex = gauge("energy_index_kwh_per_m2", "Thermal energy per m² and year")

		analysesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "analyses_total",
				Help: "Total analyses by result",
			},
			[]string{"period", "result"},
		)
		analysisLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "analysis_latency_seconds",
				Help:    "Fetch and analysis latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"period"},
		)

		buildInfo = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "build_info",
				Help: "Build information, always 1",
			},
			[]string{"commit", "goversion"},
		)
		buildInfo.WithLabelValues(version.Build.Commit, version.Build.GoVersion).Set(1)

		prometheus.MustRegister(
			slope, intercept, r2, baseLoad, days, removedDays, specificHeat, energyIndex,
			analysesTotal, analysisLatency, buildInfo,
		)
	})
}

const (
	ResultOK     = "ok"
	ResultNoData = "no_data"
	ResultError  = "error"
	ResultStale  = "stale"
)

func ObserveReport(r *report.Report) {
	Init()
	period := string(r.Period)
	slope.WithLabelValues(period).Set(r.Metrics.Slope)
	intercept.WithLabelValues(period).Set(r.Metrics.ModelIntercept)
	r2.WithLabelValues(period).Set(r.Metrics.R2)
	baseLoad.WithLabelValues(period).Set(r.Metrics.BaseLoad)
	days.WithLabelValues(period).Set(float64(len(r.Days)))
	removedDays.WithLabelValues(period).Set(float64(len(r.RemovedDates)))
	specificHeat.WithLabelValues(period).Set(r.Dimensioning.SpecificHeatLoad)
	energyIndex.WithLabelValues(period).Set(r.Dimensioning.EnergyIndex)
}

func ObserveAnalysis(period, result string, started time.Time) {
	Init()
	analysesTotal.WithLabelValues(period, result).Inc()
	analysisLatency.WithLabelValues(period).Observe(time.Since(started).Seconds())
}

// Serve exposes /metrics on address until ctx is done.
func Serve(ctx context.Context, wg *sync.WaitGroup, address string) {
	Init()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		server.Close()
	}()
	go func() {
		defer wg.Done()
		logrus.Infof("serving metrics on %s", address)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()
}

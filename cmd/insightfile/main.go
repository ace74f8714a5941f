package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nergy-se/insight/pkg/api/v1/report"
	"github.com/nergy-se/insight/pkg/api/v1/types"
	"github.com/nergy-se/insight/pkg/insight"
	"github.com/nergy-se/insight/pkg/statistics"
	"github.com/sirupsen/logrus"
)

var (
	file        = flag.String("file", "", "statistics json as returned by recorder/statistics_during_period")
	heating     = flag.String("heating", "", "heating energy statistic id")
	hotwater    = flag.String("hotwater", "", "hot water energy statistic id")
	total       = flag.String("total", "", "total energy statistic id, used without -heating")
	outdoor     = flag.String("outdoor", "", "outdoor temperature statistic id")
	limit       = flag.Float64("limit", 15, "heating limit temperature")
	periodFlag  = flag.String("period", "90d", "30d, 90d or 365d")
	nowFlag     = flag.String("now", "", "RFC3339 time the analysis runs at, default now")
	area        = flag.Float64("area", 0, "heated living area in m²")
	jaz         = flag.Float64("jaz", 0, "annual COP")
	copCold     = flag.Float64("cop-cold", 2.5, "COP at design temperature")
	price       = flag.Float64("price", 0, "electricity price per kWh")
	selectedDay = flag.String("day", "", "selected day YYYY-MM-DD, default latest")
	logLevel    = flag.String("loglevel", "info", "")
)

func main() {
	flag.Parse()
	lvl, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logrus.SetLevel(lvl)

	r, err := run()
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	err = enc.Encode(r)
	if err != nil {
		log.Fatal(err)
	}
}

func run() (*report.Report, error) {
	period, err := types.ParsePeriod(*periodFlag)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if *nowFlag != "" {
		now, err = time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			return nil, fmt.Errorf("error parsing -now: %w", err)
		}
	}

	b, err := os.ReadFile(*file)
	if err != nil {
		return nil, err
	}
	stats := statistics.Result{}
	err = json.Unmarshal(b, &stats)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", *file, err)
	}

	energy, ok := insight.ResolveEnergy(insight.Entities{
		EnergyHeating:  *heating,
		EnergyHotwater: *hotwater,
		EnergyTotal:    *total,
		OutdoorTemp:    *outdoor,
	})
	if !ok {
		return nil, fmt.Errorf("one of -heating or -total is required")
	}

	start := now.AddDate(0, 0, -period.Days())
	res, ok := insight.ProcessSeries(insight.SeriesParams{
		Stats:          stats,
		HeatingID:      energy.HeatingID,
		HotwaterID:     energy.HotwaterID,
		TempID:         *outdoor,
		HeatingLimit:   *limit,
		FilterStart:    start,
		ExcludeZeroHDD: energy.ExcludeZeroHDD(),
		Now:            now,
	})
	if !ok {
		return nil, fmt.Errorf("not enough data for %s", period)
	}
	logrus.Debugf("%d days, %d removed as outliers", len(res.DatedPoints), len(res.RemovedDates))

	jazSource := types.JazSourceMissing
	if *jaz > 0 {
		jazSource = types.JazSourceFixed
	}
	r := report.New(period, energy, stats.Has(energy.HotwaterID), res, report.Settings{
		Jaz:              *jaz,
		JazSource:        jazSource,
		CopCold:          *copCold,
		Area:             *area,
		ElectricityPrice: *price,
	}, *selectedDay)
	r.Start = start
	r.End = now
	return r, nil
}

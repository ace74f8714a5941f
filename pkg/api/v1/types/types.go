package types

import "fmt"

type JazSource string

var JazSourceFixed = JazSource("fixed")
var JazSourceSensor = JazSource("sensor")
var JazSourceMissing = JazSource("missing")

// EnergyMode describes which energy sensors are configured.
type EnergyMode string

var EnergyModeSplit = EnergyMode("split")
var EnergyModeHeatingOnly = EnergyMode("heating_only")
var EnergyModeFallbackTotal = EnergyMode("fallback_total")

type BaseLoadSource string

var BaseLoadSourceWW = BaseLoadSource("ww")
var BaseLoadSourceRegression = BaseLoadSource("regression")

// Period is the analysis window.
type Period string

var Period30d = Period("30d")
var Period90d = Period("90d")
var Period365d = Period("365d")

// Days returns the window length. Unknown periods fall back to 90 days.
func (p Period) Days() int {
	switch p {
	case Period30d:
		return 30
	case Period365d:
		return 365
	}
	return 90
}

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Period30d, Period90d, Period365d:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

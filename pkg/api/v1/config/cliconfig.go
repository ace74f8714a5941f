package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nergy-se/insight/pkg/api/v1/types"
	"github.com/nergy-se/insight/pkg/insight"
)

type CliConfig struct {
	// Home Assistant base url. The websocket endpoint is derived from it.
	Server    string `default:"http://homeassistant.local:8123"`
	APIToken  string
	TokenFile string `default:"/etc/insighttoken"`

	EnergyHeating  string
	EnergyHotwater string
	EnergyTotal    string
	OutdoorTemp    string

	// Comma separated list of 30d, 90d and 365d.
	Periods      string  `default:"90d"`
	HeatingLimit float64 `default:"15"`
	Area         float64
	// FixedJaz wins over ScopSensor when set.
	FixedJaz               float64
	ScopSensor             string
	CopCold                float64 `default:"2.5"`
	ElectricityPrice       float64
	ElectricityPriceSensor string

	// Location used for calendar days, empty means local time.
	Timezone string

	// Mqtt starts the embedded broker, an empty MqttAddress keeps it
	// without a TCP listener.
	Mqtt        bool   `default:"true"`
	MqttAddress string `default:":1883"`
	MqttTopic   string `default:"heatpump/insight"`
	// Empty disables the metrics listener.
	MetricsAddress string `default:":9110"`

	LogLevel string `default:"info"`

	mutex sync.RWMutex
}

func (c *CliConfig) Token() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.APIToken
}

func (c *CliConfig) SetToken(t string) {
	c.mutex.Lock()
	c.APIToken = strings.TrimSpace(t)
	c.mutex.Unlock()
}

func (c *CliConfig) PersistToken() error {
	if c.TokenFile == "" {
		return nil
	}
	return os.WriteFile(c.TokenFile, []byte(c.Token()), 0600)
}

// LoadToken reads the token file unless a token was given directly.
func (c *CliConfig) LoadToken() error {
	if c.TokenFile == "" || c.Token() != "" {
		return nil
	}
	if _, err := os.Stat(c.TokenFile); err == nil {
		b, err := os.ReadFile(c.TokenFile)
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return nil // dont load empty token
		}

		c.SetToken(string(b))
	}
	return nil
}

func (c *CliConfig) Entities() insight.Entities {
	return insight.Entities{
		EnergyHeating:  c.EnergyHeating,
		EnergyHotwater: c.EnergyHotwater,
		EnergyTotal:    c.EnergyTotal,
		OutdoorTemp:    c.OutdoorTemp,
	}
}

func (c *CliConfig) AnalysisPeriods() ([]types.Period, error) {
	var periods []types.Period
	for _, s := range strings.Split(c.Periods, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		p, err := types.ParsePeriod(s)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	if len(periods) == 0 {
		return []types.Period{types.Period90d}, nil
	}
	return periods, nil
}

func (c *CliConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("error loading timezone: %w", err)
	}
	return loc, nil
}

// Validate checks the settings the analysis cannot run without.
func (c *CliConfig) Validate() error {
	if c.OutdoorTemp == "" {
		return fmt.Errorf("outdoortemp must be configured")
	}
	if _, ok := insight.ResolveEnergy(c.Entities()); !ok {
		return fmt.Errorf("one of energyheating or energytotal must be configured")
	}
	if _, err := c.AnalysisPeriods(); err != nil {
		return err
	}
	return nil
}

package e2e

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/nergy-se/insight/pkg/api/v1/config"
	"github.com/nergy-se/insight/pkg/api/v1/report"
	"github.com/nergy-se/insight/pkg/api/v1/types"
	"github.com/nergy-se/insight/pkg/app"
	"github.com/nergy-se/insight/pkg/hass/hasstest"
	"github.com/nergy-se/insight/pkg/statistics"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mqttAddress = "127.0.0.1:18830"

// heating = 1.5 * hdd, hot water 3 kWh a day, temperatures between -5 and 12.
func recordedStats(now time.Time, days int) statistics.Result {
	stats := statistics.Result{}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for i := 1; i <= days; i++ {
		start := today.AddDate(0, 0, -i)
		temp := 12 - float64(i%18)
		hdd := 15 - temp
		if hdd < 0 {
			hdd = 0
		}
		stats["sensor.heatpump_heating_energy"] = append(stats["sensor.heatpump_heating_energy"], statistics.Sample{Start: start, Change: statistics.Float(1.5 * hdd)})
		stats["sensor.heatpump_hotwater_energy"] = append(stats["sensor.heatpump_hotwater_energy"], statistics.Sample{Start: start, Change: statistics.Float(3)})
		stats["sensor.outdoor_temperature"] = append(stats["sensor.outdoor_temperature"], statistics.Sample{Start: start, Mean: statistics.Float(temp)})
	}
	return stats
}

func TestPublishesReportOverMqtt(t *testing.T) {
	logrus.SetLevel(logrus.DebugLevel)
	ha := hasstest.New("secret")
	defer ha.Close()
	ha.SetStatistics(recordedStats(time.Now().UTC(), 60))
	ha.SetState("sensor.heatpump_scop", "3.8")

	conf := &config.CliConfig{
		Server:         ha.URL,
		APIToken:       "secret",
		EnergyHeating:  "sensor.heatpump_heating_energy",
		EnergyHotwater: "sensor.heatpump_hotwater_energy",
		OutdoorTemp:    "sensor.outdoor_temperature",
		Periods:        "30d",
		HeatingLimit:   15,
		Area:           120,
		ScopSensor:     "sensor.heatpump_scop",
		CopCold:        2.5,
		Timezone:       "UTC",
		Mqtt:           true,
		MqttAddress:    mqttAddress,
		MqttTopic:      "heatpump/insight",
		LogLevel:       "debug",
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := app.New(conf)
	require.NoError(t, a.Start(ctx))
	defer func() {
		cancel()
		a.Wait()
	}()

	assert.Eventually(t, func() bool {
		return a.Report(types.Period30d) != nil
	}, 5*time.Second, 20*time.Millisecond)

	var mu sync.Mutex
	received := map[string][]byte{}
	opts := paho.NewClientOptions().
		AddBroker("tcp://" + mqttAddress).
		SetClientID("e2e").
		SetConnectTimeout(2 * time.Second)
	client := paho.NewClient(opts)
	token := client.Connect()
	require.True(t, token.WaitTimeout(2*time.Second))
	require.NoError(t, token.Error())
	defer client.Disconnect(100)

	token = client.Subscribe("heatpump/insight/#", 1, func(_ paho.Client, msg paho.Message) {
		mu.Lock()
		received[msg.Topic()] = msg.Payload()
		mu.Unlock()
	})
	require.True(t, token.WaitTimeout(2*time.Second))
	require.NoError(t, token.Error())

	var payload []byte
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		payload = received["heatpump/insight/30d"]
		return payload != nil
	}, 5*time.Second, 20*time.Millisecond)

	r := &report.Report{}
	require.NoError(t, json.Unmarshal(payload, r))
	assert.Equal(t, types.Period30d, r.Period)
	assert.Equal(t, types.EnergyModeSplit, r.EnergyMode)
	assert.InDelta(t, 1.5, r.Metrics.Slope, 1e-9)
	assert.InDelta(t, 3, r.Metrics.BaseLoad, 1e-9)
	assert.Equal(t, types.BaseLoadSourceWW, r.Metrics.BaseLoadSource)
	assert.Equal(t, types.JazSourceSensor, r.Dimensioning.JazSource)
	assert.InDelta(t, 3.8, r.Dimensioning.Jaz, 1e-9)
	assert.NotEmpty(t, r.Days)

	cmds := ha.Commands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, "recorder/statistics_during_period", cmds[0].Type)
	assert.ElementsMatch(t, []string{
		"sensor.heatpump_heating_energy",
		"sensor.heatpump_hotwater_energy",
		"sensor.outdoor_temperature",
	}, cmds[0].StatisticIDs)
}

func TestRejectsInvalidToken(t *testing.T) {
	ha := hasstest.New("secret")
	defer ha.Close()
	ha.SetStatistics(recordedStats(time.Now().UTC(), 60))

	conf := &config.CliConfig{
		Server:        ha.URL,
		APIToken:      "wrong",
		EnergyHeating: "sensor.heatpump_heating_energy",
		OutdoorTemp:   "sensor.outdoor_temperature",
		Periods:       "30d",
		HeatingLimit:  15,
		CopCold:       2.5,
		Timezone:      "UTC",
	}
	a := app.New(conf)
	_, err := a.Analyze(context.Background(), types.Period30d)
	assert.Error(t, err)
	assert.Nil(t, a.Report(types.Period30d))
}

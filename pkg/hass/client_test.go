package hass

import (
	"context"
	"testing"
	"time"

	"github.com/nergy-se/insight/pkg/hass/hasstest"
	"github.com/nergy-se/insight/pkg/statistics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func token(t string) func() string {
	return func() string { return t }
}

func TestStatisticsDuringPeriod(t *testing.T) {
	ha := hasstest.New("mysecrettoken")
	defer ha.Close()

	start := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	ha.SetStatistics(statistics.Result{
		"sensor.heating": {{Start: start, Change: statistics.Float(12.5)}},
		"sensor.outdoor": {{Start: start, Mean: statistics.Float(-3)}},
		"sensor.other":   {{Start: start, Mean: statistics.Float(1)}},
	})

	client := New(ha.URL, token("mysecrettoken"))
	res, err := client.StatisticsDuringPeriod(context.Background(), StatisticsRequest{
		Start: start,
		End:   start.AddDate(0, 0, 3),
		IDs:   []string{"sensor.heating", "sensor.outdoor"},
	})
	require.NoError(t, err)

	assert.Len(t, res, 2)
	require.Len(t, res["sensor.heating"], 1)
	assert.Equal(t, 12.5, *res["sensor.heating"][0].Change)
	assert.True(t, start.Equal(res["sensor.heating"][0].Start))
	assert.Equal(t, -3.0, *res["sensor.outdoor"][0].Mean)

	cmds := ha.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "recorder/statistics_during_period", cmds[0].Type)
	assert.Equal(t, "2026-02-10T00:00:00Z", cmds[0].StartTime)
	assert.Equal(t, "2026-02-13T00:00:00Z", cmds[0].EndTime)
	assert.Equal(t, "day", cmds[0].Period)
	assert.Equal(t, []string{"change", "mean"}, cmds[0].Types)
}

func TestStatisticsDuringPeriodInvalidToken(t *testing.T) {
	ha := hasstest.New("mysecrettoken")
	defer ha.Close()

	client := New(ha.URL, token("wrong"))
	_, err := client.StatisticsDuringPeriod(context.Background(), StatisticsRequest{IDs: []string{"sensor.heating"}})
	assert.ErrorIs(t, err, ErrAuthInvalid)
}

func TestStatisticsDuringPeriodError(t *testing.T) {
	ha := hasstest.New("mysecrettoken")
	defer ha.Close()
	ha.FailNext()

	client := New(ha.URL, token("mysecrettoken"))
	_, err := client.StatisticsDuringPeriod(context.Background(), StatisticsRequest{IDs: []string{"sensor.heating"}})
	assert.ErrorContains(t, err, "unknown_command")
}

func TestState(t *testing.T) {
	ha := hasstest.New("mysecrettoken")
	defer ha.Close()
	ha.SetState("sensor.scop", "3.8")
	ha.SetState("sensor.price", "unavailable")
	ha.SetState("sensor.mode", "heating")

	client := New(ha.URL+"/", token("mysecrettoken"))
	v, err := client.State(context.Background(), "sensor.scop")
	assert.NoError(t, err)
	assert.Equal(t, 3.8, v)

	_, err = client.State(context.Background(), "sensor.price")
	assert.ErrorIs(t, err, ErrStateUnavailable)

	_, err = client.State(context.Background(), "sensor.mode")
	assert.Error(t, err)

	_, err = client.State(context.Background(), "sensor.missing")
	assert.ErrorContains(t, err, "StatusCode: 404")

	_, err = New(ha.URL, token("wrong")).State(context.Background(), "sensor.scop")
	assert.ErrorContains(t, err, "StatusCode: 401")
}

func TestWebsocketURL(t *testing.T) {
	u, err := New("https://ha.example.com:8123/", token("")).websocketURL()
	assert.NoError(t, err)
	assert.Equal(t, "wss://ha.example.com:8123/api/websocket", u)

	u, err = New("http://10.0.0.2:8123", token("")).websocketURL()
	assert.NoError(t, err)
	assert.Equal(t, "ws://10.0.0.2:8123/api/websocket", u)
}

func TestStatisticsDuringPeriodCancel(t *testing.T) {
	ha := hasstest.New("mysecrettoken")
	defer ha.Close()
	release := ha.Hold()
	defer release()

	client := New(ha.URL, token("mysecrettoken"))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := client.StatisticsDuringPeriod(ctx, StatisticsRequest{IDs: []string{"sensor.heating"}})
		errCh <- err
	}()

	assert.Eventually(t, func() bool {
		return len(ha.Commands()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("statistics request did not return after cancel")
	}
}

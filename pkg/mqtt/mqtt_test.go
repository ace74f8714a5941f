package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nergy-se/insight/pkg/api/v1/report"
	"github.com/nergy-se/insight/pkg/api/v1/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	defer func() {
		cancel()
		wg.Wait()
	}()

	broker, err := Start(ctx, wg, "", "heatpump/insight")
	require.NoError(t, err)

	type msg struct {
		topic   string
		payload []byte
	}
	received := make(chan msg, 10)
	err = broker.Subscribe("heatpump/insight/#", 1, func(topic string, payload []byte) {
		received <- msg{topic: topic, payload: payload}
	})
	require.NoError(t, err)

	err = broker.PublishReport(&report.Report{Period: types.Period30d, TotalDaysPeriod: 29})
	require.NoError(t, err)

	select {
	case m := <-received:
		assert.Equal(t, "heatpump/insight/30d", m.topic)
		r := &report.Report{}
		assert.NoError(t, json.Unmarshal(m.payload, r))
		assert.Equal(t, types.Period30d, r.Period)
		assert.Equal(t, 29, r.TotalDaysPeriod)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for report")
	}
}

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/nergy-se/insight/pkg/api/v1/report"
	"github.com/sirupsen/logrus"
)

// Broker is an embedded MQTT broker that reports are published on.
type Broker struct {
	server *mqttv2.Server
	topic  string
}

// Start runs the broker until ctx is done. An empty address starts it
// without a TCP listener, only the inline client is available then.
func Start(ctx context.Context, wg *sync.WaitGroup, address, topic string) (*Broker, error) {
	server := mqttv2.New(&mqttv2.Options{
		InlineClient: true,
	})

	// Allow all connections.
	_ = server.AddHook(new(auth.AllowHook), nil)

	if address != "" {
		tcp := listeners.NewTCP(listeners.Config{ID: "t1", Address: address})
		err := server.AddListener(tcp)
		if err != nil {
			return nil, err
		}
	}

	err := server.Serve()
	if err != nil {
		return nil, err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		server.Close()
	}()
	return &Broker{server: server, topic: topic}, nil
}

// Topic returns the topic a period is published on.
func (b *Broker) Topic(period string) string {
	return fmt.Sprintf("%s/%s", b.topic, period)
}

// PublishReport publishes a retained report so new subscribers get the
// latest analysis right away.
func (b *Broker) PublishReport(r *report.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	topic := b.Topic(string(r.Period))
	logrus.Debugf("mqtt: publishing %d bytes to %s", len(payload), topic)
	return b.server.Publish(topic, payload, true, 0)
}

// ClearReport removes the retained report of a period.
func (b *Broker) ClearReport(period string) error {
	return b.server.Publish(b.Topic(period), []byte{}, true, 0)
}

// Subscribe registers an inline subscription, used by tests and debugging.
func (b *Broker) Subscribe(filter string, id int, fn func(topic string, payload []byte)) error {
	return b.server.Subscribe(filter, id, func(cl *mqttv2.Client, sub packets.Subscription, pk packets.Packet) {
		fn(pk.TopicName, pk.Payload)
	})
}

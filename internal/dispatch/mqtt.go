package dispatch

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Publisher pushes events onto per-device MQTT command topics for devices
// that hold a broker connection instead of a websocket session.
type Publisher struct {
	client mqtt.Client
}

// CommandTopic is where a device subscribes for its change notifications.
func CommandTopic(deviceID string) string {
	return fmt.Sprintf("tv/%s/commands", deviceID)
}

func NewPublisher(brokerURL, clientID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("[mqtt] connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("[mqtt] connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Publisher{client: client}, nil
}

func (p *Publisher) Publish(deviceID string, payload []byte) error {
	token := p.client.Publish(CommandTopic(deviceID), 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", CommandTopic(deviceID), err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// Package notify fans out passenger status events so parent and dashboard
// clients can receive push updates. Events are published over MQTT; the
// reconciliation path only hands the dispatcher a transition result and
// never blocks on delivery.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/schooltransit/backend/internal/models"
)

// PassengerEvent is the payload published after a status transition.
type PassengerEvent struct {
	EventID    string                 `json:"event_id"`
	TripID     string                 `json:"trip_id"`
	StudentID  string                 `json:"student_id"`
	Status     models.PassengerStatus `json:"status"`
	UpdatedBy  string                 `json:"updated_by"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Dispatcher delivers passenger events to interested clients.
type Dispatcher interface {
	PassengerStatusChanged(event PassengerEvent)
	Close()
}

// MQTTDispatcher publishes passenger events to per-trip and per-student
// MQTT topics.
type MQTTDispatcher struct {
	client  mqtt.Client
	timeout time.Duration
}

// NewMQTTDispatcher connects to the broker and returns a dispatcher.
func NewMQTTDispatcher(brokerURL, clientID string) (*MQTTDispatcher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect to %s failed: %v", brokerURL, token.Error())
	}

	return &MQTTDispatcher{client: client, timeout: 5 * time.Second}, nil
}

// PassengerStatusChanged publishes the event. Delivery failures are logged,
// not propagated: a missed push must never fail the status write that
// already committed.
func (d *MQTTDispatcher) PassengerStatusChanged(event PassengerEvent) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("failed to encode passenger event")
		return
	}

	topics := []string{
		fmt.Sprintf("schooltransit/trips/%s/passengers", event.TripID),
		fmt.Sprintf("schooltransit/students/%s", event.StudentID),
	}
	for _, topic := range topics {
		token := d.client.Publish(topic, 1, false, payload)
		if !token.WaitTimeout(d.timeout) || token.Error() != nil {
			log.WithFields(log.Fields{
				"topic":    topic,
				"event_id": event.EventID,
			}).WithError(token.Error()).Warn("failed to publish passenger event")
		}
	}
}

// Close disconnects from the broker.
func (d *MQTTDispatcher) Close() {
	d.client.Disconnect(250)
}

// NoopDispatcher drops every event. Used when no broker is configured.
type NoopDispatcher struct{}

func (NoopDispatcher) PassengerStatusChanged(event PassengerEvent) {}
func (NoopDispatcher) Close()                                      {}

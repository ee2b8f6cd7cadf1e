package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schooltransit/backend/internal/models"
)

func TestPassengerEvent_JSON(t *testing.T) {
	event := PassengerEvent{
		EventID:    "e1",
		TripID:     "t1",
		StudentID:  "s1",
		Status:     models.StatusBoarded,
		UpdatedBy:  "driver-1",
		OccurredAt: time.Date(2026, 3, 9, 7, 42, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "boarded", decoded["status"])
	assert.Equal(t, "t1", decoded["trip_id"])
	assert.Equal(t, "s1", decoded["student_id"])
}

func TestNoopDispatcher(t *testing.T) {
	var d Dispatcher = NoopDispatcher{}

	// Must accept events and close without side effects.
	d.PassengerStatusChanged(PassengerEvent{TripID: "t1"})
	d.Close()
}

func TestNewMQTTDispatcher_BadBroker(t *testing.T) {
	_, err := NewMQTTDispatcher("tcp://127.0.0.1:1", "schooltransit-test")
	assert.Error(t, err)
}

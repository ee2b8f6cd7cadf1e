package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/schooltransit/backend/internal/models"
	"github.com/schooltransit/backend/internal/roster"
)

func setupTripCollection(t *testing.T) *MongoTripCollection {
	t.Helper()

	client, err := ConnectMongo()
	if err != nil {
		t.Skipf("failed to create client: %v, skipping integration test", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	collection := client.Database("test_schooltransit").Collection("trips")
	collection.Drop(context.Background())

	return &MongoTripCollection{Collection: collection}
}

func seedTrip(t *testing.T, trips *MongoTripCollection) string {
	t.Helper()

	passengers := []models.Passenger{
		{StudentID: "s1", Name: "Ana", Status: models.StatusPending},
		{StudentID: "s2", Name: "Ben", Status: models.StatusPending},
		{StudentID: "s3", Name: "Caro", Status: models.StatusPending},
	}
	trip := models.Trip{
		RouteID:    "r1",
		BusID:      "b1",
		DriverID:   "d1",
		Direction:  "pickup",
		Date:       "2026-03-09",
		Status:     "scheduled",
		Passengers: passengers,
		Counts:     roster.ComputeCounts(passengers),
	}

	id, err := trips.InsertTrip(context.Background(), trip)
	require.NoError(t, err)
	return id
}

func TestMongoTripCollection_InsertAndFind(t *testing.T) {
	trips := setupTripCollection(t)
	id := seedTrip(t, trips)

	trip, err := trips.FindTripByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "r1", trip.RouteID)
	assert.Len(t, trip.Passengers, 3)
	assert.Equal(t, models.TripCounts{Pending: 3}, trip.Counts)
	assert.NotZero(t, trip.CreatedAt)
}

func TestMongoTripCollection_FindTripByID_NotFound(t *testing.T) {
	trips := setupTripCollection(t)

	_, err := trips.FindTripByID(context.Background(), "65f000000000000000000000")
	assert.ErrorIs(t, err, ErrTripNotFound)

	_, err = trips.FindTripByID(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, ErrInvalidTripID)
}

// A malformed ID fails before the store is touched, so the sentinel is
// checkable without a running database.
func TestMongoTripCollection_InvalidIDSentinel(t *testing.T) {
	trips := &MongoTripCollection{}

	_, err := trips.FindTripByID(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, ErrInvalidTripID)

	err = trips.UpdateTripStatus(context.Background(), "not-an-id", "completed", time.Now())
	assert.ErrorIs(t, err, ErrInvalidTripID)

	err = trips.CommitTransition(context.Background(), "not-an-id", models.StatusPending, models.Passenger{}, models.CountDelta{})
	assert.ErrorIs(t, err, ErrInvalidTripID)
}

func TestMongoTripCollection_CommitTransition(t *testing.T) {
	trips := setupTripCollection(t)
	id := seedTrip(t, trips)

	trip, err := trips.FindTripByID(context.Background(), id)
	require.NoError(t, err)

	passenger := trip.FindPassenger("s2")
	require.NotNil(t, passenger)

	updated, delta, err := roster.ApplyTransition(*passenger, models.StatusBoarded, "d1", time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, err)

	err = trips.CommitTransition(context.Background(), id, passenger.Status, updated, delta)
	require.NoError(t, err)

	after, err := trips.FindTripByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBoarded, after.FindPassenger("s2").Status)
	assert.Equal(t, models.TripCounts{Pending: 2, Boarded: 1}, after.Counts)
	assert.Equal(t, roster.ComputeCounts(after.Passengers), after.Counts)
}

func TestMongoTripCollection_CommitTransition_Conflict(t *testing.T) {
	trips := setupTripCollection(t)
	id := seedTrip(t, trips)

	trip, err := trips.FindTripByID(context.Background(), id)
	require.NoError(t, err)
	passenger := *trip.FindPassenger("s1")

	// Two actors compute a transition from the same pending snapshot.
	now := time.Now().UTC().Truncate(time.Millisecond)
	first, firstDelta, err := roster.ApplyTransition(passenger, models.StatusBoarded, "driver", now)
	require.NoError(t, err)
	second, secondDelta, err := roster.ApplyTransition(passenger, models.StatusAbsent, "supervisor", now)
	require.NoError(t, err)

	require.NoError(t, trips.CommitTransition(context.Background(), id, passenger.Status, first, firstDelta))

	// The second write lost the race: its precondition no longer holds.
	err = trips.CommitTransition(context.Background(), id, passenger.Status, second, secondDelta)
	assert.ErrorIs(t, err, ErrTransitionConflict)

	// Counts stayed consistent with the roster.
	after, err := trips.FindTripByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, roster.ComputeCounts(after.Passengers), after.Counts)
	assert.Equal(t, 3, after.Counts.Total())
}

func TestMongoTripCollection_ResyncCounts(t *testing.T) {
	trips := setupTripCollection(t)
	id := seedTrip(t, trips)

	// Corrupt the stored counts directly to simulate drift.
	trip, err := trips.FindTripByID(context.Background(), id)
	require.NoError(t, err)
	_, err = trips.Collection.UpdateOne(context.Background(),
		bson.M{"_id": trip.ID},
		bson.M{"$set": bson.M{"counts": models.TripCounts{Boarded: 99}}},
	)
	require.NoError(t, err)

	counts, err := trips.ResyncCounts(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.TripCounts{Pending: 3}, counts)

	after, err := trips.FindTripByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, counts, after.Counts)
}

func TestMongoTripCollection_UpdateTripStatus(t *testing.T) {
	trips := setupTripCollection(t)
	id := seedTrip(t, trips)

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, trips.UpdateTripStatus(context.Background(), id, "in_progress", now))

	trip, err := trips.FindTripByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", trip.Status)
	require.NotNil(t, trip.StartedAt)

	err = trips.UpdateTripStatus(context.Background(), "65f000000000000000000000", "completed", now)
	assert.ErrorIs(t, err, ErrTripNotFound)
}

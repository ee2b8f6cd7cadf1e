package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schooltransit/backend/internal/models"
	"github.com/schooltransit/backend/internal/roster"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrTripNotFound is returned when no trip matches the given ID.
	ErrTripNotFound = errors.New("trip not found")
	// ErrInvalidTripID is returned when the given ID is not a valid object
	// ID, as opposed to a store failure.
	ErrInvalidTripID = errors.New("invalid trip ID")
	// ErrTransitionConflict is returned when a passenger's stored status no
	// longer matches the status the transition was computed from. The caller
	// re-reads the trip and retries.
	ErrTransitionConflict = errors.New("passenger status changed concurrently")
)

// TripCollection defines the interface for trip and roster operations
type TripCollection interface {
	InsertTrip(ctx context.Context, trip models.Trip) (string, error)
	FindTripByID(ctx context.Context, id string) (*models.Trip, error)
	FindTrips(ctx context.Context, filter bson.M) ([]models.Trip, error)
	UpdateTripStatus(ctx context.Context, id string, status string, at time.Time) error
	CommitTransition(ctx context.Context, tripID string, oldStatus models.PassengerStatus, updated models.Passenger, delta models.CountDelta) error
	ResyncCounts(ctx context.Context, tripID string) (models.TripCounts, error)
}

// MongoTripCollection implements TripCollection for MongoDB
type MongoTripCollection struct {
	Collection *mongo.Collection
}

// InsertTrip inserts a trip with its seeded roster and returns the new ID.
func (c *MongoTripCollection) InsertTrip(ctx context.Context, trip models.Trip) (string, error) {
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = time.Now()
	result, err := c.Collection.InsertOne(ctx, trip)
	if err != nil {
		return "", err
	}
	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted ID type %T", result.InsertedID)
	}
	return oid.Hex(), nil
}

// FindTripByID finds a trip by its ID.
func (c *MongoTripCollection) FindTripByID(ctx context.Context, id string) (*models.Trip, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTripID, err)
	}

	var trip models.Trip
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &trip, nil
}

// FindTrips queries trip records from the collection.
func (c *MongoTripCollection) FindTrips(ctx context.Context, filter bson.M) ([]models.Trip, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var trips []models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// UpdateTripStatus moves a trip through its lifecycle and stamps the
// start or end time.
func (c *MongoTripCollection) UpdateTripStatus(ctx context.Context, id string, status string, at time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTripID, err)
	}

	set := bson.M{"status": status, "updated_at": at}
	switch status {
	case "in_progress":
		set["started_at"] = at
	case "completed", "cancelled":
		set["ended_at"] = at
	}

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrTripNotFound
	}
	return nil
}

// CommitTransition applies one passenger status change and its counter
// delta in a single document write. The filter requires the passenger to
// still hold oldStatus, so a concurrent transition on the same passenger
// cannot be overwritten and no delta is ever lost: either this write lands
// on the state it was computed from, or it fails with
// ErrTransitionConflict.
func (c *MongoTripCollection) CommitTransition(ctx context.Context, tripID string, oldStatus models.PassengerStatus, updated models.Passenger, delta models.CountDelta) error {
	objectID, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTripID, err)
	}

	filter := bson.M{
		"_id": objectID,
		"passengers": bson.M{"$elemMatch": bson.M{
			"student_id": updated.StudentID,
			"status":     oldStatus,
		}},
	}
	update := bson.M{
		"$set": bson.M{
			"passengers.$": updated,
			"updated_at":   updated.UpdatedAt,
		},
		"$inc": bson.M{
			"counts.boarded": delta.Boarded,
			"counts.dropped": delta.Dropped,
			"counts.absent":  delta.Absent,
			"counts.pending": delta.Pending,
		},
	}

	result, err := c.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrTransitionConflict
	}
	return nil
}

// ResyncCounts recomputes a trip's counts from its roster and stores the
// result, correcting any drift the incremental path may have accumulated.
func (c *MongoTripCollection) ResyncCounts(ctx context.Context, tripID string) (models.TripCounts, error) {
	trip, err := c.FindTripByID(ctx, tripID)
	if err != nil {
		return models.TripCounts{}, err
	}

	counts := roster.ReconcileTripCounts(trip.Passengers)

	objectID, _ := primitive.ObjectIDFromHex(tripID)
	_, err = c.Collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"counts": counts, "updated_at": time.Now()}},
	)
	if err != nil {
		return models.TripCounts{}, err
	}
	return counts, nil
}

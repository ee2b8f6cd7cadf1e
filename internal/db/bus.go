package db

import (
	"context"
	"fmt"
	"time"

	"github.com/schooltransit/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// BusCollection defines the interface for fleet bus operations
type BusCollection interface {
	InsertBus(ctx context.Context, bus models.Bus) error
	FindBusByID(ctx context.Context, id string) (*models.Bus, error)
	FindBuses(ctx context.Context, filter bson.M) ([]models.Bus, error)
	UpdateBus(ctx context.Context, id string, bus models.Bus) error
	DeleteBus(ctx context.Context, id string) error
}

// MongoBusCollection implements BusCollection for MongoDB
type MongoBusCollection struct {
	Collection *mongo.Collection
}

// InsertBus inserts a bus record into the collection.
func (c *MongoBusCollection) InsertBus(ctx context.Context, bus models.Bus) error {
	bus.CreatedAt = time.Now()
	if bus.Status == "" {
		bus.Status = "active"
	}
	_, err := c.Collection.InsertOne(ctx, bus)
	return err
}

// FindBusByID finds a bus by its ID.
func (c *MongoBusCollection) FindBusByID(ctx context.Context, id string) (*models.Bus, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid bus ID: %w", err)
	}

	var bus models.Bus
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&bus)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("bus not found")
		}
		return nil, err
	}
	return &bus, nil
}

// FindBuses queries bus records from the collection.
func (c *MongoBusCollection) FindBuses(ctx context.Context, filter bson.M) ([]models.Bus, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var buses []models.Bus
	if err := cursor.All(ctx, &buses); err != nil {
		return nil, err
	}
	return buses, nil
}

// UpdateBus updates a bus record by its ID.
func (c *MongoBusCollection) UpdateBus(ctx context.Context, id string, bus models.Bus) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid bus ID: %w", err)
	}

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bus})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("bus not found")
	}
	return nil
}

// DeleteBus deletes a bus record by its ID.
func (c *MongoBusCollection) DeleteBus(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid bus ID: %w", err)
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("bus not found")
	}
	return nil
}

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

// RouteCollection defines the interface for route operations
type RouteCollection interface {
	InsertRoute(ctx context.Context, route models.Route) error
	FindRouteByID(ctx context.Context, id string) (*models.Route, error)
	FindRoutes(ctx context.Context, filter bson.M) ([]models.Route, error)
	UpdateRoute(ctx context.Context, id string, route models.Route) error
	DeleteRoute(ctx context.Context, id string) error
}

// MongoRouteCollection implements RouteCollection for MongoDB
type MongoRouteCollection struct {
	Collection *mongo.Collection
}

// InsertRoute inserts a route record into the collection.
func (c *MongoRouteCollection) InsertRoute(ctx context.Context, route models.Route) error {
	route.CreatedAt = time.Now()
	route.UpdatedAt = time.Now()
	if route.Status == "" {
		route.Status = "active"
	}
	_, err := c.Collection.InsertOne(ctx, route)
	return err
}

// FindRouteByID finds a route by its ID.
func (c *MongoRouteCollection) FindRouteByID(ctx context.Context, id string) (*models.Route, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid route ID: %w", err)
	}

	var route models.Route
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&route)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("route not found")
		}
		return nil, err
	}
	return &route, nil
}

// FindRoutes queries route records from the collection.
func (c *MongoRouteCollection) FindRoutes(ctx context.Context, filter bson.M) ([]models.Route, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var routes []models.Route
	if err := cursor.All(ctx, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// UpdateRoute updates a route record by its ID.
func (c *MongoRouteCollection) UpdateRoute(ctx context.Context, id string, route models.Route) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid route ID: %w", err)
	}

	route.UpdatedAt = time.Now()
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": route})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("route not found")
	}
	return nil
}

// DeleteRoute deletes a route record by its ID.
func (c *MongoRouteCollection) DeleteRoute(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid route ID: %w", err)
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("route not found")
	}
	return nil
}

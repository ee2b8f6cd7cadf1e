package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Bus represents a vehicle in the school fleet.
type Bus struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Plate     string             `bson:"plate" json:"plate"`
	Make      string             `bson:"make" json:"make"`
	Model     string             `bson:"model" json:"model"`
	Year      int                `bson:"year" json:"year"`
	Capacity  int                `bson:"capacity" json:"capacity"`
	Status    string             `bson:"status" json:"status"` // "active" or "inactive"
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

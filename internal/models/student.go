package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Student represents a student enrolled in the transport program.
type Student struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Grade          string             `json:"grade" bson:"grade"`
	GuardianUserID string             `json:"guardian_user_id" bson:"guardian_user_id"`
	RouteID        string             `json:"route_id" bson:"route_id"`
	PickupLocation Location           `json:"pickup_location" bson:"pickup_location"`
	Status         string             `json:"status" bson:"status"` // "active" or "inactive"
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// StudentLocation is the pickup-point view of a student consumed by route optimization.
type StudentLocation struct {
	ID   string  `json:"id" bson:"id"`
	Name string  `json:"name" bson:"name"`
	Lat  float64 `json:"lat" bson:"lat"`
	Lon  float64 `json:"lon" bson:"lon"`
}

// PickupPoint converts a student record to its optimizer view.
func (s *Student) PickupPoint() StudentLocation {
	return StudentLocation{
		ID:   s.ID.Hex(),
		Name: s.Name,
		Lat:  s.PickupLocation.Lat,
		Lon:  s.PickupLocation.Lon,
	}
}

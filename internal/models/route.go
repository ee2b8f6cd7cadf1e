package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Route represents a named pickup route ending at a school.
type Route struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	SchoolName     string             `json:"school_name" bson:"school_name"`
	SchoolLocation Location           `json:"school_location" bson:"school_location"`
	Status         string             `json:"status" bson:"status"` // "active" or "inactive"
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// OptimizedStop is one pickup point in an optimized visiting order.
type OptimizedStop struct {
	Student              StudentLocation `json:"student" bson:"student"`
	Order                int             `json:"order" bson:"order"` // 1-based
	DistanceFromSchool   float64         `json:"distance_from_school" bson:"distance_from_school"`     // in kilometers
	DistanceFromPrevious float64         `json:"distance_from_previous" bson:"distance_from_previous"` // in kilometers, 0 for the first stop
}

// RouteStatistics summarizes an optimized stop sequence.
type RouteStatistics struct {
	TotalDistance float64 `json:"total_distance" bson:"total_distance"` // in kilometers, including the return leg to school
	EstimatedTime int     `json:"estimated_time" bson:"estimated_time"` // in minutes
	TotalStops    int     `json:"total_stops" bson:"total_stops"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PassengerStatus represents a passenger's state within one trip.
type PassengerStatus string

const (
	StatusPending PassengerStatus = "pending"
	StatusBoarded PassengerStatus = "boarded"
	StatusAbsent  PassengerStatus = "absent"
	StatusDropped PassengerStatus = "dropped"
)

// IsValidPassengerStatus checks if a status is one of the four recognized values.
func IsValidPassengerStatus(status PassengerStatus) bool {
	switch status {
	case StatusPending, StatusBoarded, StatusAbsent, StatusDropped:
		return true
	default:
		return false
	}
}

// Passenger is a student's status record within one specific trip.
// Records are seeded once per trip and never deleted for the trip's lifetime.
type Passenger struct {
	StudentID string          `json:"student_id" bson:"student_id"`
	Name      string          `json:"name" bson:"name"`
	Status    PassengerStatus `json:"status" bson:"status"`
	BoardedAt *time.Time      `json:"boarded_at,omitempty" bson:"boarded_at,omitempty"`
	DroppedAt *time.Time      `json:"dropped_at,omitempty" bson:"dropped_at,omitempty"`
	UpdatedBy string          `json:"updated_by" bson:"updated_by"`
	UpdatedAt time.Time       `json:"updated_at" bson:"updated_at"`
}

// TripCounts is the aggregate status distribution for a trip's roster.
// Invariant: Boarded + Dropped + Absent + Pending equals the roster size.
type TripCounts struct {
	Boarded int `json:"boarded" bson:"boarded"`
	Dropped int `json:"dropped" bson:"dropped"`
	Absent  int `json:"absent" bson:"absent"`
	Pending int `json:"pending" bson:"pending"`
}

// Total returns the sum of all counters.
func (c TripCounts) Total() int {
	return c.Boarded + c.Dropped + c.Absent + c.Pending
}

// CountDelta is the counter adjustment produced by one status transition.
// Fields may be negative; a zero value means no change.
type CountDelta struct {
	Boarded int `json:"boarded" bson:"boarded"`
	Dropped int `json:"dropped" bson:"dropped"`
	Absent  int `json:"absent" bson:"absent"`
	Pending int `json:"pending" bson:"pending"`
}

// IsZero reports whether the delta changes nothing.
func (d CountDelta) IsZero() bool {
	return d == CountDelta{}
}

// Apply returns the counts after applying the delta.
func (c TripCounts) Apply(d CountDelta) TripCounts {
	return TripCounts{
		Boarded: c.Boarded + d.Boarded,
		Dropped: c.Dropped + d.Dropped,
		Absent:  c.Absent + d.Absent,
		Pending: c.Pending + d.Pending,
	}
}

// Trip represents one bus run with its passenger roster.
type Trip struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RouteID    string             `json:"route_id" bson:"route_id"`
	BusID      string             `json:"bus_id" bson:"bus_id"`
	DriverID   string             `json:"driver_id" bson:"driver_id"`
	Direction  string             `json:"direction" bson:"direction"` // "pickup" or "dropoff"
	Date       string             `json:"date" bson:"date"`           // YYYY-MM-DD
	Status     string             `json:"status" bson:"status"`       // "scheduled", "in_progress", "completed", "cancelled"
	Passengers []Passenger        `json:"passengers" bson:"passengers"`
	Counts     TripCounts         `json:"counts" bson:"counts"`
	StartedAt  *time.Time         `json:"started_at,omitempty" bson:"started_at,omitempty"`
	EndedAt    *time.Time         `json:"ended_at,omitempty" bson:"ended_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// FindPassenger returns the roster entry for a student, or nil when absent from the roster.
func (t *Trip) FindPassenger(studentID string) *Passenger {
	for i := range t.Passengers {
		if t.Passengers[i].StudentID == studentID {
			return &t.Passengers[i]
		}
	}
	return nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/schooltransit/backend/internal/db"
	"github.com/schooltransit/backend/internal/middleware"
	"github.com/schooltransit/backend/internal/models"
	"github.com/schooltransit/backend/internal/notify"
	"github.com/schooltransit/backend/internal/roster"
)

// TripHandler handles trip and roster requests
type TripHandler struct {
	trips      db.TripCollection
	students   db.StudentCollection
	dispatcher notify.Dispatcher
}

// NewTripHandler creates a new trip handler
func NewTripHandler(trips db.TripCollection, students db.StudentCollection, dispatcher notify.Dispatcher) *TripHandler {
	return &TripHandler{
		trips:      trips,
		students:   students,
		dispatcher: dispatcher,
	}
}

// writeTripLookupError maps trip store errors onto responses: a missing
// trip is 404, a malformed ID is the client's fault, anything else is a
// store failure.
func writeTripLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrTripNotFound):
		writeError(w, http.StatusNotFound, "Trip not found")
	case errors.Is(err, db.ErrInvalidTripID):
		writeError(w, http.StatusBadRequest, "Invalid trip ID")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to load trip")
	}
}

// CreateTripRequest is the body for creating a trip.
type CreateTripRequest struct {
	RouteID   string `json:"route_id"`
	BusID     string `json:"bus_id"`
	Direction string `json:"direction"`
	Date      string `json:"date"`
}

// CreateTrip creates a trip and seeds its roster from the route's active
// students. Every passenger starts pending and the stored counts are
// reconciled from the seeded roster, not assumed.
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req CreateTripRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.RouteID == "" || req.BusID == "" || req.Date == "" {
		writeError(w, http.StatusBadRequest, "route_id, bus_id and date are required")
		return
	}
	if req.Direction == "" {
		req.Direction = "pickup"
	}
	if req.Direction != "pickup" && req.Direction != "dropoff" {
		writeError(w, http.StatusBadRequest, "direction must be pickup or dropoff")
		return
	}

	studentList, err := h.students.FindStudentsByRoute(r.Context(), req.RouteID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load route students")
		return
	}

	now := time.Now()
	passengers := make([]models.Passenger, 0, len(studentList))
	for _, student := range studentList {
		passengers = append(passengers, models.Passenger{
			StudentID: student.ID.Hex(),
			Name:      student.Name,
			Status:    models.StatusPending,
			UpdatedBy: claims.UserID,
			UpdatedAt: now,
		})
	}

	trip := models.Trip{
		RouteID:    req.RouteID,
		BusID:      req.BusID,
		DriverID:   claims.UserID,
		Direction:  req.Direction,
		Date:       req.Date,
		Status:     "scheduled",
		Passengers: passengers,
		Counts:     roster.ComputeCounts(passengers),
	}

	id, err := h.trips.InsertTrip(r.Context(), trip)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create trip")
		return
	}

	log.WithFields(log.Fields{
		"trip_id":  id,
		"route_id": req.RouteID,
		"roster":   len(passengers),
	}).Info("trip created")

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     id,
		"counts": trip.Counts,
	})
}

// GetTrip returns a trip. Parents only see trips carrying one of their
// students.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}

	trip, err := h.trips.FindTripByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeTripLookupError(w, err)
		return
	}

	if claims.Role == models.RoleParent && !h.tripHasGuardianStudent(r, trip, claims.UserID) {
		writeError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// ListTrips lists trips scoped by role: drivers see their own runs,
// parents see trips carrying their students, everyone else sees all.
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}

	filter := bson.M{}
	if date := r.URL.Query().Get("date"); date != "" {
		filter["date"] = date
	}
	if routeID := r.URL.Query().Get("route_id"); routeID != "" {
		filter["route_id"] = routeID
	}

	switch claims.Role {
	case models.RoleDriver:
		filter["driver_id"] = claims.UserID
	case models.RoleParent:
		studentList, err := h.students.FindStudentsByGuardian(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load students")
			return
		}
		ids := make([]string, 0, len(studentList))
		for _, s := range studentList {
			ids = append(ids, s.ID.Hex())
		}
		filter["passengers.student_id"] = bson.M{"$in": ids}
	}

	trips, err := h.trips.FindTrips(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list trips")
		return
	}
	if trips == nil {
		trips = []models.Trip{}
	}

	writeJSON(w, http.StatusOK, trips)
}

// UpdateTripStatusRequest is the body for trip lifecycle changes.
type UpdateTripStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTripStatus moves a trip through scheduled/in_progress/completed/cancelled.
func (h *TripHandler) UpdateTripStatus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req UpdateTripStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	switch req.Status {
	case "scheduled", "in_progress", "completed", "cancelled":
	default:
		writeError(w, http.StatusBadRequest, "Invalid trip status")
		return
	}

	err = h.trips.UpdateTripStatus(r.Context(), chi.URLParam(r, "id"), req.Status, time.Now())
	if err != nil {
		writeTripLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// PassengerStatusRequest is the body for a passenger status transition.
type PassengerStatusRequest struct {
	Status models.PassengerStatus `json:"status"`
}

// UpdatePassengerStatus applies one passenger status transition. The
// passenger's current status is read immediately before computing the
// delta, and the record update plus counter increments land in a single
// conditional write. When a concurrent actor wins the race the handler
// re-reads and retries once before reporting a conflict.
func (h *TripHandler) UpdatePassengerStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}

	tripID := chi.URLParam(r, "id")
	studentID := chi.URLParam(r, "studentID")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req PassengerStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	for attempt := 0; attempt < 2; attempt++ {
		trip, err := h.trips.FindTripByID(r.Context(), tripID)
		if err != nil {
			writeTripLookupError(w, err)
			return
		}

		passenger := trip.FindPassenger(studentID)
		if passenger == nil {
			writeError(w, http.StatusNotFound, "Passenger not on this trip")
			return
		}

		updated, delta, err := roster.ApplyTransition(*passenger, req.Status, claims.UserID, time.Now())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid passenger status")
			return
		}

		// Duplicate submit: nothing to write or announce.
		if delta.IsZero() {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"passenger": updated,
				"counts":    trip.Counts,
			})
			return
		}

		err = h.trips.CommitTransition(r.Context(), tripID, passenger.Status, updated, delta)
		if errors.Is(err, db.ErrTransitionConflict) {
			log.WithFields(log.Fields{
				"trip_id":    tripID,
				"student_id": studentID,
				"attempt":    attempt + 1,
			}).Warn("passenger transition conflict, retrying")
			continue
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update passenger status")
			return
		}

		h.dispatcher.PassengerStatusChanged(notify.PassengerEvent{
			TripID:     tripID,
			StudentID:  studentID,
			Status:     updated.Status,
			UpdatedBy:  claims.UserID,
			OccurredAt: updated.UpdatedAt,
		})

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"passenger": updated,
			"counts":    trip.Counts.Apply(delta),
		})
		return
	}

	writeError(w, http.StatusConflict, "Passenger status changed concurrently")
}

// ResyncCounts recomputes a trip's counts from its roster, realigning the
// stored aggregates with ground truth.
func (h *TripHandler) ResyncCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.trips.ResyncCounts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeTripLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"counts": counts})
}

func (h *TripHandler) tripHasGuardianStudent(r *http.Request, trip *models.Trip, guardianUserID string) bool {
	studentList, err := h.students.FindStudentsByGuardian(r.Context(), guardianUserID)
	if err != nil {
		return false
	}
	for _, s := range studentList {
		if trip.FindPassenger(s.ID.Hex()) != nil {
			return true
		}
	}
	return false
}

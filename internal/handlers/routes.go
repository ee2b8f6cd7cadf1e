package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/schooltransit/backend/internal/db"
	"github.com/schooltransit/backend/internal/models"
	"github.com/schooltransit/backend/internal/routing"
)

// RouteHandler handles route planning requests
type RouteHandler struct {
	routes   db.RouteCollection
	students db.StudentCollection
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(routes db.RouteCollection, students db.StudentCollection) *RouteHandler {
	return &RouteHandler{
		routes:   routes,
		students: students,
	}
}

// CreateRoute creates a route.
func (h *RouteHandler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var route models.Route
	if err := json.Unmarshal(body, &route); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if route.Name == "" {
		writeError(w, http.StatusBadRequest, "Route name is required")
		return
	}

	if err := h.routes.InsertRoute(r.Context(), route); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create route")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Route created"})
}

// ListRoutes lists all routes.
func (h *RouteHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.routes.FindRoutes(r.Context(), bson.M{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list routes")
		return
	}
	if routes == nil {
		routes = []models.Route{}
	}
	writeJSON(w, http.StatusOK, routes)
}

// OptimizeRequest is the body for an ad-hoc optimization.
type OptimizeRequest struct {
	School   models.Location          `json:"school"`
	Students []models.StudentLocation `json:"students"`
}

// OptimizeResponse carries the computed stop order and its statistics.
type OptimizeResponse struct {
	Stops      []models.OptimizedStop `json:"stops"`
	Statistics models.RouteStatistics `json:"statistics"`
}

// Optimize computes a pickup order for an arbitrary set of students,
// used by the admin route-planning view before a route is saved.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req OptimizeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	stops := routing.OptimizeRoute(req.Students, req.School)
	writeJSON(w, http.StatusOK, OptimizeResponse{
		Stops:      stops,
		Statistics: routing.RouteStats(stops),
	})
}

// Plan computes the pickup order for a stored route from its assigned
// students' pickup locations.
func (h *RouteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "id")

	route, err := h.routes.FindRouteByID(r.Context(), routeID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Route not found")
		return
	}

	studentList, err := h.students.FindStudentsByRoute(r.Context(), routeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load route students")
		return
	}

	points := make([]models.StudentLocation, 0, len(studentList))
	for _, student := range studentList {
		points = append(points, student.PickupPoint())
	}

	stops := routing.OptimizeRoute(points, route.SchoolLocation)
	writeJSON(w, http.StatusOK, OptimizeResponse{
		Stops:      stops,
		Statistics: routing.RouteStats(stops),
	})
}

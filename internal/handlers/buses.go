package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/schooltransit/backend/internal/db"
	"github.com/schooltransit/backend/internal/models"
)

// BusHandler handles fleet bus requests
type BusHandler struct {
	buses db.BusCollection
}

// NewBusHandler creates a new bus handler
func NewBusHandler(buses db.BusCollection) *BusHandler {
	return &BusHandler{buses: buses}
}

// CreateBus adds a bus to the fleet.
func (h *BusHandler) CreateBus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var bus models.Bus
	if err := json.Unmarshal(body, &bus); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if bus.Plate == "" {
		writeError(w, http.StatusBadRequest, "Bus plate is required")
		return
	}
	if bus.Capacity <= 0 {
		writeError(w, http.StatusBadRequest, "Bus capacity must be positive")
		return
	}

	if err := h.buses.InsertBus(r.Context(), bus); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create bus")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Bus created"})
}

// ListBuses lists the fleet.
func (h *BusHandler) ListBuses(w http.ResponseWriter, r *http.Request) {
	buses, err := h.buses.FindBuses(r.Context(), bson.M{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list buses")
		return
	}
	if buses == nil {
		buses = []models.Bus{}
	}
	writeJSON(w, http.StatusOK, buses)
}

// GetBus returns one bus.
func (h *BusHandler) GetBus(w http.ResponseWriter, r *http.Request) {
	bus, err := h.buses.FindBusByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Bus not found")
		return
	}
	writeJSON(w, http.StatusOK, bus)
}

// UpdateBus updates a bus record.
func (h *BusHandler) UpdateBus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var bus models.Bus
	if err := json.Unmarshal(body, &bus); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.buses.UpdateBus(r.Context(), chi.URLParam(r, "id"), bus); err != nil {
		writeError(w, http.StatusNotFound, "Bus not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bus updated"})
}

// DeleteBus removes a bus from the fleet.
func (h *BusHandler) DeleteBus(w http.ResponseWriter, r *http.Request) {
	if err := h.buses.DeleteBus(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "Bus not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bus deleted"})
}

package handlers

import (
	"encoding/csv"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/schooltransit/backend/internal/db"
)

// ReportHandler produces CSV exports for supervisors and admins
type ReportHandler struct {
	trips db.TripCollection
}

// NewReportHandler creates a new report handler
func NewReportHandler(trips db.TripCollection) *ReportHandler {
	return &ReportHandler{trips: trips}
}

// TripAttendanceCSV streams one row per passenger per matching trip.
// Filters: date, route_id.
func (h *ReportHandler) TripAttendanceCSV(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if date := r.URL.Query().Get("date"); date != "" {
		filter["date"] = date
	}
	if routeID := r.URL.Query().Get("route_id"); routeID != "" {
		filter["route_id"] = routeID
	}

	trips, err := h.trips.FindTrips(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load trips")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trip-attendance.csv"`)

	writer := csv.NewWriter(w)

	writer.Write([]string{
		"trip_id", "date", "route_id", "bus_id", "driver_id", "trip_status",
		"student_id", "student_name", "passenger_status",
		"boarded_at", "dropped_at", "updated_by",
	})

	for _, trip := range trips {
		for _, p := range trip.Passengers {
			writer.Write([]string{
				trip.ID.Hex(),
				trip.Date,
				trip.RouteID,
				trip.BusID,
				trip.DriverID,
				trip.Status,
				p.StudentID,
				p.Name,
				string(p.Status),
				formatTimePtr(p.BoardedAt),
				formatTimePtr(p.DroppedAt),
				p.UpdatedBy,
			})
		}
	}

	// Write errors are sticky on the csv.Writer; the headers are already
	// out, so a truncated export can only be reported in the log.
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.WithError(err).WithField("rows", len(trips)).Error("trip attendance export truncated")
	}
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

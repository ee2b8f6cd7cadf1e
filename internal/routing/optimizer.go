package routing

import (
	"math"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/schooltransit/backend/internal/models"
)

const (
	earthRadiusKm = 6371.0

	// DefaultAverageSpeedKmh is the assumed bus speed for time estimates,
	// representing urban and suburban driving with pickup stops.
	DefaultAverageSpeedKmh = 30.0
)

// Haversine calculates the great-circle distance between two points in kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180.0
	rLon1 := lon1 * math.Pi / 180.0
	rLat2 := lat2 * math.Pi / 180.0
	rLon2 := lon2 * math.Pi / 180.0

	dLat := rLat2 - rLat1
	dLon := rLon2 - rLon1
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// validCoordinates reports whether a pickup point carries usable coordinates.
func validCoordinates(s models.StudentLocation) bool {
	if math.IsNaN(s.Lat) || math.IsInf(s.Lat, 0) || math.IsNaN(s.Lon) || math.IsInf(s.Lon, 0) {
		return false
	}
	return s.Lat >= -90 && s.Lat <= 90 && s.Lon >= -180 && s.Lon <= 180
}

// OptimizeRoute computes the visiting order for a set of pickup points
// relative to the school, optimized from farthest to nearest pickup point:
// the bus starts at the most distant student and works inward, ending at
// school last. Students with equal distances keep their input order, so the
// result is deterministic for a fixed input. Entries without valid
// coordinates are skipped.
func OptimizeRoute(students []models.StudentLocation, school models.Location) []models.OptimizedStop {
	stops := make([]models.OptimizedStop, 0, len(students))
	for _, s := range students {
		if !validCoordinates(s) {
			log.WithFields(log.Fields{
				"student_id": s.ID,
				"lat":        s.Lat,
				"lon":        s.Lon,
			}).Warn("skipping pickup point with invalid coordinates")
			continue
		}
		stops = append(stops, models.OptimizedStop{
			Student:            s,
			DistanceFromSchool: Haversine(s.Lat, s.Lon, school.Lat, school.Lon),
		})
	}

	// Stable sort keeps first-seen order for equal distances.
	sort.SliceStable(stops, func(i, j int) bool {
		return stops[i].DistanceFromSchool > stops[j].DistanceFromSchool
	})

	for i := range stops {
		stops[i].Order = i + 1
		if i == 0 {
			stops[i].DistanceFromPrevious = 0
			continue
		}
		prev := stops[i-1].Student
		cur := stops[i].Student
		stops[i].DistanceFromPrevious = Haversine(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
	}

	return stops
}

// RouteStats summarizes an optimized stop sequence using the default average speed.
func RouteStats(stops []models.OptimizedStop) models.RouteStatistics {
	return RouteStatsAt(stops, DefaultAverageSpeedKmh)
}

// RouteStatsAt summarizes an optimized stop sequence. Total distance covers
// the legs between stops plus the final leg from the last stop back to
// school. Estimated time is the total distance at averageSpeedKmh, rounded
// to whole minutes.
func RouteStatsAt(stops []models.OptimizedStop, averageSpeedKmh float64) models.RouteStatistics {
	if len(stops) == 0 {
		return models.RouteStatistics{}
	}

	total := 0.0
	for _, stop := range stops {
		total += stop.DistanceFromPrevious
	}
	total += stops[len(stops)-1].DistanceFromSchool

	minutes := 0
	if averageSpeedKmh > 0 {
		minutes = int(math.Round(total / averageSpeedKmh * 60))
	}

	return models.RouteStatistics{
		TotalDistance: total,
		EstimatedTime: minutes,
		TotalStops:    len(stops),
	}
}

// NextStop returns the stop after currentIndex, or nil when there is none.
// Out-of-range indexes, negative included, return nil.
func NextStop(stops []models.OptimizedStop, currentIndex int) *models.OptimizedStop {
	next := currentIndex + 1
	if currentIndex < 0 || next >= len(stops) {
		return nil
	}
	return &stops[next]
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	log "github.com/sirupsen/logrus"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Location represents a geographical point with latitude and longitude coordinates.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Student mirrors the API's student creation payload.
type Student struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	Grade          string   `json:"grade"`
	RouteID        string   `json:"route_id"`
	PickupLocation Location `json:"pickup_location"`
}

// Route mirrors the API's route creation payload.
type Route struct {
	Name           string   `json:"name"`
	SchoolName     string   `json:"school_name"`
	SchoolLocation Location `json:"school_location"`
}

// Stop is one entry of an optimized route plan.
type Stop struct {
	Student              Student `json:"student"`
	Order                int     `json:"order"`
	DistanceFromSchool   float64 `json:"distance_from_school"`
	DistanceFromPrevious float64 `json:"distance_from_previous"`
}

// Plan is the optimizer response for a route.
type Plan struct {
	Stops      []Stop `json:"stops"`
	Statistics struct {
		TotalDistance float64 `json:"total_distance"`
		EstimatedTime int     `json:"estimated_time"`
		TotalStops    int     `json:"total_stops"`
	} `json:"statistics"`
}

// Schools for realistic morning runs
var schools = []struct {
	Name     string
	Location Location
}{
	{"Hillside Primary", Location{Lat: 51.5074, Lon: -0.1278}},   // London
	{"Riverside Elementary", Location{Lat: 40.4168, Lon: -3.7038}}, // Madrid
	{"Harbour View School", Location{Lat: 35.1856, Lon: 33.3823}},  // Nicosia
	{"Parkland Academy", Location{Lat: 48.8566, Lon: 2.3522}},      // Paris
	{"Bayside Primary", Location{Lat: 41.0082, Lon: 28.9784}},      // Istanbul
}

var firstNames = []string{"Ana", "Ben", "Caro", "Deniz", "Elif", "Finn", "Grace", "Hugo", "Ines", "Jonas"}
var lastNames = []string{"Torres", "Okafor", "Schmidt", "Yilmaz", "Rossi", "Novak", "Dubois", "Petrov", "Silva", "Khan"}

func jitterLocation(base Location, meters float64) Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

var authToken string

func apiRequest(method, url string, payload interface{}) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	return data, resp.StatusCode, err
}

func login(apiURL, username, password string) error {
	data, status, err := apiRequest(http.MethodPost, apiURL+"/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("login failed with status %d: %s", status, data)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}
	authToken = resp.Token
	return nil
}

func createRouteWithStudents(apiURL string, studentCount int) (string, error) {
	school := schools[rand.Intn(len(schools))]
	routeName := fmt.Sprintf("%s Morning %d", school.Name, rand.Intn(100000))

	_, status, err := apiRequest(http.MethodPost, apiURL+"/api/routes", Route{
		Name:           routeName,
		SchoolName:     school.Name,
		SchoolLocation: school.Location,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("route creation failed with status %d", status)
	}

	// The create endpoint doesn't echo the ID; look it up by name.
	data, status, err := apiRequest(http.MethodGet, apiURL+"/api/routes", nil)
	if err != nil || status != http.StatusOK {
		return "", fmt.Errorf("route listing failed: %v (status %d)", err, status)
	}
	var routes []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &routes); err != nil {
		return "", err
	}
	var routeID string
	for _, route := range routes {
		if route.Name == routeName {
			routeID = route.ID
			break
		}
	}
	if routeID == "" {
		return "", fmt.Errorf("created route %q not found in listing", routeName)
	}

	for i := 0; i < studentCount; i++ {
		name := firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
		student := Student{
			Name:           name,
			Grade:          strconv.Itoa(1+rand.Intn(6)) + "A",
			RouteID:        routeID,
			PickupLocation: jitterLocation(school.Location, 4000),
		}
		if _, status, err := apiRequest(http.MethodPost, apiURL+"/api/students", student); err != nil || status != http.StatusCreated {
			return "", fmt.Errorf("student creation failed: %v (status %d)", err, status)
		}
	}

	return routeID, nil
}

func runTrip(apiURL, routeID string) error {
	data, status, err := apiRequest(http.MethodGet, apiURL+"/api/routes/"+routeID+"/plan", nil)
	if err != nil || status != http.StatusOK {
		return fmt.Errorf("plan fetch failed: %v (status %d)", err, status)
	}
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"stops":          plan.Statistics.TotalStops,
		"total_km":       plan.Statistics.TotalDistance,
		"estimated_mins": plan.Statistics.EstimatedTime,
	}).Info("optimized route plan")

	data, status, err = apiRequest(http.MethodPost, apiURL+"/api/trips", map[string]string{
		"route_id":  routeID,
		"bus_id":    "sim-bus-1",
		"direction": "pickup",
		"date":      time.Now().Format("2006-01-02"),
	})
	if err != nil || status != http.StatusCreated {
		return fmt.Errorf("trip creation failed: %v (status %d)", err, status)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return err
	}
	tripID := created.ID

	if _, status, err = apiRequest(http.MethodPut, apiURL+"/api/trips/"+tripID+"/status", map[string]string{"status": "in_progress"}); err != nil || status != http.StatusOK {
		return fmt.Errorf("trip start failed: %v (status %d)", err, status)
	}

	// Walk the optimized order: board everyone, an occasional no-show.
	boarded := []string{}
	for _, stop := range plan.Stops {
		newStatus := "boarded"
		if rand.Float64() < 0.1 {
			newStatus = "absent"
		}
		url := fmt.Sprintf("%s/api/trips/%s/passengers/%s/status", apiURL, tripID, stop.Student.ID)
		if _, status, err := apiRequest(http.MethodPost, url, map[string]string{"status": newStatus}); err != nil || status != http.StatusOK {
			return fmt.Errorf("passenger update failed: %v (status %d)", err, status)
		}
		log.WithFields(log.Fields{
			"order":   stop.Order,
			"student": stop.Student.Name,
			"status":  newStatus,
		}).Info("stop visited")
		if newStatus == "boarded" {
			boarded = append(boarded, stop.Student.ID)
		}
		time.Sleep(200 * time.Millisecond)
	}

	// Everyone on board gets dropped at school.
	for _, studentID := range boarded {
		url := fmt.Sprintf("%s/api/trips/%s/passengers/%s/status", apiURL, tripID, studentID)
		if _, status, err := apiRequest(http.MethodPost, url, map[string]string{"status": "dropped"}); err != nil || status != http.StatusOK {
			return fmt.Errorf("dropoff update failed: %v (status %d)", err, status)
		}
	}

	if _, status, err = apiRequest(http.MethodPut, apiURL+"/api/trips/"+tripID+"/status", map[string]string{"status": "completed"}); err != nil || status != http.StatusOK {
		return fmt.Errorf("trip completion failed: %v (status %d)", err, status)
	}

	data, status, err = apiRequest(http.MethodGet, apiURL+"/api/trips/"+tripID, nil)
	if err != nil || status != http.StatusOK {
		return fmt.Errorf("trip fetch failed: %v (status %d)", err, status)
	}
	var trip struct {
		Counts struct {
			Boarded int `json:"boarded"`
			Dropped int `json:"dropped"`
			Absent  int `json:"absent"`
			Pending int `json:"pending"`
		} `json:"counts"`
	}
	if err := json.Unmarshal(data, &trip); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"dropped": trip.Counts.Dropped,
		"absent":  trip.Counts.Absent,
		"pending": trip.Counts.Pending,
		"boarded": trip.Counts.Boarded,
	}).Info("trip completed")

	return nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	username := os.Getenv("SIM_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("SIM_PASSWORD")
	if password == "" {
		password = "admin12345"
	}
	studentCount := 8
	if v := os.Getenv("SIM_STUDENTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			studentCount = parsed
		}
	}

	if err := login(apiURL, username, password); err != nil {
		log.WithError(err).Fatal("login failed")
	}
	log.WithField("user", username).Info("logged in")

	routeID, err := createRouteWithStudents(apiURL, studentCount)
	if err != nil {
		log.WithError(err).Fatal("route setup failed")
	}
	log.WithFields(log.Fields{"route_id": routeID, "students": studentCount}).Info("route seeded")

	if err := runTrip(apiURL, routeID); err != nil {
		log.WithError(err).Fatal("trip simulation failed")
	}
}

package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/schooltransit/backend/internal/db"
	"github.com/schooltransit/backend/internal/middleware"
	"github.com/schooltransit/backend/internal/models"
)

// StudentHandler handles student directory requests
type StudentHandler struct {
	students db.StudentCollection
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(students db.StudentCollection) *StudentHandler {
	return &StudentHandler{students: students}
}

// CreateStudent adds a student to the directory.
func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var student models.Student
	if err := json.Unmarshal(body, &student); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if student.Name == "" {
		writeError(w, http.StatusBadRequest, "Student name is required")
		return
	}
	if student.PickupLocation.Lat < -90 || student.PickupLocation.Lat > 90 ||
		student.PickupLocation.Lon < -180 || student.PickupLocation.Lon > 180 {
		writeError(w, http.StatusBadRequest, "Pickup coordinates out of range")
		return
	}

	if err := h.students.InsertStudent(r.Context(), student); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create student")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Student created"})
}

// ListStudents lists students. Parents only see their own children;
// everyone else may filter by route.
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}

	var (
		studentList []models.Student
		err         error
	)
	if claims.Role == models.RoleParent {
		studentList, err = h.students.FindStudentsByGuardian(r.Context(), claims.UserID)
	} else if routeID := r.URL.Query().Get("route_id"); routeID != "" {
		studentList, err = h.students.FindStudentsByRoute(r.Context(), routeID)
	} else {
		studentList, err = h.students.FindStudents(r.Context(), bson.M{})
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students")
		return
	}
	if studentList == nil {
		studentList = []models.Student{}
	}

	writeJSON(w, http.StatusOK, studentList)
}

// GetStudent returns one student record.
func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.students.FindStudentByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	if claims.Role == models.RoleParent && student.GuardianUserID != claims.UserID {
		writeError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	writeJSON(w, http.StatusOK, student)
}

// UpdateStudent updates a student record.
func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var student models.Student
	if err := json.Unmarshal(body, &student); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.students.UpdateStudent(r.Context(), chi.URLParam(r, "id"), student); err != nil {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Student updated"})
}

// DeleteStudent removes a student record.
func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.students.DeleteStudent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Student deleted"})
}

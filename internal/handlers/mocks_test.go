package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/schooltransit/backend/internal/models"
	"github.com/schooltransit/backend/internal/notify"
)

// MockUserCollection is a mock implementation of db.UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStudentCollection is a mock implementation of db.StudentCollection
type MockStudentCollection struct {
	mock.Mock
}

func (m *MockStudentCollection) InsertStudent(ctx context.Context, student models.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *MockStudentCollection) FindStudentByID(ctx context.Context, id string) (*models.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentCollection) FindStudents(ctx context.Context, filter bson.M) ([]models.Student, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Student), args.Error(1)
}

func (m *MockStudentCollection) FindStudentsByRoute(ctx context.Context, routeID string) ([]models.Student, error) {
	args := m.Called(ctx, routeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Student), args.Error(1)
}

func (m *MockStudentCollection) FindStudentsByGuardian(ctx context.Context, guardianUserID string) ([]models.Student, error) {
	args := m.Called(ctx, guardianUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Student), args.Error(1)
}

func (m *MockStudentCollection) UpdateStudent(ctx context.Context, id string, student models.Student) error {
	args := m.Called(ctx, id, student)
	return args.Error(0)
}

func (m *MockStudentCollection) DeleteStudent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRouteCollection is a mock implementation of db.RouteCollection
type MockRouteCollection struct {
	mock.Mock
}

func (m *MockRouteCollection) InsertRoute(ctx context.Context, route models.Route) error {
	args := m.Called(ctx, route)
	return args.Error(0)
}

func (m *MockRouteCollection) FindRouteByID(ctx context.Context, id string) (*models.Route, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Route), args.Error(1)
}

func (m *MockRouteCollection) FindRoutes(ctx context.Context, filter bson.M) ([]models.Route, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Route), args.Error(1)
}

func (m *MockRouteCollection) UpdateRoute(ctx context.Context, id string, route models.Route) error {
	args := m.Called(ctx, id, route)
	return args.Error(0)
}

func (m *MockRouteCollection) DeleteRoute(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTripCollection is a mock implementation of db.TripCollection
type MockTripCollection struct {
	mock.Mock
}

func (m *MockTripCollection) InsertTrip(ctx context.Context, trip models.Trip) (string, error) {
	args := m.Called(ctx, trip)
	return args.String(0), args.Error(1)
}

func (m *MockTripCollection) FindTripByID(ctx context.Context, id string) (*models.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripCollection) FindTrips(ctx context.Context, filter bson.M) ([]models.Trip, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Trip), args.Error(1)
}

func (m *MockTripCollection) UpdateTripStatus(ctx context.Context, id string, status string, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

func (m *MockTripCollection) CommitTransition(ctx context.Context, tripID string, oldStatus models.PassengerStatus, updated models.Passenger, delta models.CountDelta) error {
	args := m.Called(ctx, tripID, oldStatus, updated, delta)
	return args.Error(0)
}

func (m *MockTripCollection) ResyncCounts(ctx context.Context, tripID string) (models.TripCounts, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).(models.TripCounts), args.Error(1)
}

// MockDispatcher records published passenger events
type MockDispatcher struct {
	Events []notify.PassengerEvent
}

func (m *MockDispatcher) PassengerStatusChanged(event notify.PassengerEvent) {
	m.Events = append(m.Events, event)
}

func (m *MockDispatcher) Close() {}

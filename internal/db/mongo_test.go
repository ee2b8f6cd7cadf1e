package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schooltransit/backend/internal/models"
)

func TestConnectMongo(t *testing.T) {
	client, err := ConnectMongo()
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Disconnect(context.Background())

	assert.NotNil(t, client)
}

func TestCollections(t *testing.T) {
	client, err := ConnectMongo()
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Disconnect(context.Background())

	users, students, buses, routes, trips := Collections(client)
	assert.Equal(t, "users", users.Collection.Name())
	assert.Equal(t, "students", students.Collection.Name())
	assert.Equal(t, "buses", buses.Collection.Name())
	assert.Equal(t, "routes", routes.Collection.Name())
	assert.Equal(t, "trips", trips.Collection.Name())
}

func TestMongoStudentCollection_CRUD(t *testing.T) {
	client, err := ConnectMongo()
	if err != nil {
		t.Skipf("failed to create client: %v, skipping integration test", err)
	}
	defer client.Disconnect(context.Background())

	collection := client.Database("test_schooltransit").Collection("students")
	collection.Drop(context.Background())
	students := &MongoStudentCollection{Collection: collection}

	student := models.Student{
		Name:           "Ana Torres",
		Grade:          "3B",
		RouteID:        "r1",
		GuardianUserID: "u9",
		PickupLocation: models.Location{Lat: 40.42, Lon: -3.71},
	}
	require.NoError(t, students.InsertStudent(context.Background(), student))

	found, err := students.FindStudentsByRoute(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ana Torres", found[0].Name)
	assert.Equal(t, "active", found[0].Status)

	byGuardian, err := students.FindStudentsByGuardian(context.Background(), "u9")
	require.NoError(t, err)
	assert.Len(t, byGuardian, 1)

	found[0].Grade = "4A"
	require.NoError(t, students.UpdateStudent(context.Background(), found[0].ID.Hex(), found[0]))

	got, err := students.FindStudentByID(context.Background(), found[0].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "4A", got.Grade)

	require.NoError(t, students.DeleteStudent(context.Background(), found[0].ID.Hex()))
	_, err = students.FindStudentByID(context.Background(), found[0].ID.Hex())
	assert.Error(t, err)
}

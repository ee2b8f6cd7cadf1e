package db

import (
	"context"
	"fmt"
	"time"

	"github.com/schooltransit/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StudentCollection defines the interface for student directory operations
type StudentCollection interface {
	InsertStudent(ctx context.Context, student models.Student) error
	FindStudentByID(ctx context.Context, id string) (*models.Student, error)
	FindStudents(ctx context.Context, filter bson.M) ([]models.Student, error)
	FindStudentsByRoute(ctx context.Context, routeID string) ([]models.Student, error)
	FindStudentsByGuardian(ctx context.Context, guardianUserID string) ([]models.Student, error)
	UpdateStudent(ctx context.Context, id string, student models.Student) error
	DeleteStudent(ctx context.Context, id string) error
}

// MongoStudentCollection implements StudentCollection for MongoDB
type MongoStudentCollection struct {
	Collection *mongo.Collection
}

// InsertStudent inserts a student record into the collection.
func (c *MongoStudentCollection) InsertStudent(ctx context.Context, student models.Student) error {
	student.CreatedAt = time.Now()
	student.UpdatedAt = time.Now()
	if student.Status == "" {
		student.Status = "active"
	}
	_, err := c.Collection.InsertOne(ctx, student)
	return err
}

// FindStudentByID finds a student by their ID.
func (c *MongoStudentCollection) FindStudentByID(ctx context.Context, id string) (*models.Student, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid student ID: %w", err)
	}

	var student models.Student
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&student)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("student not found")
		}
		return nil, err
	}
	return &student, nil
}

// FindStudents queries student records from the collection.
func (c *MongoStudentCollection) FindStudents(ctx context.Context, filter bson.M) ([]models.Student, error) {
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var students []models.Student
	if err := cursor.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// FindStudentsByRoute lists active students assigned to a route.
func (c *MongoStudentCollection) FindStudentsByRoute(ctx context.Context, routeID string) ([]models.Student, error) {
	return c.FindStudents(ctx, bson.M{"route_id": routeID, "status": "active"})
}

// FindStudentsByGuardian lists students linked to a guardian user.
func (c *MongoStudentCollection) FindStudentsByGuardian(ctx context.Context, guardianUserID string) ([]models.Student, error) {
	return c.FindStudents(ctx, bson.M{"guardian_user_id": guardianUserID})
}

// UpdateStudent updates a student record by its ID.
func (c *MongoStudentCollection) UpdateStudent(ctx context.Context, id string, student models.Student) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid student ID: %w", err)
	}

	student.UpdatedAt = time.Now()
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": student})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("student not found")
	}
	return nil
}

// DeleteStudent deletes a student record by its ID.
func (c *MongoStudentCollection) DeleteStudent(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid student ID: %w", err)
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("student not found")
	}
	return nil
}

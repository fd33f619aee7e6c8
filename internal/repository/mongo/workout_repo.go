// internal/repository/mongo/workout_repo.go
package mongo

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/realtime"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
	notifier   Notifier
}

// NewMongoWorkoutRepository creates a new workouts repository. notifier may be nil.
func NewMongoWorkoutRepository(db *mongo.Database, notifier Notifier) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(WorkoutsCollection),
		notifier:   orNoop(notifier),
	}
}

// Create inserts a new workout plan.
func (r *mongoWorkoutRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if plan.AssignedTo == primitive.NilObjectID || plan.CreatedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout requires assigned_to and created_by")
	}
	plan.ID = primitive.NewObjectID()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}

	r.notifier.Publish(realtime.NewEvent(WorkoutsCollection, realtime.EventInsert, insertedID.Hex()))
	return insertedID, nil
}

// GetByID retrieves a single plan by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListByAssignee retrieves the plans of a student, oldest first.
func (r *mongoWorkoutRepository) ListByAssignee(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"assigned_to": studentID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.WorkoutPlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Delete removes a plan by id.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if id == primitive.NilObjectID {
		return errors.New("workout ID is required for deletion")
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}

	r.notifier.Publish(realtime.NewEvent(WorkoutsCollection, realtime.EventDelete, id.Hex()))
	return nil
}

func ensureWorkoutIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			// student lists, oldest first
			Keys: bson.D{{Key: "assigned_to", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_by", Value: 1}},
		},
	}
	_, err := db.Collection(WorkoutsCollection).Indexes().CreateMany(ctx, indexes)
	return err
}

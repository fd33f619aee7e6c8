package mongo

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/realtime"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoWorkoutItemRepository implements repository.WorkoutItemRepository
type mongoWorkoutItemRepository struct {
	collection *mongo.Collection
	notifier   Notifier
}

// NewMongoWorkoutItemRepository creates the workout_exercises repository. notifier may be nil.
func NewMongoWorkoutItemRepository(db *mongo.Database, notifier Notifier) repository.WorkoutItemRepository {
	return &mongoWorkoutItemRepository{
		collection: db.Collection(WorkoutItemsCollection),
		notifier:   orNoop(notifier),
	}
}

// CreateMany inserts the items of one plan in a single batch.
func (r *mongoWorkoutItemRepository) CreateMany(ctx context.Context, items []domain.WorkoutItem) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, len(items))
	for i := range items {
		if items[i].WorkoutID == primitive.NilObjectID || items[i].ExerciseID == primitive.NilObjectID {
			return errors.New("workout item requires workout_id and exercise_id")
		}
		items[i].ID = primitive.NewObjectID()
		docs[i] = items[i]
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return err
	}
	for _, item := range items {
		r.notifier.Publish(realtime.NewEvent(WorkoutItemsCollection, realtime.EventInsert, item.ID.Hex()))
	}
	return nil
}

// ListByWorkout retrieves the items of a plan. No ordering is applied.
func (r *mongoWorkoutItemRepository) ListByWorkout(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"workout_id": workoutID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []domain.WorkoutItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteByWorkout removes every item of a plan. Deleting zero rows is not an error.
func (r *mongoWorkoutItemRepository) DeleteByWorkout(ctx context.Context, workoutID primitive.ObjectID) error {
	result, err := r.collection.DeleteMany(ctx, bson.M{"workout_id": workoutID})
	if err != nil {
		return err
	}
	if result.DeletedCount > 0 {
		r.notifier.Publish(realtime.NewEvent(WorkoutItemsCollection, realtime.EventDelete, workoutID.Hex()))
	}
	return nil
}

func ensureWorkoutItemIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(WorkoutItemsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "workout_id", Value: 1}},
	})
	return err
}

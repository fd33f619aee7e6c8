package mongo

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(ExercisesCollection),
	}
}

// Search returns a page of the catalog ordered by name. The free text matches
// name, muscle group or equipment; muscle and equipment narrow the result further.
func (r *mongoExerciseRepository) Search(ctx context.Context, q repository.ExerciseQuery) ([]domain.Exercise, error) {
	if q.Offset < 0 || q.Limit < 0 {
		return nil, repository.ErrBadRange
	}
	filter := exerciseFilter(q)

	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if q.Offset > 0 {
		findOptions.SetSkip(int64(q.Offset))
	}
	if q.Limit > 0 {
		findOptions.SetLimit(int64(q.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	exercises := []domain.Exercise{}
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func exerciseFilter(q repository.ExerciseQuery) bson.M {
	var and []bson.M
	if text := strings.TrimSpace(q.Text); text != "" {
		re := containsRegex(text)
		and = append(and, bson.M{"$or": []bson.M{
			{"name": re},
			{"muscle_group": re},
			{"equipment": re},
		}})
	}
	if muscle := strings.TrimSpace(q.Muscle); muscle != "" {
		and = append(and, bson.M{"muscle_group": containsRegex(muscle)})
	}
	if equipment := strings.TrimSpace(q.Equipment); equipment != "" {
		and = append(and, bson.M{"equipment": containsRegex(equipment)})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

// containsRegex is a case-insensitive substring match.
func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// GetByIDs retrieves the exercises with the given ids, in no particular order.
func (r *mongoExerciseRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	if len(ids) == 0 {
		return []domain.Exercise{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	exercises := []domain.Exercise{}
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// Create inserts a catalog entry. The catalog is read-only for the app; this is
// used for seeding.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" {
		return primitive.NilObjectID, errors.New("exercise name is required")
	}
	exercise.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func ensureExerciseIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "muscle_group", Value: 1}},
		},
	}
	_, err := db.Collection(ExercisesCollection).Indexes().CreateMany(ctx, indexes)
	return err
}

package mongo

import (
	"alcyxob/fitcoach/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

const (
	UsersCollection        = domain.TableUsers
	ExercisesCollection    = domain.TableExercises
	WorkoutsCollection     = domain.TableWorkouts
	WorkoutItemsCollection = domain.TableWorkoutItems
)

// ConnectDB establishes a connection to MongoDB using the provided URI
// and pings the primary before returning the client.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are
// collected so the caller can log them without aborting startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) []error {
	var errs []error
	for _, ensure := range []func(context.Context, *mongo.Database) error{
		ensureUserIndexes,
		ensureExerciseIndexes,
		ensureWorkoutIndexes,
		ensureWorkoutItemIndexes,
	} {
		if err := ensure(ctx, db); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

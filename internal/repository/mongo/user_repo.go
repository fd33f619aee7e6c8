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

// mongoUserRepository implements repository.UserRepository using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
	notifier   Notifier
}

// NewMongoUserRepository creates a users repository. notifier may be nil.
func NewMongoUserRepository(db *mongo.Database, notifier Notifier) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(UsersCollection),
		notifier:   orNoop(notifier),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	r.notifier.Publish(realtime.NewEvent(UsersCollection, realtime.EventInsert, insertedID.Hex()))
	return insertedID, nil
}

// GetByID retrieves a user by their ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, nil)
}

// GetRole fetches only the role field of a user.
func (r *mongoUserRepository) GetRole(ctx context.Context, id primitive.ObjectID) (domain.Role, error) {
	user, err := r.findOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"role": 1}))
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.User, error) {
	var user domain.User
	var err error
	if opts != nil {
		err = r.collection.FindOne(ctx, filter, opts).Decode(&user)
	} else {
		err = r.collection.FindOne(ctx, filter).Decode(&user)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListByRole retrieves every user with the given role, ordered by name.
func (r *mongoUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})

	cursor, err := r.collection.Find(ctx, bson.M{"role": role}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []domain.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateName sets the display name and returns the updated row.
func (r *mongoUserRepository) UpdateName(ctx context.Context, id primitive.ObjectID, name string) (*domain.User, error) {
	if err := r.set(ctx, id, bson.M{"name": name}); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *mongoUserRepository) UpdateEmail(ctx context.Context, id primitive.ObjectID, email string) error {
	err := r.set(ctx, id, bson.M{"email": email})
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// UpdatePhone stores the phone number; an empty value clears it.
func (r *mongoUserRepository) UpdatePhone(ctx context.Context, id primitive.ObjectID, phone string) error {
	if phone == "" {
		return r.update(ctx, id, bson.M{
			"$unset": bson.M{"phone": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		})
	}
	return r.set(ctx, id, bson.M{"phone": phone})
}

func (r *mongoUserRepository) UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.set(ctx, id, bson.M{"password_hash": hash})
}

func (r *mongoUserRepository) UpdateAvatarURL(ctx context.Context, id primitive.ObjectID, url string) error {
	return r.set(ctx, id, bson.M{"avatar_url": url})
}

// MergeMetadata sets the given keys on the user's auth metadata, leaving other keys alone.
func (r *mongoUserRepository) MergeMetadata(ctx context.Context, id primitive.ObjectID, metadata map[string]string) error {
	if len(metadata) == 0 {
		return nil
	}
	fields := bson.M{}
	for k, v := range metadata {
		fields["metadata."+k] = v
	}
	return r.set(ctx, id, fields)
}

func (r *mongoUserRepository) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	return r.update(ctx, id, bson.M{"$set": fields})
}

func (r *mongoUserRepository) update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	r.notifier.Publish(realtime.NewEvent(UsersCollection, realtime.EventUpdate, id.Hex()))
	return nil
}

func ensureUserIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// roster query: role filter sorted by name
			Keys: bson.D{{Key: "role", Value: 1}, {Key: "name", Value: 1}},
		},
	}
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, indexes)
	return err
}

package repository

import (
	"alcyxob/fitcoach/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	ErrBadRange     = RepositoryError("offset and limit must not be negative")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository is the query/mutation contract of the users collection.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetRole(ctx context.Context, id primitive.ObjectID) (domain.Role, error)
	// ListByRole returns every user with the role, ordered by name ascending.
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	UpdateName(ctx context.Context, id primitive.ObjectID, name string) (*domain.User, error)
	UpdateEmail(ctx context.Context, id primitive.ObjectID, email string) error
	UpdatePhone(ctx context.Context, id primitive.ObjectID, phone string) error
	UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateAvatarURL(ctx context.Context, id primitive.ObjectID, url string) error
	MergeMetadata(ctx context.Context, id primitive.ObjectID, metadata map[string]string) error
}

// ExerciseQuery describes one page of the catalog.
type ExerciseQuery struct {
	Text      string // contains, matched against name OR muscle group OR equipment
	Muscle    string // contains, matched against muscle group (AND)
	Equipment string // contains, matched against equipment (AND)
	Offset    int
	Limit     int
}

// ExerciseRepository is the read side of the exercise catalog.
type ExerciseRepository interface {
	// Search returns one page ordered by name ascending.
	Search(ctx context.Context, q ExerciseQuery) ([]domain.Exercise, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
}

// WorkoutRepository is the contract of the workouts collection.
type WorkoutRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	// ListByAssignee returns the plans of a student ordered by creation time ascending.
	ListByAssignee(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// WorkoutItemRepository is the contract of the workout_exercises collection.
type WorkoutItemRepository interface {
	CreateMany(ctx context.Context, items []domain.WorkoutItem) error
	// ListByWorkout returns the items of a plan in storage order.
	ListByWorkout(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutItem, error)
	DeleteByWorkout(ctx context.Context, workoutID primitive.ObjectID) error
}

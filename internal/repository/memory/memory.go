// Package memory keeps the four collections in process memory. It backs the
// server when database.driver is "memory" and the tests of the layers above.
package memory

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/realtime"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds the rows of every collection behind one lock.
type Store struct {
	mu        sync.RWMutex
	users     map[primitive.ObjectID]domain.User
	exercises map[primitive.ObjectID]domain.Exercise
	workouts  map[primitive.ObjectID]domain.WorkoutPlan
	items     []domain.WorkoutItem
	notifier  realtime.Publisher
	now       func() time.Time
}

// NewStore returns an empty store. notifier may be nil.
func NewStore(notifier realtime.Publisher) *Store {
	return &Store{
		users:     make(map[primitive.ObjectID]domain.User),
		exercises: make(map[primitive.ObjectID]domain.Exercise),
		workouts:  make(map[primitive.ObjectID]domain.WorkoutPlan),
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) publish(table string, t realtime.EventType, id primitive.ObjectID) {
	if s.notifier != nil {
		s.notifier.Publish(realtime.NewEvent(table, t, id.Hex()))
	}
}

func (s *Store) Users() repository.UserRepository               { return userRepo{s} }
func (s *Store) Exercises() repository.ExerciseRepository       { return exerciseRepo{s} }
func (s *Store) Workouts() repository.WorkoutRepository         { return workoutRepo{s} }
func (s *Store) WorkoutItems() repository.WorkoutItemRepository { return itemRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}
	r.s.mu.Lock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			r.s.mu.Unlock()
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = cloneUser(*user)
	r.s.mu.Unlock()

	r.s.publish(domain.TableUsers, realtime.EventInsert, user.ID)
	return user.ID, nil
}

func (r userRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) GetRole(ctx context.Context, id primitive.ObjectID) (domain.Role, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (r userRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.s.mu.RLock()
	users := []domain.User{}
	for _, u := range r.s.users {
		if u.Role == role {
			u = cloneUser(u)
			u.PasswordHash = ""
			users = append(users, u)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r userRepo) UpdateName(ctx context.Context, id primitive.ObjectID, name string) (*domain.User, error) {
	if err := r.update(id, func(u *domain.User) error { u.Name = name; return nil }); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r userRepo) UpdateEmail(_ context.Context, id primitive.ObjectID, email string) error {
	return r.update(id, func(u *domain.User) error {
		for otherID, other := range r.s.users {
			if otherID != id && other.Email == email {
				return repository.ErrDuplicate
			}
		}
		u.Email = email
		return nil
	})
}

func (r userRepo) UpdatePhone(_ context.Context, id primitive.ObjectID, phone string) error {
	return r.update(id, func(u *domain.User) error { u.Phone = phone; return nil })
}

func (r userRepo) UpdatePasswordHash(_ context.Context, id primitive.ObjectID, hash string) error {
	return r.update(id, func(u *domain.User) error { u.PasswordHash = hash; return nil })
}

func (r userRepo) UpdateAvatarURL(_ context.Context, id primitive.ObjectID, url string) error {
	return r.update(id, func(u *domain.User) error { u.AvatarURL = url; return nil })
}

func (r userRepo) MergeMetadata(_ context.Context, id primitive.ObjectID, metadata map[string]string) error {
	if len(metadata) == 0 {
		return nil
	}
	return r.update(id, func(u *domain.User) error {
		if u.Metadata == nil {
			u.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			u.Metadata[k] = v
		}
		return nil
	})
}

// update must be called without the lock held; mutate runs under it.
func (r userRepo) update(id primitive.ObjectID, mutate func(u *domain.User) error) error {
	r.s.mu.Lock()
	u, ok := r.s.users[id]
	if !ok {
		r.s.mu.Unlock()
		return repository.ErrNotFound
	}
	u = cloneUser(u)
	if err := mutate(&u); err != nil {
		r.s.mu.Unlock()
		return err
	}
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	r.s.mu.Unlock()

	r.s.publish(domain.TableUsers, realtime.EventUpdate, id)
	return nil
}

func cloneUser(u domain.User) domain.User {
	if u.Metadata != nil {
		m := make(map[string]string, len(u.Metadata))
		for k, v := range u.Metadata {
			m[k] = v
		}
		u.Metadata = m
	}
	return u
}

type exerciseRepo struct{ s *Store }

func (r exerciseRepo) Search(_ context.Context, q repository.ExerciseQuery) ([]domain.Exercise, error) {
	if q.Offset < 0 || q.Limit < 0 {
		return nil, repository.ErrBadRange
	}
	r.s.mu.RLock()
	matched := []domain.Exercise{}
	for _, ex := range r.s.exercises {
		if matchesQuery(ex, q) {
			matched = append(matched, ex)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID.Hex() < matched[j].ID.Hex()
	})

	if q.Offset >= len(matched) {
		return []domain.Exercise{}, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func matchesQuery(ex domain.Exercise, q repository.ExerciseQuery) bool {
	if text := strings.TrimSpace(q.Text); text != "" &&
		!containsFold(ex.Name, text) && !containsFold(ex.MuscleGroup, text) && !containsFold(ex.Equipment, text) {
		return false
	}
	if muscle := strings.TrimSpace(q.Muscle); muscle != "" && !containsFold(ex.MuscleGroup, muscle) {
		return false
	}
	if equipment := strings.TrimSpace(q.Equipment); equipment != "" && !containsFold(ex.Equipment, equipment) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (r exerciseRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	exercises := []domain.Exercise{}
	for _, id := range ids {
		if ex, ok := r.s.exercises[id]; ok {
			exercises = append(exercises, ex)
		}
	}
	return exercises, nil
}

func (r exerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" {
		return primitive.NilObjectID, errors.New("exercise name is required")
	}
	exercise.ID = primitive.NewObjectID()
	r.s.mu.Lock()
	r.s.exercises[exercise.ID] = *exercise
	r.s.mu.Unlock()
	return exercise.ID, nil
}

type workoutRepo struct{ s *Store }

func (r workoutRepo) Create(_ context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if plan.AssignedTo == primitive.NilObjectID || plan.CreatedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout requires assigned_to and created_by")
	}
	plan.ID = primitive.NewObjectID()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = r.s.now()
	}
	r.s.mu.Lock()
	r.s.workouts[plan.ID] = *plan
	r.s.mu.Unlock()

	r.s.publish(domain.TableWorkouts, realtime.EventInsert, plan.ID)
	return plan.ID, nil
}

func (r workoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	plan, ok := r.s.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &plan, nil
}

func (r workoutRepo) ListByAssignee(_ context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	r.s.mu.RLock()
	plans := []domain.WorkoutPlan{}
	for _, p := range r.s.workouts {
		if p.AssignedTo == studentID {
			plans = append(plans, p)
		}
	}
	r.s.mu.RUnlock()

	// ObjectIDs grow with insertion, which breaks created_at ties.
	sort.Slice(plans, func(i, j int) bool {
		if !plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].CreatedAt.Before(plans[j].CreatedAt)
		}
		return plans[i].ID.Hex() < plans[j].ID.Hex()
	})
	return plans, nil
}

func (r workoutRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	if _, ok := r.s.workouts[id]; !ok {
		r.s.mu.Unlock()
		return repository.ErrNotFound
	}
	delete(r.s.workouts, id)
	r.s.mu.Unlock()

	r.s.publish(domain.TableWorkouts, realtime.EventDelete, id)
	return nil
}

type itemRepo struct{ s *Store }

func (r itemRepo) CreateMany(_ context.Context, items []domain.WorkoutItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, it := range items {
		if it.WorkoutID == primitive.NilObjectID || it.ExerciseID == primitive.NilObjectID {
			return errors.New("workout item requires workout_id and exercise_id")
		}
	}
	r.s.mu.Lock()
	for i := range items {
		items[i].ID = primitive.NewObjectID()
		r.s.items = append(r.s.items, items[i])
	}
	r.s.mu.Unlock()

	for _, it := range items {
		r.s.publish(domain.TableWorkoutItems, realtime.EventInsert, it.ID)
	}
	return nil
}

func (r itemRepo) ListByWorkout(_ context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := []domain.WorkoutItem{}
	for _, it := range r.s.items {
		if it.WorkoutID == workoutID {
			items = append(items, it)
		}
	}
	return items, nil
}

func (r itemRepo) DeleteByWorkout(_ context.Context, workoutID primitive.ObjectID) error {
	r.s.mu.Lock()
	kept := r.s.items[:0]
	var removed []primitive.ObjectID
	for _, it := range r.s.items {
		if it.WorkoutID == workoutID {
			removed = append(removed, it.ID)
			continue
		}
		kept = append(kept, it)
	}
	r.s.items = kept
	r.s.mu.Unlock()

	for _, id := range removed {
		r.s.publish(domain.TableWorkoutItems, realtime.EventDelete, id)
	}
	return nil
}

package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/realtime"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanDetail is a plan with its items joined to the exercise catalog.
type PlanDetail struct {
	Plan  domain.WorkoutPlan         `json:"plan"`
	Items []domain.WorkoutItemDetail `json:"items"`
}

// RealtimeSubscriber is the subscribe side of the realtime channel.
type RealtimeSubscriber interface {
	Subscribe(table string, filter realtime.EventType, cb realtime.Callback) *realtime.Subscription
	Unsubscribe(sub *realtime.Subscription)
}

type StudentService interface {
	ListMyPlans(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	PlanDetail(ctx context.Context, studentID, planID primitive.ObjectID) (*PlanDetail, error)
	// WatchMyPlans calls onChange with a fresh list after every change on the
	// plans table, whoever the plan belongs to. It stops when ctx is done or
	// the returned func is called.
	WatchMyPlans(ctx context.Context, studentID primitive.ObjectID, onChange func([]domain.WorkoutPlan, error)) func()
}

type studentService struct {
	workoutRepo  repository.WorkoutRepository
	itemRepo     repository.WorkoutItemRepository
	exerciseRepo repository.ExerciseRepository
	realtime     RealtimeSubscriber
}

func NewStudentService(
	workoutRepo repository.WorkoutRepository,
	itemRepo repository.WorkoutItemRepository,
	exerciseRepo repository.ExerciseRepository,
	subscriber RealtimeSubscriber,
) StudentService {
	return &studentService{
		workoutRepo:  workoutRepo,
		itemRepo:     itemRepo,
		exerciseRepo: exerciseRepo,
		realtime:     subscriber,
	}
}

func (s *studentService) ListMyPlans(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	if studentID == primitive.NilObjectID {
		return nil, ErrNoSession
	}
	return s.workoutRepo.ListByAssignee(ctx, studentID)
}

func (s *studentService) PlanDetail(ctx context.Context, studentID, planID primitive.ObjectID) (*PlanDetail, error) {
	plan, err := s.workoutRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	// other students' plans are indistinguishable from missing ones
	if plan.AssignedTo != studentID {
		return nil, ErrPlanNotFound
	}

	items, err := s.itemRepo.ListByWorkout(ctx, planID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	seen := make(map[primitive.ObjectID]bool, len(items))
	for _, it := range items {
		if !seen[it.ExerciseID] {
			seen[it.ExerciseID] = true
			ids = append(ids, it.ExerciseID)
		}
	}
	exercises := map[primitive.ObjectID]domain.Exercise{}
	if len(ids) > 0 {
		found, err := s.exerciseRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, ex := range found {
			exercises[ex.ID] = ex
		}
	}

	detail := &PlanDetail{Plan: *plan, Items: make([]domain.WorkoutItemDetail, 0, len(items))}
	for _, it := range items {
		ex := exercises[it.ExerciseID]
		detail.Items = append(detail.Items, domain.WorkoutItemDetail{
			WorkoutItem:  it,
			ExerciseName: ex.Name,
			MuscleGroup:  ex.MuscleGroup,
		})
	}
	return detail, nil
}

func (s *studentService) WatchMyPlans(ctx context.Context, studentID primitive.ObjectID, onChange func([]domain.WorkoutPlan, error)) func() {
	ctx, cancel := context.WithCancel(ctx)

	// the hub runs callbacks one at a time, so re-fetches never overlap
	sub := s.realtime.Subscribe(domain.TableWorkouts, realtime.EventAll, func(ev realtime.Event) {
		log.Debugf("student %s: %s on %s, re-fetching plans", studentID.Hex(), ev.Type, ev.Table)
		plans, err := s.ListMyPlans(ctx, studentID)
		if ctx.Err() != nil {
			return
		}
		onChange(plans, err)
	})

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			s.realtime.Unsubscribe(sub)
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop
}

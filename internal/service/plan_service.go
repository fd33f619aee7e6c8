package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanItemInput is one exercise line of a new plan.
type PlanItemInput struct {
	ExerciseID  primitive.ObjectID
	Sets        int
	Reps        int
	LoadKg      *float64
	RestSeconds *int
	Notes       *string
}

// PlanInput is the payload of a plan creation.
type PlanInput struct {
	Title            string
	Description      string
	AssigneeID       primitive.ObjectID
	FrequencyPerWeek int
	Items            []PlanItemInput
}

type PlanService interface {
	// CreatePlan inserts the plan row, then its items in one batch. There is
	// no transaction: when the items fail the plan row stays.
	CreatePlan(ctx context.Context, creatorID primitive.ObjectID, input PlanInput) (primitive.ObjectID, error)
	ListStudentPlans(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	DeletePlan(ctx context.Context, planID primitive.ObjectID) error
}

type planService struct {
	workoutRepo repository.WorkoutRepository
	itemRepo    repository.WorkoutItemRepository
	metrics     *metrics.Manager
}

func NewPlanService(workoutRepo repository.WorkoutRepository, itemRepo repository.WorkoutItemRepository, metricsManager *metrics.Manager) PlanService {
	return &planService{
		workoutRepo: workoutRepo,
		itemRepo:    itemRepo,
		metrics:     metricsManager,
	}
}

func (s *planService) CreatePlan(ctx context.Context, creatorID primitive.ObjectID, input PlanInput) (primitive.ObjectID, error) {
	if creatorID == primitive.NilObjectID || input.AssigneeID == primitive.NilObjectID {
		return primitive.NilObjectID, invalid("assignee", "Plano sem criador ou aluno.")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return primitive.NilObjectID, invalid("title", "Plano sem título.")
	}

	plan := &domain.WorkoutPlan{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		AssignedTo:  input.AssigneeID,
		CreatedBy:   creatorID,
	}
	if input.FrequencyPerWeek > 0 {
		freq := input.FrequencyPerWeek
		plan.FrequencyPerWeek = &freq
	}

	planID, err := s.workoutRepo.Create(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("workouts.insert: %w", err)
	}
	s.metrics.CounterPlansCreated.Inc()

	if len(input.Items) == 0 {
		return planID, nil
	}

	items := make([]domain.WorkoutItem, len(input.Items))
	for i, in := range input.Items {
		items[i] = domain.WorkoutItem{
			WorkoutID:   planID,
			ExerciseID:  in.ExerciseID,
			Sets:        in.Sets,
			Reps:        in.Reps,
			LoadKg:      in.LoadKg,
			RestSeconds: in.RestSeconds,
			Notes:       in.Notes,
		}
	}
	if err := s.itemRepo.CreateMany(ctx, items); err != nil {
		log.Warnf("plan %s created without items: %s", planID.Hex(), err)
		return planID, fmt.Errorf("workout_exercises.insert: %w", err)
	}

	log.Debugf("plan %s created for %s with %d items", planID.Hex(), input.AssigneeID.Hex(), len(items))
	return planID, nil
}

func (s *planService) ListStudentPlans(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return s.workoutRepo.ListByAssignee(ctx, studentID)
}

// DeletePlan removes the plan and then its items.
func (s *planService) DeletePlan(ctx context.Context, planID primitive.ObjectID) error {
	if err := s.workoutRepo.Delete(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	s.metrics.CounterPlansDeleted.Inc()

	if err := s.itemRepo.DeleteByWorkout(ctx, planID); err != nil {
		log.Errorf("plan %s deleted, its items were not: %s", planID.Hex(), err)
		return fmt.Errorf("workout_exercises.delete: %w", err)
	}
	return nil
}

package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/repository"
	"alcyxob/fitcoach/internal/search"
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrExerciseNotFound = errors.New("exercise not found")

// CatalogPage is one page of the exercise catalog.
type CatalogPage struct {
	Items   []domain.Exercise `json:"items"`
	Page    int               `json:"page"`
	HasMore bool              `json:"hasMore"`
}

type ExerciseService interface {
	// Search returns page of the catalog filtered by text and muscle, with the
	// muscle filter re-applied locally.
	Search(ctx context.Context, text, muscle string, page int) (*CatalogPage, error)
	GetExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	CreateExercise(ctx context.Context, exercise domain.Exercise) (*domain.Exercise, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	pageSize     int
	metrics      *metrics.Manager
}

func NewExerciseService(exerciseRepo repository.ExerciseRepository, pageSize int, metricsManager *metrics.Manager) ExerciseService {
	if pageSize <= 0 {
		pageSize = search.DefaultPageSize
	}
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		pageSize:     pageSize,
		metrics:      metricsManager,
	}
}

func (s *exerciseService) Search(ctx context.Context, text, muscle string, page int) (*CatalogPage, error) {
	if page < 0 {
		page = 0
	}
	if page > math.MaxInt/s.pageSize-1 {
		return nil, invalid("page", "page is out of range")
	}
	started := time.Now()
	rows, err := s.exerciseRepo.Search(ctx, repository.ExerciseQuery{
		Text:   strings.TrimSpace(text),
		Muscle: strings.TrimSpace(muscle),
		Offset: page * s.pageSize,
		Limit:  s.pageSize,
	})
	s.metrics.HistExerciseSearchDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}

	filtered := search.FilterByMuscle(rows, muscle)
	return &CatalogPage{
		Items:   filtered,
		Page:    page,
		HasMore: len(filtered) == s.pageSize,
	}, nil
}

func (s *exerciseService) GetExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	found, err := s.exerciseRepo.GetByIDs(ctx, []primitive.ObjectID{exerciseID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrExerciseNotFound
	}
	return &found[0], nil
}

// CreateExercise adds a catalog entry.
func (s *exerciseService) CreateExercise(ctx context.Context, exercise domain.Exercise) (*domain.Exercise, error) {
	exercise.Name = strings.TrimSpace(exercise.Name)
	if exercise.Name == "" {
		return nil, invalid("name", "exercise name is required")
	}
	id, err := s.exerciseRepo.Create(ctx, &exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = id
	return &exercise, nil
}

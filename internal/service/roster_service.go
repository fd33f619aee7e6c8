package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmptyRosterMessage is shown when the roster, or the filtered roster, is empty.
const EmptyRosterMessage = "Nenhum aluno encontrado."

type RosterService interface {
	// ListStudents returns the students ordered by name, keeping only those
	// whose name contains query case-insensitively.
	ListStudents(ctx context.Context, query string) ([]domain.User, error)
	GetStudent(ctx context.Context, studentID primitive.ObjectID) (*domain.User, error)
}

type rosterService struct {
	userRepo repository.UserRepository
}

func NewRosterService(userRepo repository.UserRepository) RosterService {
	return &rosterService{userRepo: userRepo}
}

func (s *rosterService) ListStudents(ctx context.Context, query string) ([]domain.User, error) {
	students, err := s.userRepo.ListByRole(ctx, domain.RoleStudent)
	if err != nil {
		return nil, err
	}
	return FilterByName(students, query), nil
}

func (s *rosterService) GetStudent(ctx context.Context, studentID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if !user.IsStudent() {
		return nil, ErrStudentNotFound
	}
	user.PasswordHash = ""
	return user, nil
}

// FilterByName keeps the users whose name contains query, ignoring case but
// not diacritics. An empty query keeps everyone.
func FilterByName(users []domain.User, query string) []domain.User {
	query = strings.ToLower(strings.TrimSpace(query))
	filtered := make([]domain.User, 0, len(users))
	for _, u := range users {
		if query == "" || strings.Contains(strings.ToLower(u.Name), query) {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

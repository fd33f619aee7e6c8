package service_test

import (
	"context"
	"testing"

	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository/memory"
	"alcyxob/fitcoach/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedUsers(t *testing.T, store *memory.Store, role domain.Role, names ...string) []primitive.ObjectID {
	t.Helper()
	ids := make([]primitive.ObjectID, 0, len(names))
	for _, name := range names {
		id, err := store.Users().Create(context.Background(), &domain.User{
			Name:         name,
			Email:        gofakeit.Email(),
			PasswordHash: "x",
			Role:         role,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func names(users []domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Name)
	}
	return out
}

func TestRoster_FilterAna(t *testing.T) {
	store := memory.NewStore(nil)
	seedUsers(t, store, domain.RoleStudent, "Mariana", "Ana Paula", "Bruno", "JULIANA", "Anã")
	seedUsers(t, store, domain.RoleCoach, "Ana Coach")
	roster := service.NewRosterService(store.Users())

	students, err := roster.ListStudents(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana Paula", "JULIANA", "Mariana"}, names(students))

	all, err := roster.ListStudents(context.Background(), "  ")
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for _, u := range all {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestRoster_EmptyIsNotAnError(t *testing.T) {
	store := memory.NewStore(nil)
	roster := service.NewRosterService(store.Users())

	students, err := roster.ListStudents(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)

	seedUsers(t, store, domain.RoleStudent, "Carla")
	students, err = roster.ListStudents(context.Background(), "zé")
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestRoster_GetStudent(t *testing.T) {
	store := memory.NewStore(nil)
	student := seedUsers(t, store, domain.RoleStudent, "Davi")[0]
	coach := seedUsers(t, store, domain.RoleCoach, "Coach")[0]
	roster := service.NewRosterService(store.Users())

	got, err := roster.GetStudent(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, "Davi", got.Name)

	_, err = roster.GetStudent(context.Background(), coach)
	assert.ErrorIs(t, err, service.ErrStudentNotFound)
	_, err = roster.GetStudent(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, service.ErrStudentNotFound)
}

package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository/memory"
	"alcyxob/fitcoach/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newAuth(t *testing.T) (service.AuthService, *memory.Store) {
	t.Helper()
	store := memory.NewStore(nil)
	return service.NewAuthService(store.Users(), testSecret, time.Hour), store
}

func seedCoach(t *testing.T, store *memory.Store, email, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	coach := &domain.User{Name: gofakeit.Name(), Email: email, PasswordHash: string(hash), Role: domain.RoleCoach}
	_, err = store.Users().Create(context.Background(), coach)
	require.NoError(t, err)
	return coach
}

func TestAuth_SignUpAndSignIn(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	user, err := auth.SignUp(ctx, "  Ana Lima ", " Ana@Fit.App ", "segredo")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", user.Name)
	assert.Equal(t, "ana@fit.app", user.Email)
	assert.Equal(t, domain.RoleStudent, user.Role)
	assert.Empty(t, user.PasswordHash)

	_, err = auth.SignUp(ctx, "Outra", "ana@fit.app", "segredo")
	assert.ErrorIs(t, err, service.ErrUserAlreadyExists)
	assert.EqualError(t, err, "Essa conta já está registrada")

	session, signedIn, err := auth.SignIn(ctx, "ANA@fit.app", "segredo")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
	assert.Equal(t, domain.RoleStudent, session.Role)
	assert.NotEmpty(t, session.AccessToken)

	_, _, err = auth.SignIn(ctx, "ana@fit.app", "errada")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	_, _, err = auth.SignIn(ctx, "ninguem@fit.app", "segredo")
	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
}

func TestAuth_SignUpValidation(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	_, err := auth.SignUp(ctx, "", "a@b.c", "segredo")
	assert.True(t, service.IsValidation(err))
	_, err = auth.SignUp(ctx, "Ana", "a@b.c", "12345")
	assert.True(t, service.IsValidation(err))
	_, _, err = auth.SignIn(ctx, "", "")
	assert.True(t, service.IsValidation(err))
}

func TestAuth_SignInCoach(t *testing.T) {
	auth, store := newAuth(t)
	ctx := context.Background()
	coach := seedCoach(t, store, "coach@fit.app", "treinador")
	_, err := auth.SignUp(ctx, "Aluno", "aluno@fit.app", "segredo")
	require.NoError(t, err)

	session, _, err := auth.SignInCoach(ctx, "coach@fit.app", "treinador")
	require.NoError(t, err)
	assert.Equal(t, coach.ID, session.UserID)
	assert.Equal(t, domain.RoleCoach, session.Role)

	_, _, err = auth.SignInCoach(ctx, "aluno@fit.app", "segredo")
	assert.ErrorIs(t, err, service.ErrNotCoach)
}

func TestAuth_SessionLifecycle(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()
	user, err := auth.SignUp(ctx, "Bia", "bia@fit.app", "segredo")
	require.NoError(t, err)

	events, cancel := auth.SubscribeAuthEvents(user.ID)
	defer cancel()

	session, _, err := auth.SignIn(ctx, "bia@fit.app", "segredo")
	require.NoError(t, err)
	assert.Equal(t, service.AuthSignedIn, (<-events).Type)

	got, err := auth.GetSession(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, time.Minute)

	refreshed, err := auth.Refresh(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.AccessToken, refreshed.AccessToken)
	assert.Equal(t, service.AuthTokenRefreshed, (<-events).Type)

	_, err = auth.GetSession(ctx, session.AccessToken)
	assert.ErrorIs(t, err, service.ErrNoSession, "refreshed token is revoked")

	require.NoError(t, auth.SignOut(ctx, refreshed.AccessToken))
	ev := <-events
	assert.Equal(t, service.AuthSignedOut, ev.Type)
	assert.Nil(t, ev.Session)

	_, err = auth.GetSession(ctx, refreshed.AccessToken)
	assert.ErrorIs(t, err, service.ErrNoSession)

	// no session to sign out of
	assert.NoError(t, auth.SignOut(ctx, refreshed.AccessToken))
	assert.NoError(t, auth.SignOut(ctx, ""))
	assert.NoError(t, auth.SignOut(ctx, "garbage"))
}

func TestAuth_GetSessionRejectsForeignTokens(t *testing.T) {
	auth, _ := newAuth(t)
	other := service.NewAuthService(memory.NewStore(nil).Users(), "another-secret", time.Hour)
	ctx := context.Background()

	_, err := other.SignUp(ctx, "Caio", "caio@fit.app", "segredo")
	require.NoError(t, err)
	session, _, err := other.SignIn(ctx, "caio@fit.app", "segredo")
	require.NoError(t, err)

	_, err = auth.GetSession(ctx, session.AccessToken)
	assert.ErrorIs(t, err, service.ErrNoSession)
	_, err = auth.GetSession(ctx, "")
	assert.ErrorIs(t, err, service.ErrNoSession)
}

func TestAuth_UpdateUser(t *testing.T) {
	auth, store := newAuth(t)
	ctx := context.Background()
	user, err := auth.SignUp(ctx, "Duda", "duda@fit.app", "segredo")
	require.NoError(t, err)
	_, err = auth.SignUp(ctx, "Eva", "eva@fit.app", "segredo")
	require.NoError(t, err)

	events, cancel := auth.SubscribeAuthEvents(user.ID)
	defer cancel()

	taken := "EVA@fit.app"
	_, err = auth.UpdateUser(ctx, user.ID, service.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, service.ErrUserAlreadyExists)

	email, password := "duda.nova@fit.app", "novasenha"
	updated, err := auth.UpdateUser(ctx, user.ID, service.UserUpdate{
		Email:    &email,
		Password: &password,
		Metadata: map[string]string{"avatar_url": "https://cdn/x.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)
	assert.Equal(t, "https://cdn/x.png", updated.Metadata["avatar_url"])
	assert.Empty(t, updated.PasswordHash)
	assert.Equal(t, service.AuthUserUpdated, (<-events).Type)

	_, _, err = auth.SignIn(ctx, email, password)
	assert.NoError(t, err)

	short := "123"
	_, err = auth.UpdateUser(ctx, user.ID, service.UserUpdate{Password: &short})
	assert.True(t, service.IsValidation(err))

	stored, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
}

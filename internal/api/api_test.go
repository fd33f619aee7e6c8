package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"alcyxob/fitcoach/internal/api"
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/gate"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/realtime"
	"alcyxob/fitcoach/internal/repository/memory"
	"alcyxob/fitcoach/internal/service"
	"alcyxob/fitcoach/internal/wizard"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "segredo123"

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStorage) Upload(_ context.Context, path string, body []byte, _ string, _ bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = body
	return path, nil
}

func (s *memStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *memStorage) PublicURL(path string) string {
	return "https://cdn.test/avatars/" + path
}

type fixture struct {
	router   *gin.Engine
	store    *memory.Store
	auth     service.AuthService
	drafts   *wizard.Store
	storage  *memStorage
	metrics  *metrics.Manager
	coach    *domain.User
	student  *domain.User
	coachTok string
	studTok  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := metrics.NewTestManager()
	hub := realtime.NewHub(m)
	t.Cleanup(hub.Close)
	store := memory.NewStore(hub)

	auth := service.NewAuthService(store.Users(), "api-test-secret", time.Hour)
	plans := service.NewPlanService(store.Workouts(), store.WorkoutItems(), m)
	exercises := service.NewExerciseService(store.Exercises(), 30, m)
	storage := &memStorage{objects: map[string][]byte{}}
	drafts := wizard.NewStore(
		wizard.StoreParams{TTL: time.Hour, PageSize: 30},
		store.Exercises(),
		exercises,
		wizard.NewSubmitter(plans, m),
		m,
	)
	t.Cleanup(drafts.Shutdown)

	router := gin.New()
	api.SetupRoutes(router, api.Deps{
		AuthService:     auth,
		RosterService:   service.NewRosterService(store.Users()),
		PlanService:     plans,
		ExerciseService: exercises,
		StudentService:  service.NewStudentService(store.Workouts(), store.WorkoutItems(), store.Exercises(), hub),
		SettingsService: service.NewSettingsService(store.Users(), auth, storage, service.SettingsTimeouts{}, m),
		Gate:            gate.New(auth, store.Users(), gate.Budgets{}, m),
		Drafts:          drafts,
		Metrics:         m,
		Roles:           store.Users(),
		PanelTTL:        time.Hour,
	})

	f := &fixture{
		router:  router,
		store:   store,
		auth:    auth,
		drafts:  drafts,
		storage: storage,
		metrics: m,
	}
	f.coach = f.seedUser(t, "Coach "+gofakeit.LastName(), domain.RoleCoach)
	f.student = f.seedUser(t, "Ana Paula", domain.RoleStudent)
	f.coachTok = f.signIn(t, f.coach.Email)
	f.studTok = f.signIn(t, f.student.Email)
	return f
}

func (f *fixture) seedUser(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{Name: name, Email: gofakeit.Email(), PasswordHash: string(hash), Role: role}
	_, err = f.store.Users().Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func (f *fixture) signIn(t *testing.T, email string) string {
	t.Helper()
	session, _, err := f.auth.SignIn(context.Background(), email, testPassword)
	require.NoError(t, err)
	return session.AccessToken
}

func (f *fixture) seedExercise(t *testing.T, name, muscle string) domain.Exercise {
	t.Helper()
	ex := domain.Exercise{Name: name, MuscleGroup: muscle}
	_, err := f.store.Exercises().Create(context.Background(), &ex)
	require.NoError(t, err)
	return ex
}

func (f *fixture) seedPlan(t *testing.T, title string, student *domain.User) domain.WorkoutPlan {
	t.Helper()
	plan := domain.WorkoutPlan{Title: title, AssignedTo: student.ID, CreatedBy: f.coach.ID}
	_, err := f.store.Workouts().Create(context.Background(), &plan)
	require.NoError(t, err)
	return plan
}

// do sends a JSON request; body may be nil.
func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return f.serve(req)
}

func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

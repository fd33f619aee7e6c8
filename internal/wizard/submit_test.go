package wizard_test

import (
	"context"
	"errors"
	"testing"

	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/repository/memory"
	"alcyxob/fitcoach/internal/service"
	"alcyxob/fitcoach/internal/wizard"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// failingCreator fails the failOn-th call (1-based) and delegates the rest.
type failingCreator struct {
	next   wizard.PlanCreator
	failOn int
	calls  int
}

func (c *failingCreator) CreatePlan(ctx context.Context, creatorID primitive.ObjectID, input service.PlanInput) (primitive.ObjectID, error) {
	c.calls++
	if c.calls == c.failOn {
		return primitive.NilObjectID, errors.New("workouts.insert: connection reset")
	}
	return c.next.CreatePlan(ctx, creatorID, input)
}

type submitFixture struct {
	store   *memory.Store
	plans   service.PlanService
	metrics *metrics.Manager
	coach   primitive.ObjectID
	student primitive.ObjectID
}

func newSubmitFixture() submitFixture {
	store := memory.NewStore(nil)
	m := metrics.NewTestManager()
	return submitFixture{
		store:   store,
		plans:   service.NewPlanService(store.Workouts(), store.WorkoutItems(), m),
		metrics: m,
		coach:   primitive.NewObjectID(),
		student: primitive.NewObjectID(),
	}
}

func TestSubmit_RoundTrip(t *testing.T) {
	f := newSubmitFixture()
	ctx := context.Background()
	ex := fakeExercise()
	s := mustReduce(t, wizard.NewState(),
		wizard.Action{Type: wizard.ActionSetDescription, Text: " Hipertrofia "},
		toggle(ex),
	)

	created, err := wizard.NewSubmitter(f.plans, f.metrics).Submit(ctx, f.coach, f.student, s)
	require.NoError(t, err)
	require.Len(t, created, 1)

	plans, err := f.plans.ListStudentPlans(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	plan := plans[0]
	assert.Equal(t, created[0], plan.ID)
	assert.Equal(t, "Treino A", plan.Title)
	assert.Equal(t, "Hipertrofia", plan.Description)
	assert.Equal(t, f.coach, plan.CreatedBy)
	require.NotNil(t, plan.FrequencyPerWeek)
	assert.Equal(t, 3, *plan.FrequencyPerWeek)

	items, err := f.store.WorkoutItems().ListByWorkout(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ex.ID, items[0].ExerciseID)
	assert.Equal(t, 3, items[0].Sets)
	assert.Equal(t, 12, items[0].Reps)
	require.NotNil(t, items[0].RestSeconds)
	assert.Equal(t, 60, *items[0].RestSeconds)
	assert.Nil(t, items[0].LoadKg)
	assert.Nil(t, items[0].Notes)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterWizardSubmissions.WithLabelValues("ok")))
}

func TestSubmit_PartialFailureKeepsEarlierPlans(t *testing.T) {
	for k := 1; k <= 3; k++ {
		f := newSubmitFixture()
		ctx := context.Background()
		s := wizard.NewState()
		for i := 0; i < 3; i++ {
			if i > 0 {
				s = mustReduce(t, s, wizard.Action{Type: wizard.ActionAddSession})
			}
			s = mustReduce(t, s, toggle(fakeExercise()))
		}

		creator := &failingCreator{next: f.plans, failOn: k}
		created, err := wizard.NewSubmitter(creator, f.metrics).Submit(ctx, f.coach, f.student, s)

		var submitErr *wizard.SubmitError
		require.ErrorAs(t, err, &submitErr)
		assert.Equal(t, k-1, submitErr.Index)
		assert.Equal(t, s.Sessions[k-1].Title, submitErr.Title)
		assert.Contains(t, err.Error(), "Erro ao enviar treinos:\n")
		assert.Contains(t, err.Error(), s.Sessions[k-1].Title)
		assert.Len(t, created, k-1)
		assert.Equal(t, created, submitErr.Created)
		assert.Equal(t, k, creator.calls)

		plans, err := f.plans.ListStudentPlans(ctx, f.student)
		require.NoError(t, err)
		require.Len(t, plans, k-1)
		for i, p := range plans {
			assert.Equal(t, s.Sessions[i].Title, p.Title)
		}

		result := "partial"
		if k == 1 {
			result = "failed"
		}
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterWizardSubmissions.WithLabelValues(result)))
	}
}

func TestSubmit_EmptySessionCallsNothing(t *testing.T) {
	f := newSubmitFixture()
	s := mustReduce(t, wizard.NewState(),
		toggle(fakeExercise()),
		wizard.Action{Type: wizard.ActionAddSession},
	)
	creator := &failingCreator{next: f.plans}

	created, err := wizard.NewSubmitter(creator, f.metrics).Submit(context.Background(), f.coach, f.student, s)
	var empty *wizard.EmptySessionError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "Treino B", empty.Title)
	assert.Empty(t, created)
	assert.Zero(t, creator.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterWizardSubmissions.WithLabelValues("invalid")))
}

func TestPlanInput_FlattensSelection(t *testing.T) {
	a, b := fakeExercise(), fakeExercise()
	a.Name, b.Name = "Agachamento", "Leg press"
	s := mustReduce(t, wizard.NewState(),
		wizard.Action{Type: wizard.ActionSetFrequency, Frequency: 4},
		wizard.Action{Type: wizard.ActionRenameSession, Index: 0, Text: "  Pernas  "},
		toggle(b),
		toggle(a),
		wizard.Action{Type: wizard.ActionPatchItem, ExerciseID: b.ID.Hex(), Field: wizard.FieldLoad, Op: wizard.OpInc},
	)
	student := primitive.NewObjectID()

	input := wizard.PlanInput(s, s.Sessions[0], student)
	assert.Equal(t, "Pernas", input.Title)
	assert.Equal(t, student, input.AssigneeID)
	assert.Equal(t, 4, input.FrequencyPerWeek)
	require.Len(t, input.Items, 2)
	assert.Equal(t, a.ID, input.Items[0].ExerciseID)
	assert.Nil(t, input.Items[0].LoadKg)
	assert.Equal(t, b.ID, input.Items[1].ExerciseID)
	assert.Equal(t, 2.0, *input.Items[1].LoadKg)
}

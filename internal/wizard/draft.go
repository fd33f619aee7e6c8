package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/panel"
	"alcyxob/fitcoach/internal/search"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrDraftNotFound  = errors.New("draft not found")
	ErrSubmitInFlight = errors.New("draft is being submitted")
)

// ExerciseLookup resolves an exercise that is not on the picker's current
// pages.
type ExerciseLookup interface {
	GetExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
}

// Draft is one open authoring wizard: the wizard state, its exercise picker
// and the profile panel it was opened from.
type Draft struct {
	ID      string
	CoachID primitive.ObjectID

	panel  *panel.Panel
	picker *search.Picker

	mu         sync.Mutex
	state      State
	submitting bool
	closed     bool
}

func (d *Draft) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.clone()
}

func (d *Draft) Student() panel.Student { return d.panel.Student() }

// Exercises returns the picker state, waiting up to ctx for a pending fetch.
func (d *Draft) Exercises(ctx context.Context) (search.Snapshot, error) {
	return d.picker.Wait(ctx)
}

type StoreParams struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	PageSize        int
	Debounce        time.Duration
}

// Store keeps the open drafts in memory. A draft not touched for TTL expires.
type Store struct {
	drafts    *cache.Cache
	fetcher   search.Fetcher
	exercises ExerciseLookup
	submitter *Submitter
	params    StoreParams
	metrics   *metrics.Manager
}

func NewStore(
	params StoreParams,
	fetcher search.Fetcher,
	exercises ExerciseLookup,
	submitter *Submitter,
	metricsManager *metrics.Manager,
) *Store {
	s := &Store{
		drafts:    cache.New(params.TTL, params.CleanupInterval),
		fetcher:   fetcher,
		exercises: exercises,
		submitter: submitter,
		params:    params,
		metrics:   metricsManager,
	}
	s.drafts.OnEvicted(func(id string, v interface{}) {
		d := v.(*Draft)
		d.picker.Close()
		s.metrics.GaugeOpenDrafts.Dec()
		log.Debugf("draft %s for %s discarded", id, d.panel.Student().ID.Hex())
	})
	return s
}

// Open starts a wizard on top of p.
func (s *Store) Open(coachID primitive.ObjectID, p *panel.Panel) *Draft {
	p.OpenWizard()
	d := &Draft{
		ID:      uuid.NewString(),
		CoachID: coachID,
		panel:   p,
		picker: search.NewPicker(s.fetcher, s.params.PageSize, s.params.Debounce,
			search.WithFetchObserver(func(took time.Duration) {
				s.metrics.HistExerciseSearchDuration.Observe(took.Seconds())
			}),
		),
		state: NewState(),
	}
	s.drafts.SetDefault(d.ID, d)
	s.metrics.GaugeOpenDrafts.Inc()
	log.Debugf("draft %s opened by %s for %s", d.ID, coachID.Hex(), p.Student().ID.Hex())
	return d
}

// Get returns the draft id owned by coachID and renews its expiry.
func (s *Store) Get(coachID primitive.ObjectID, id string) (*Draft, error) {
	v, ok := s.drafts.Get(id)
	if !ok {
		return nil, ErrDraftNotFound
	}
	d := v.(*Draft)
	if d.CoachID != coachID {
		return nil, ErrDraftNotFound
	}
	s.drafts.SetDefault(id, d)
	return d, nil
}

// Dispatch applies a to the draft and keeps the picker in step with the new
// cursor.
func (s *Store) Dispatch(ctx context.Context, coachID primitive.ObjectID, id string, a Action) (State, error) {
	d, err := s.Get(coachID, id)
	if err != nil {
		return State{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.closed:
		return State{}, ErrDraftNotFound
	case d.submitting:
		return d.state.clone(), ErrSubmitInFlight
	}

	switch a.Type {
	case ActionNextPage:
		if d.state.Step != StepExercisePicker || !d.picker.NextPage() {
			return d.state.clone(), nil
		}
	case ActionToggleExercise:
		// only catalog entries can be selected
		a.Exercise = nil
		if a.ExerciseID == "" {
			return d.state.clone(), ErrMissingExercise
		}
		if _, selected := d.state.ActiveSession().Selected[a.ExerciseID]; !selected {
			ex, err := s.resolveExercise(ctx, d, a.ExerciseID)
			if err != nil {
				return d.state.clone(), err
			}
			a.Exercise = ex
		}
	}

	prev := d.state
	next, err := Reduce(prev, a)
	if err != nil {
		return prev.clone(), err
	}
	d.state = next
	syncDraftPicker(d.picker, prev, next)
	return next.clone(), nil
}

// syncDraftPicker reloads the picker when the step, query or filter moved.
// Page moves are scheduled by the picker itself.
func syncDraftPicker(p *search.Picker, prev, next State) {
	if next.Step != StepExercisePicker {
		return
	}
	if prev.Step == next.Step &&
		prev.Query == next.Query &&
		prev.MuscleFilter == next.MuscleFilter {
		return
	}
	q := search.Query{Text: next.Query, Muscle: next.MuscleFilter}
	if next.Page == 0 {
		p.SetQuery(q)
		return
	}
	p.Load(q, next.Page)
}

func (s *Store) resolveExercise(ctx context.Context, d *Draft, exerciseID string) (*domain.Exercise, error) {
	for _, ex := range d.picker.Snapshot().Items {
		if ex.ID.Hex() == exerciseID {
			return &ex, nil
		}
	}
	oid, err := primitive.ObjectIDFromHex(exerciseID)
	if err != nil {
		return nil, ErrMissingExercise
	}
	return s.exercises.GetExercise(ctx, oid)
}

// Submit creates the plans of the draft. On success the draft is closed and
// the panel is back on the profile with a fresh list; on failure the draft
// stays open. A draft takes one submission at a time; others get
// ErrSubmitInFlight.
func (s *Store) Submit(ctx context.Context, coachID primitive.ObjectID, id string) ([]primitive.ObjectID, error) {
	d, err := s.Get(coachID, id)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	switch {
	case d.closed:
		d.mu.Unlock()
		return nil, ErrDraftNotFound
	case d.submitting:
		d.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	d.submitting = true
	state := d.state.clone()
	d.mu.Unlock()

	created, err := s.submitter.Submit(ctx, coachID, d.panel.Student().ID, state)

	d.mu.Lock()
	d.submitting = false
	d.closed = err == nil
	d.mu.Unlock()
	if err != nil {
		return created, err
	}

	if err := s.discard(ctx, id, d); err != nil {
		log.Warnf("draft %s submitted, refresh after close: %s", id, err)
	}
	return created, nil
}

// Close discards the draft and returns its panel to the profile. A draft
// being submitted cannot be closed.
func (s *Store) Close(ctx context.Context, coachID primitive.ObjectID, id string) error {
	d, err := s.Get(coachID, id)
	if err != nil {
		return err
	}
	d.mu.Lock()
	switch {
	case d.closed:
		d.mu.Unlock()
		return ErrDraftNotFound
	case d.submitting:
		d.mu.Unlock()
		return ErrSubmitInFlight
	}
	d.closed = true
	d.mu.Unlock()
	return s.discard(ctx, id, d)
}

func (s *Store) discard(ctx context.Context, id string, d *Draft) error {
	s.drafts.Delete(id)
	return d.panel.CloseWizard(ctx)
}

// Panel returns the profile panel a draft was opened from.
func (d *Draft) Panel() *panel.Panel { return d.panel }

// Len reports the number of open drafts.
func (s *Store) Len() int { return s.drafts.ItemCount() }

// Shutdown discards every draft.
func (s *Store) Shutdown() {
	for id := range s.drafts.Items() {
		s.drafts.Delete(id)
	}
}

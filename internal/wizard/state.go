package wizard

import (
	"fmt"
	"slices"
	"sort"

	"alcyxob/fitcoach/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Step int

const (
	StepPlanSetup Step = iota + 1
	StepExercisePicker
	StepParameterTuning
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepPlanSetup:
		return "plan_setup"
	case StepExercisePicker:
		return "exercise_picker"
	case StepParameterTuning:
		return "parameter_tuning"
	case StepReview:
		return "review"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Defaults of a newly selected exercise and of a new plan.
const (
	DefaultSets        = 3
	DefaultReps        = 12
	DefaultRestSeconds = 60
	DefaultFrequency   = 3
	MaxFrequency       = 7
)

// Increment sizes of the parameter counters.
const (
	CountStep = 1
	LoadStep  = 2.0
	RestStep  = 15
)

// Muscles are the muscle groups a session can target.
var Muscles = []string{
	"peito",
	"costas",
	"pernas",
	"ombro",
	"bíceps",
	"tríceps",
	"abdômen",
	"glúteo",
	"panturrilha",
}

func knownMuscle(m string) bool {
	return slices.Contains(Muscles, m)
}

// ItemConfig is the tuned parameters of one selected exercise.
type ItemConfig struct {
	ExerciseID   primitive.ObjectID `json:"exerciseId"`
	ExerciseName string             `json:"exerciseName"`
	MuscleGroup  string             `json:"muscleGroup,omitempty"`
	Sets         int                `json:"sets"`
	Reps         int                `json:"reps"`
	LoadKg       *float64           `json:"loadKg"`
	RestSeconds  *int               `json:"restSeconds"`
	Notes        *string            `json:"notes"`
}

func defaultItem(ex domain.Exercise) ItemConfig {
	rest := DefaultRestSeconds
	return ItemConfig{
		ExerciseID:   ex.ID,
		ExerciseName: ex.Name,
		MuscleGroup:  ex.MuscleGroup,
		Sets:         DefaultSets,
		Reps:         DefaultReps,
		RestSeconds:  &rest,
	}
}

// Session is one day of the plan being authored, e.g. "Treino A". Selected is
// keyed by exercise id hex.
type Session struct {
	Key      string                `json:"key"`
	Title    string                `json:"title"`
	Muscles  []string              `json:"muscles"`
	Selected map[string]ItemConfig `json:"selected"`
}

// Items flattens the selection, ordered by exercise name then id.
func (s Session) Items() []ItemConfig {
	items := make([]ItemConfig, 0, len(s.Selected))
	for _, it := range s.Selected {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ExerciseName != items[j].ExerciseName {
			return items[i].ExerciseName < items[j].ExerciseName
		}
		return items[i].ExerciseID.Hex() < items[j].ExerciseID.Hex()
	})
	return items
}

func (s Session) clone() Session {
	out := Session{
		Key:      s.Key,
		Title:    s.Title,
		Muscles:  append([]string{}, s.Muscles...),
		Selected: make(map[string]ItemConfig, len(s.Selected)),
	}
	for k, v := range s.Selected {
		out.Selected[k] = v.clone()
	}
	return out
}

func (c ItemConfig) clone() ItemConfig {
	if c.LoadKg != nil {
		v := *c.LoadKg
		c.LoadKg = &v
	}
	if c.RestSeconds != nil {
		v := *c.RestSeconds
		c.RestSeconds = &v
	}
	if c.Notes != nil {
		v := *c.Notes
		c.Notes = &v
	}
	return c
}

// State is the whole wizard. MuscleFilter empty means every muscle; Query,
// MuscleFilter and Page are the picker cursor.
type State struct {
	Step         Step      `json:"step"`
	Frequency    int       `json:"frequency"`
	Description  string    `json:"description"`
	Sessions     []Session `json:"sessions"`
	Active       int       `json:"active"`
	Query        string    `json:"query"`
	MuscleFilter string    `json:"muscleFilter"`
	Page         int       `json:"page"`
}

// NewState is the wizard as it mounts: one empty session "Treino A".
func NewState() State {
	return State{
		Step:      StepPlanSetup,
		Frequency: DefaultFrequency,
		Sessions:  []Session{newSession(0)},
	}
}

func sessionKey(i int) string {
	return string(rune('A' + i))
}

func newSession(i int) Session {
	key := sessionKey(i)
	return Session{
		Key:      key,
		Title:    "Treino " + key,
		Muscles:  []string{},
		Selected: map[string]ItemConfig{},
	}
}

// ActiveSession returns the session the picker and tuning steps work on.
func (s State) ActiveSession() Session {
	return s.Sessions[s.Active]
}

// CanAdvance is the completion predicate of the current step.
func (s State) CanAdvance() bool {
	switch s.Step {
	case StepPlanSetup:
		return len(s.Sessions) >= 1
	case StepExercisePicker:
		return len(s.ActiveSession().Selected) > 0
	case StepParameterTuning:
		return true
	}
	return false
}

func (s State) clone() State {
	out := s
	out.Sessions = make([]Session, len(s.Sessions))
	for i, sess := range s.Sessions {
		out.Sessions[i] = sess.clone()
	}
	return out
}

// EmptySessionError names the first session with nothing selected.
type EmptySessionError struct {
	Title string
}

func (e *EmptySessionError) Error() string {
	return fmt.Sprintf("%s está vazio. Adicione ao menos 1 exercício ou remova o treino.", e.Title)
}

// Validate checks every session has at least one exercise.
func (s State) Validate() error {
	for _, sess := range s.Sessions {
		if len(sess.Selected) == 0 {
			return &EmptySessionError{Title: sess.Title}
		}
	}
	return nil
}

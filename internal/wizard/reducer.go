package wizard

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"alcyxob/fitcoach/internal/domain"
)

var (
	ErrStepIncomplete   = errors.New("current step is not complete")
	ErrFirstStep        = errors.New("already at the first step")
	ErrLastSession      = errors.New("a plan needs at least one session")
	ErrInvalidIndex     = errors.New("session index out of range")
	ErrUnknownMuscle    = errors.New("unknown muscle group")
	ErrInvalidFrequency = errors.New("frequency must be between 1 and 7")
	ErrNotSelected      = errors.New("exercise is not selected in the active session")
	ErrMissingExercise  = errors.New("exercise is required")
	ErrUnknownAction    = errors.New("unknown action")
)

type ActionType string

const (
	ActionAddSession       ActionType = "add_session"
	ActionRemoveSession    ActionType = "remove_session"
	ActionSetActiveSession ActionType = "set_active_session"
	ActionRenameSession    ActionType = "rename_session"
	ActionToggleMuscle     ActionType = "toggle_muscle"
	ActionSetFrequency     ActionType = "set_frequency"
	ActionSetDescription   ActionType = "set_description"
	ActionSetQuery         ActionType = "set_query"
	ActionSetMuscleFilter  ActionType = "set_muscle_filter"
	ActionNextPage         ActionType = "next_page"
	ActionToggleExercise   ActionType = "toggle_exercise"
	ActionPatchItem        ActionType = "patch_item"
	ActionEditSession      ActionType = "edit_session"
	ActionNext             ActionType = "next"
	ActionBack             ActionType = "back"
)

type ItemField string

const (
	FieldSets  ItemField = "sets"
	FieldReps  ItemField = "reps"
	FieldLoad  ItemField = "load"
	FieldRest  ItemField = "rest"
	FieldNotes ItemField = "notes"
)

type PatchOp string

const (
	OpInc PatchOp = "inc"
	OpDec PatchOp = "dec"
	OpSet PatchOp = "set"
)

// Action is one transition of the wizard. Only the fields its Type reads are
// looked at. Exercise is never decoded: the draft store fills it from the
// catalog by ExerciseID.
type Action struct {
	Type       ActionType       `json:"type" binding:"required,oneof=add_session remove_session set_active_session rename_session toggle_muscle set_frequency set_description set_query set_muscle_filter next_page toggle_exercise patch_item edit_session next back"`
	Index      int              `json:"index"`
	Text       string           `json:"text"`
	Muscle     string           `json:"muscle"`
	Frequency  int              `json:"frequency"`
	Exercise   *domain.Exercise `json:"-"`
	ExerciseID string           `json:"exerciseId"`
	Field      ItemField        `json:"field" binding:"omitempty,oneof=sets reps load rest notes"`
	Op         PatchOp          `json:"op" binding:"omitempty,oneof=inc dec set"`
	Value      *float64         `json:"value"`
}

var defaultTitle = regexp.MustCompile(`Treino .$`)

// Reduce applies a to s. On error the returned state is s unchanged. s itself
// is never modified.
func Reduce(s State, a Action) (State, error) {
	next := s.clone()
	if err := apply(&next, a); err != nil {
		return s, err
	}
	return syncPicker(s, next), nil
}

func apply(s *State, a Action) error {
	switch a.Type {
	case ActionAddSession:
		s.Sessions = append(s.Sessions, newSession(len(s.Sessions)))
		s.Active = len(s.Sessions) - 1

	case ActionRemoveSession:
		if len(s.Sessions) == 1 {
			return ErrLastSession
		}
		if err := s.checkIndex(a.Index); err != nil {
			return err
		}
		before := len(s.Sessions)
		s.Sessions = append(s.Sessions[:a.Index], s.Sessions[a.Index+1:]...)
		for i := range s.Sessions {
			key := sessionKey(i)
			s.Sessions[i].Key = key
			s.Sessions[i].Title = defaultTitle.ReplaceAllString(s.Sessions[i].Title, "Treino "+key)
		}
		s.Active = max(0, min(s.Active, before-2))

	case ActionSetActiveSession:
		if err := s.checkIndex(a.Index); err != nil {
			return err
		}
		s.Active = a.Index

	case ActionRenameSession:
		if err := s.checkIndex(a.Index); err != nil {
			return err
		}
		s.Sessions[a.Index].Title = a.Text

	case ActionToggleMuscle:
		if err := s.checkIndex(a.Index); err != nil {
			return err
		}
		if !knownMuscle(a.Muscle) {
			return fmt.Errorf("%w: %q", ErrUnknownMuscle, a.Muscle)
		}
		sess := &s.Sessions[a.Index]
		sess.Muscles = toggleString(sess.Muscles, a.Muscle)

	case ActionSetFrequency:
		if a.Frequency < 1 || a.Frequency > MaxFrequency {
			return ErrInvalidFrequency
		}
		s.Frequency = a.Frequency

	case ActionSetDescription:
		s.Description = a.Text

	case ActionSetQuery:
		s.Query = a.Text
		s.Page = 0

	case ActionSetMuscleFilter:
		if a.Muscle != "" && !slices.Contains(s.ActiveSession().Muscles, a.Muscle) {
			return fmt.Errorf("%w: %q", ErrUnknownMuscle, a.Muscle)
		}
		s.MuscleFilter = a.Muscle
		s.Page = 0

	case ActionNextPage:
		s.Page++

	case ActionToggleExercise:
		return s.toggleExercise(a)

	case ActionPatchItem:
		return s.patchItem(a)

	case ActionEditSession:
		if err := s.checkIndex(a.Index); err != nil {
			return err
		}
		s.Active = a.Index
		s.Step = StepExercisePicker

	case ActionNext:
		if !s.CanAdvance() {
			return ErrStepIncomplete
		}
		s.Step++

	case ActionBack:
		if s.Step <= StepPlanSetup {
			return ErrFirstStep
		}
		s.Step--

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	return nil
}

func (s *State) checkIndex(i int) error {
	if i < 0 || i >= len(s.Sessions) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	return nil
}

func (s *State) toggleExercise(a Action) error {
	sess := &s.Sessions[s.Active]
	if a.Exercise == nil {
		// Without the exercise only a deselect is possible.
		if _, ok := sess.Selected[a.ExerciseID]; a.ExerciseID == "" || !ok {
			return ErrMissingExercise
		}
		delete(sess.Selected, a.ExerciseID)
		return nil
	}
	key := a.Exercise.ID.Hex()
	if _, ok := sess.Selected[key]; ok {
		delete(sess.Selected, key)
		return nil
	}
	sess.Selected[key] = defaultItem(*a.Exercise)
	return nil
}

func (s *State) patchItem(a Action) error {
	sess := &s.Sessions[s.Active]
	item, ok := sess.Selected[a.ExerciseID]
	if !ok {
		return ErrNotSelected
	}

	var value float64
	if a.Value != nil {
		value = *a.Value
	}
	switch a.Field {
	case FieldSets:
		n, err := stepCount(item.Sets, CountStep, a.Op, value)
		if err != nil {
			return err
		}
		item.Sets = n
	case FieldReps:
		n, err := stepCount(item.Reps, CountStep, a.Op, value)
		if err != nil {
			return err
		}
		item.Reps = n
	case FieldLoad:
		if a.Op == OpSet && a.Value == nil {
			item.LoadKg = nil
			break
		}
		var current float64
		if item.LoadKg != nil {
			current = *item.LoadKg
		}
		v, err := stepValue(current, LoadStep, a.Op, value)
		if err != nil {
			return err
		}
		item.LoadKg = &v
	case FieldRest:
		if a.Op == OpSet && a.Value == nil {
			item.RestSeconds = nil
			break
		}
		current := DefaultRestSeconds
		if item.RestSeconds != nil {
			current = *item.RestSeconds
		}
		n, err := stepCount(current, RestStep, a.Op, value)
		if err != nil {
			return err
		}
		item.RestSeconds = &n
	case FieldNotes:
		notes := strings.TrimSpace(a.Text)
		if notes == "" {
			item.Notes = nil
		} else {
			item.Notes = &a.Text
		}
	default:
		return fmt.Errorf("unknown item field %q", a.Field)
	}
	sess.Selected[a.ExerciseID] = item
	return nil
}

func stepValue(current, step float64, op PatchOp, value float64) (float64, error) {
	switch op {
	case OpInc:
		return current + step, nil
	case OpDec:
		return max(0, current-step), nil
	case OpSet:
		return max(0, value), nil
	}
	return 0, fmt.Errorf("unknown patch op %q", op)
}

func stepCount(current, step int, op PatchOp, value float64) (int, error) {
	v, err := stepValue(float64(current), float64(step), op, value)
	return int(v), err
}

// syncPicker keeps the picker cursor consistent with the active session while
// the picker step is shown.
func syncPicker(prev, next State) State {
	if next.Step != StepExercisePicker {
		return next
	}
	muscles := next.ActiveSession().Muscles
	if prev.Step != next.Step || prev.Active != next.Active {
		next.MuscleFilter = defaultFilter(muscles)
		next.Page = 0
		return next
	}
	if slices.Equal(prev.ActiveSession().Muscles, muscles) {
		return next
	}
	switch {
	case len(muscles) == 0 && next.MuscleFilter != "":
		next.MuscleFilter = ""
		next.Page = 0
	case len(muscles) > 0 && !slices.Contains(muscles, next.MuscleFilter):
		next.MuscleFilter = muscles[0]
		next.Page = 0
	}
	return next
}

func defaultFilter(muscles []string) string {
	if len(muscles) == 0 {
		return ""
	}
	return muscles[0]
}

func toggleString(list []string, v string) []string {
	for i, x := range list {
		if x == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return append(list, v)
}

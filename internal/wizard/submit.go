package wizard

import (
	"context"
	"fmt"
	"strings"

	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/service"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanCreator persists one plan with its items.
type PlanCreator interface {
	CreatePlan(ctx context.Context, creatorID primitive.ObjectID, input service.PlanInput) (primitive.ObjectID, error)
}

// SubmitError reports the session whose plan could not be created. Plans of
// the sessions before it were created and are listed in Created.
type SubmitError struct {
	Index   int
	Title   string
	Created []primitive.ObjectID
	Err     error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("Erro ao enviar treinos:\n%s: %s", e.Title, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

type Submitter struct {
	plans   PlanCreator
	metrics *metrics.Manager
}

func NewSubmitter(plans PlanCreator, metricsManager *metrics.Manager) *Submitter {
	return &Submitter{
		plans:   plans,
		metrics: metricsManager,
	}
}

// Submit creates one plan per session, in order, stopping at the first
// failure. Nothing created before the failure is rolled back.
func (s *Submitter) Submit(ctx context.Context, coachID, studentID primitive.ObjectID, state State) ([]primitive.ObjectID, error) {
	if err := state.Validate(); err != nil {
		s.metrics.CounterWizardSubmissions.WithLabelValues("invalid").Inc()
		return nil, err
	}

	created := make([]primitive.ObjectID, 0, len(state.Sessions))
	for i, sess := range state.Sessions {
		planID, err := s.plans.CreatePlan(ctx, coachID, PlanInput(state, sess, studentID))
		if err != nil {
			result := "failed"
			if len(created) > 0 {
				result = "partial"
			}
			s.metrics.CounterWizardSubmissions.WithLabelValues(result).Inc()
			log.Errorf("wizard submit for %s: session %q: %s", studentID.Hex(), sess.Title, err)
			return created, &SubmitError{
				Index:   i,
				Title:   sess.Title,
				Created: created,
				Err:     err,
			}
		}
		created = append(created, planID)
	}

	s.metrics.CounterWizardSubmissions.WithLabelValues("ok").Inc()
	log.Infof("wizard submit for %s: %d plans created", studentID.Hex(), len(created))
	return created, nil
}

// PlanInput flattens one session into the plan creation payload.
func PlanInput(state State, sess Session, studentID primitive.ObjectID) service.PlanInput {
	items := sess.Items()
	input := service.PlanInput{
		Title:            strings.TrimSpace(sess.Title),
		Description:      strings.TrimSpace(state.Description),
		AssigneeID:       studentID,
		FrequencyPerWeek: state.Frequency,
		Items:            make([]service.PlanItemInput, len(items)),
	}
	for i, it := range items {
		input.Items[i] = service.PlanItemInput{
			ExerciseID:  it.ExerciseID,
			Sets:        it.Sets,
			Reps:        it.Reps,
			LoadKg:      it.LoadKg,
			RestSeconds: it.RestSeconds,
			Notes:       it.Notes,
		}
	}
	return input
}

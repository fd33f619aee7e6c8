package panel

import (
	"context"
	"errors"
	"sync"

	"alcyxob/fitcoach/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmptyPlansMessage is shown when the student has no plans yet.
const EmptyPlansMessage = "Nenhum treino cadastrado ainda."

var (
	ErrPlanNotListed  = errors.New("plan is not in this student's list")
	ErrDeleteInFlight = errors.New("plan is already being deleted")
)

type Mode string

const (
	ModeProfile Mode = "profile"
	ModeWizard  Mode = "wizard"
)

// PlanStore is what the panel needs from the plan backend.
type PlanStore interface {
	ListStudentPlans(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	DeletePlan(ctx context.Context, planID primitive.ObjectID) error
}

// Student identifies whose profile the panel shows.
type Student struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	AvatarURL string             `json:"avatarUrl,omitempty"`
}

// ConfirmFunc asks the user to confirm deleting plan; it may block.
type ConfirmFunc func(ctx context.Context, plan domain.WorkoutPlan) bool

// Panel is the coach's view of one student: the plan list with delete, and
// the switch into the authoring wizard.
type Panel struct {
	store   PlanStore
	student Student

	mu       sync.Mutex
	plans    []domain.WorkoutPlan
	deleting map[primitive.ObjectID]bool
	mode     Mode
}

// Open loads the plans of student, oldest first.
func Open(ctx context.Context, store PlanStore, student Student) (*Panel, error) {
	p := &Panel{
		store:    store,
		student:  student,
		deleting: make(map[primitive.ObjectID]bool),
		mode:     ModeProfile,
	}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Panel) Student() Student { return p.student }

// Refresh replaces the list with a fresh fetch.
func (p *Panel) Refresh(ctx context.Context) error {
	plans, err := p.store.ListStudentPlans(ctx, p.student.ID)
	if err != nil {
		return err
	}
	if plans == nil {
		plans = []domain.WorkoutPlan{}
	}
	p.mu.Lock()
	p.plans = plans
	p.mu.Unlock()
	return nil
}

func (p *Panel) Plans() []domain.WorkoutPlan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.WorkoutPlan{}, p.plans...)
}

// IsDeleting reports whether planID has a delete in flight, which disables
// its row's delete control.
func (p *Panel) IsDeleting(planID primitive.ObjectID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deleting[planID]
}

// Delete asks confirm and, on yes, deletes the plan and re-fetches the list.
// The row stays until the backend confirms. It reports whether the plan was
// deleted; a declined confirmation is not an error.
func (p *Panel) Delete(ctx context.Context, planID primitive.ObjectID, confirm ConfirmFunc) (bool, error) {
	p.mu.Lock()
	var plan *domain.WorkoutPlan
	for i := range p.plans {
		if p.plans[i].ID == planID {
			plan = &p.plans[i]
			break
		}
	}
	if plan == nil {
		p.mu.Unlock()
		return false, ErrPlanNotListed
	}
	if p.deleting[planID] {
		p.mu.Unlock()
		return false, ErrDeleteInFlight
	}
	target := *plan
	p.mu.Unlock()

	if !confirm(ctx, target) {
		return false, nil
	}

	p.mu.Lock()
	if p.deleting[planID] {
		p.mu.Unlock()
		return false, ErrDeleteInFlight
	}
	p.deleting[planID] = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.deleting, planID)
		p.mu.Unlock()
	}()

	if err := p.store.DeletePlan(ctx, planID); err != nil {
		log.Warnf("panel: delete plan %s of %s: %s", planID.Hex(), p.student.ID.Hex(), err)
		return false, err
	}
	return true, p.Refresh(ctx)
}

func (p *Panel) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// OpenWizard switches to the authoring wizard.
func (p *Panel) OpenWizard() {
	p.mu.Lock()
	p.mode = ModeWizard
	p.mu.Unlock()
}

// CloseWizard returns to the profile and re-fetches, so plans created by the
// wizard show up.
func (p *Panel) CloseWizard(ctx context.Context) error {
	p.mu.Lock()
	p.mode = ModeProfile
	p.mu.Unlock()
	return p.Refresh(ctx)
}

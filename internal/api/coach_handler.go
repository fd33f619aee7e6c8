package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/panel"
	"alcyxob/fitcoach/internal/search"
	"alcyxob/fitcoach/internal/service"
	"alcyxob/fitcoach/internal/wizard"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DeleteConfirmTitle   = "Excluir treino"
	DeleteConfirmMessage = "Tem certeza que deseja excluir este treino? Essa ação não pode ser desfeita."
)

// exercisesWait bounds how long a draft's exercise listing waits for a
// pending picker fetch.
const exercisesWait = 5 * time.Second

// CoachHandler serves the coach tab: the roster, each student's profile panel
// and the authoring drafts opened from it.
type CoachHandler struct {
	roster service.RosterService
	plans  panel.PlanStore
	drafts *wizard.Store
	// panels keeps one profile panel per coach and student, so deletes in
	// flight are seen by concurrent requests.
	panels *cache.Cache
}

func NewCoachHandler(roster service.RosterService, plans panel.PlanStore, drafts *wizard.Store, panelTTL, cleanupInterval time.Duration) *CoachHandler {
	return &CoachHandler{
		roster: roster,
		plans:  plans,
		drafts: drafts,
		panels: cache.New(panelTTL, cleanupInterval),
	}
}

type RosterResponse struct {
	Students []domain.User `json:"students"`
	Message  string        `json:"message,omitempty"`
}

type PanelResponse struct {
	Student  panel.Student        `json:"student"`
	Mode     panel.Mode           `json:"mode"`
	Plans    []domain.WorkoutPlan `json:"plans"`
	Deleting []primitive.ObjectID `json:"deleting"`
	Message  string               `json:"message,omitempty"`
}

func panelResponse(p *panel.Panel) PanelResponse {
	plans := p.Plans()
	resp := PanelResponse{
		Student:  p.Student(),
		Mode:     p.Mode(),
		Plans:    plans,
		Deleting: []primitive.ObjectID{},
	}
	for _, plan := range plans {
		if p.IsDeleting(plan.ID) {
			resp.Deleting = append(resp.Deleting, plan.ID)
		}
	}
	if len(plans) == 0 {
		resp.Message = panel.EmptyPlansMessage
	}
	return resp
}

type DraftResponse struct {
	ID         string        `json:"id"`
	Student    panel.Student `json:"student"`
	State      wizard.State  `json:"state"`
	StepName   string        `json:"stepName"`
	CanAdvance bool          `json:"canAdvance"`
}

func draftResponse(d *wizard.Draft, state wizard.State) DraftResponse {
	return DraftResponse{
		ID:         d.ID,
		Student:    d.Student(),
		State:      state,
		StepName:   state.Step.String(),
		CanAdvance: state.CanAdvance(),
	}
}

type ExercisesResponse struct {
	search.Snapshot
	Error string `json:"error,omitempty"`
}

type SubmitResponse struct {
	PlanIDs []primitive.ObjectID `json:"planIds"`
}

// ListStudents returns the roster, filtered by ?q=. An empty roster carries
// the empty-state message.
func (h *CoachHandler) ListStudents(c *gin.Context) {
	students, err := h.roster.ListStudents(c.Request.Context(), c.Query("q"))
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve students.")
		return
	}
	resp := RosterResponse{Students: students}
	if len(students) == 0 {
		resp.Students = []domain.User{}
		resp.Message = service.EmptyRosterMessage
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CoachHandler) GetStudent(c *gin.Context) {
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return
	}
	student, err := h.roster.GetStudent(c.Request.Context(), studentID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve student.")
		return
	}
	c.JSON(http.StatusOK, student)
}

func panelKey(coachID, studentID primitive.ObjectID) string {
	return coachID.Hex() + "/" + studentID.Hex()
}

// panelFor returns the coach's panel on the student in the path, opening it
// or refreshing its list.
func (h *CoachHandler) panelFor(c *gin.Context) (*panel.Panel, primitive.ObjectID, bool) {
	coachID, ok := mustUserID(c)
	if !ok {
		return nil, coachID, false
	}
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return nil, coachID, false
	}
	ctx := c.Request.Context()

	key := panelKey(coachID, studentID)
	if v, found := h.panels.Get(key); found {
		p := v.(*panel.Panel)
		if err := p.Refresh(ctx); err != nil {
			abortWithServiceError(c, err, "Failed to retrieve workout plans.")
			return nil, coachID, false
		}
		h.panels.SetDefault(key, p)
		return p, coachID, true
	}

	student, err := h.roster.GetStudent(ctx, studentID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve student.")
		return nil, coachID, false
	}
	p, err := panel.Open(ctx, h.plans, panel.Student{
		ID:        student.ID,
		Name:      student.Name,
		AvatarURL: student.AvatarURL,
	})
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve workout plans.")
		return nil, coachID, false
	}
	h.panels.SetDefault(key, p)
	return p, coachID, true
}

// ListPlans opens the student's profile panel.
func (h *CoachHandler) ListPlans(c *gin.Context) {
	p, _, ok := h.panelFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, panelResponse(p))
}

// DeletePlan needs ?confirm=true, the answer to the confirmation dialog.
// Without it the plan is left alone and the dialog text comes back with 428.
func (h *CoachHandler) DeletePlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	p, _, ok := h.panelFor(c)
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	deleted, err := p.Delete(c.Request.Context(), planID, func(context.Context, domain.WorkoutPlan) bool {
		return confirmed
	})
	switch {
	case errors.Is(err, panel.ErrPlanNotListed):
		abortWithError(c, http.StatusNotFound, service.ErrPlanNotFound.Error())
		return
	case errors.Is(err, panel.ErrDeleteInFlight):
		abortWithError(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		abortWithServiceError(c, err, "Failed to delete workout plan.")
		return
	}
	if !deleted {
		c.AbortWithStatusJSON(http.StatusPreconditionRequired, gin.H{
			"error":   DeleteConfirmMessage,
			"title":   DeleteConfirmTitle,
			"planId":  planID,
			"confirm": "?confirm=true",
		})
		return
	}
	c.JSON(http.StatusOK, panelResponse(p))
}

// OpenDraft switches the student's panel into the wizard and returns the new
// draft.
func (h *CoachHandler) OpenDraft(c *gin.Context) {
	p, coachID, ok := h.panelFor(c)
	if !ok {
		return
	}
	d := h.drafts.Open(coachID, p)
	c.JSON(http.StatusCreated, draftResponse(d, d.State()))
}

func (h *CoachHandler) draft(c *gin.Context) (*wizard.Draft, primitive.ObjectID, bool) {
	coachID, ok := mustUserID(c)
	if !ok {
		return nil, coachID, false
	}
	d, err := h.drafts.Get(coachID, c.Param("draftId"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, err.Error())
		return nil, coachID, false
	}
	return d, coachID, true
}

func (h *CoachHandler) GetDraft(c *gin.Context) {
	d, _, ok := h.draft(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, draftResponse(d, d.State()))
}

// DispatchAction applies one wizard action. A refused action answers 422 and
// leaves the draft unchanged.
func (h *CoachHandler) DispatchAction(c *gin.Context) {
	d, coachID, ok := h.draft(c)
	if !ok {
		return
	}
	var action wizard.Action
	if !bindJSON(c, &action) {
		return
	}

	state, err := h.drafts.Dispatch(c.Request.Context(), coachID, d.ID, action)
	if err != nil {
		switch {
		case errors.Is(err, wizard.ErrDraftNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, wizard.ErrSubmitInFlight):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrExerciseNotFound), isWizardRefusal(err):
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"error": err.Error(),
				"draft": draftResponse(d, state),
			})
		default:
			abortWithServiceError(c, err, "Failed to apply action.")
		}
		return
	}
	c.JSON(http.StatusOK, draftResponse(d, state))
}

func isWizardRefusal(err error) bool {
	for _, target := range []error{
		wizard.ErrStepIncomplete,
		wizard.ErrFirstStep,
		wizard.ErrLastSession,
		wizard.ErrInvalidIndex,
		wizard.ErrUnknownMuscle,
		wizard.ErrInvalidFrequency,
		wizard.ErrNotSelected,
		wizard.ErrMissingExercise,
		wizard.ErrUnknownAction,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Exercises returns the draft's picker, waiting a bounded time for a
// pending fetch.
func (h *CoachHandler) Exercises(c *gin.Context) {
	d, _, ok := h.draft(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), exercisesWait)
	defer cancel()

	snap, _ := d.Exercises(ctx)
	resp := ExercisesResponse{Snapshot: snap}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// Submit creates one plan per session. On success the draft is gone and the
// panel is back on the profile; on failure the draft stays open for a retry.
func (h *CoachHandler) Submit(c *gin.Context) {
	d, coachID, ok := h.draft(c)
	if !ok {
		return
	}

	created, err := h.drafts.Submit(c.Request.Context(), coachID, d.ID)
	if err != nil {
		var submitErr *wizard.SubmitError
		var emptyErr *wizard.EmptySessionError
		switch {
		case errors.As(err, &submitErr):
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
				"error":   submitErr.Error(),
				"session": submitErr.Title,
				"planIds": created,
			})
		case errors.As(err, &emptyErr), isWizardRefusal(err):
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, wizard.ErrDraftNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, wizard.ErrSubmitInFlight):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithServiceError(c, err, "Failed to submit workout plans.")
		}
		return
	}
	c.JSON(http.StatusCreated, SubmitResponse{PlanIDs: created})
}

// CloseDraft discards the draft, returning its panel to the profile.
func (h *CoachHandler) CloseDraft(c *gin.Context) {
	d, coachID, ok := h.draft(c)
	if !ok {
		return
	}
	if err := h.drafts.Close(c.Request.Context(), coachID, d.ID); err != nil {
		switch {
		case errors.Is(err, wizard.ErrDraftNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, wizard.ErrSubmitInFlight):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithServiceError(c, err, "Failed to close draft.")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/service"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// StudentHandler serves the student tabs.
type StudentHandler struct {
	studentService service.StudentService
}

func NewStudentHandler(studentService service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

type PlansResponse struct {
	Plans []domain.WorkoutPlan `json:"plans"`
}

func (h *StudentHandler) ListPlans(c *gin.Context) {
	studentID, ok := mustUserID(c)
	if !ok {
		return
	}
	plans, err := h.studentService.ListMyPlans(c.Request.Context(), studentID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve training plans.")
		return
	}
	if plans == nil {
		plans = []domain.WorkoutPlan{}
	}
	c.JSON(http.StatusOK, PlansResponse{Plans: plans})
}

func (h *StudentHandler) PlanDetail(c *gin.Context) {
	studentID, ok := mustUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	detail, err := h.studentService.PlanDetail(c.Request.Context(), studentID, planID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve training plan.")
		return
	}
	c.JSON(http.StatusOK, detail)
}

type plansUpdate struct {
	plans []domain.WorkoutPlan
	err   error
}

// StreamPlans sends the plan list as a "plans" event, then again after every
// change to any plan. A failed re-fetch is sent as an "error" event and the
// stream goes on.
func (h *StudentHandler) StreamPlans(c *gin.Context) {
	studentID, ok := mustUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	initial, err := h.studentService.ListMyPlans(ctx, studentID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve training plans.")
		return
	}

	updates := make(chan plansUpdate, 1)
	updates <- plansUpdate{plans: initial}
	stop := h.studentService.WatchMyPlans(ctx, studentID, func(plans []domain.WorkoutPlan, err error) {
		// only the latest list matters
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- plansUpdate{plans: plans, err: err}:
		case <-ctx.Done():
		}
	})
	defer stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case u := <-updates:
			if u.err != nil {
				log.Warnf("plans stream of %s: %s", studentID.Hex(), u.err)
				c.SSEvent("error", gin.H{"error": u.err.Error()})
				return true
			}
			if u.plans == nil {
				u.plans = []domain.WorkoutPlan{}
			}
			c.SSEvent("plans", PlansResponse{Plans: u.plans})
			return true
		}
	})
}

package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// Search returns one page of the catalog.
// GET /exercises?q=&muscle=&page=
func (h *ExerciseHandler) Search(c *gin.Context) {
	page := 0
	if raw := c.Query("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 0 {
			abortWithError(c, http.StatusBadRequest, "page must be a non-negative integer")
			return
		}
		page = p
	}

	result, err := h.exerciseService.Search(c.Request.Context(), c.Query("q"), c.Query("muscle"), page)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve exercises.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetExercise returns one catalog entry.
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	exercise, err := h.exerciseService.GetExercise(c.Request.Context(), exerciseID)
	if err != nil {
		abortWithServiceError(c, err, "Failed to retrieve exercise.")
		return
	}
	c.JSON(http.StatusOK, exercise)
}

type CreateExerciseRequest struct {
	Name        string `json:"name" binding:"required"`
	MuscleGroup string `json:"muscleGroup"`
	Equipment   string `json:"equipment"`
	DemoURL     string `json:"demoUrl" binding:"omitempty,url"`
}

// CreateExercise adds a catalog entry. Coach only.
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req CreateExerciseRequest
	if !bindJSON(c, &req) {
		return
	}
	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), domain.Exercise{
		Name:        req.Name,
		MuscleGroup: req.MuscleGroup,
		Equipment:   req.Equipment,
		DemoURL:     req.DemoURL,
	})
	if err != nil {
		abortWithServiceError(c, err, "Failed to create exercise.")
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

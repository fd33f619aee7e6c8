package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/gate"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/service"
	"alcyxob/fitcoach/internal/wizard"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Deps is everything the routes are wired to.
type Deps struct {
	AuthService     service.AuthService
	RosterService   service.RosterService
	PlanService     service.PlanService
	ExerciseService service.ExerciseService
	StudentService  service.StudentService
	SettingsService service.SettingsService
	Gate            *gate.Gate
	Drafts          *wizard.Store
	Metrics         *metrics.Manager
	// Roles is read on every coach request.
	Roles roleSource

	// PanelTTL is how long an idle coach panel is kept.
	PanelTTL          time.Duration
	PanelCleanupEvery time.Duration
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	useWireNames()

	authHandler := NewAuthHandler(deps.AuthService)
	sessionHandler := NewSessionHandler(deps.Gate, deps.AuthService)
	exerciseHandler := NewExerciseHandler(deps.ExerciseService)
	coachHandler := NewCoachHandler(deps.RosterService, deps.PlanService, deps.Drafts, deps.PanelTTL, deps.PanelCleanupEvery)
	studentHandler := NewStudentHandler(deps.StudentService)
	settingsHandler := NewSettingsHandler(deps.SettingsService)

	authMiddleware := AuthMiddleware(deps.AuthService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/signin", authHandler.SignIn)
			authGroup.POST("/signin/coach", authHandler.SignInCoach)
			authGroup.POST("/signout", authHandler.SignOut)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// the gate answers signed_out instead of 401
		apiV1.GET("/session/route", sessionHandler.Route)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, ok := mustUserID(c)
			if !ok {
				return
			}
			user, err := deps.AuthService.GetUser(c.Request.Context(), userID)
			if err != nil {
				abortWithServiceError(c, err, "Failed to retrieve user.")
				return
			}
			c.JSON(http.StatusOK, user)
		})
		protected.GET("/session/events", sessionHandler.Events)

		protected.GET("/exercises", exerciseHandler.Search)
		protected.GET("/exercises/:exerciseId", exerciseHandler.GetExercise)

		settingsGroup := protected.Group("/settings")
		{
			settingsGroup.GET("", settingsHandler.Load)
			settingsGroup.PUT("", settingsHandler.Save)
			settingsGroup.POST("/avatar", settingsHandler.ReplaceAvatar)
		}

		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(deps.Roles, domain.RoleCoach))
		{
			coachGroup.GET("/students", coachHandler.ListStudents)
			coachGroup.GET("/students/:studentId", coachHandler.GetStudent)
			coachGroup.GET("/students/:studentId/plans", coachHandler.ListPlans)
			coachGroup.DELETE("/students/:studentId/plans/:planId", coachHandler.DeletePlan)
			coachGroup.POST("/students/:studentId/drafts", coachHandler.OpenDraft)
			coachGroup.POST("/exercises", exerciseHandler.CreateExercise)

			coachGroup.GET("/drafts/:draftId", coachHandler.GetDraft)
			coachGroup.POST("/drafts/:draftId/actions", coachHandler.DispatchAction)
			coachGroup.GET("/drafts/:draftId/exercises", coachHandler.Exercises)
			coachGroup.POST("/drafts/:draftId/submit", coachHandler.Submit)
			coachGroup.DELETE("/drafts/:draftId", coachHandler.CloseDraft)
		}

		studentGroup := protected.Group("/student")
		{
			studentGroup.GET("/plans", studentHandler.ListPlans)
			studentGroup.GET("/plans/stream", studentHandler.StreamPlans)
			studentGroup.GET("/plans/:planId", studentHandler.PlanDetail)
		}
	}
}

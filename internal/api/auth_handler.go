package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SessionResponse struct {
	Session *service.Session `json:"session"`
	User    *domain.User     `json:"user,omitempty"`
}

// SignUp registers a student account.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithServiceError(c, err, "Could not process registration")
		}
		return
	}
	c.JSON(http.StatusCreated, user)
}

// SignIn is the student entry point; any role may sign in here.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	session, user, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.abortSignIn(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: session, User: user})
}

func (h *AuthHandler) SignInCoach(c *gin.Context) {
	var req SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	session, user, err := h.authService.SignInCoach(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.abortSignIn(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: session, User: user})
}

func (h *AuthHandler) abortSignIn(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotCoach):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithServiceError(c, err, "Could not process login")
	}
}

// SignOut revokes the bearer token. Signing out without a valid session
// still succeeds.
func (h *AuthHandler) SignOut(c *gin.Context) {
	token, err := bearerToken(c)
	if err != nil {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.authService.SignOut(c.Request.Context(), token); err != nil {
		log.Warnf("sign-out: %s", err)
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := bearerToken(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	session, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrTokenGeneration) {
			abortWithError(c, http.StatusInternalServerError, "Could not refresh session")
			return
		}
		abortWithError(c, http.StatusUnauthorized, service.ErrNoSession.Error())
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: session})
}

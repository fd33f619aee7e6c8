package api

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"alcyxob/fitcoach/internal/service"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
	ContextTokenKey    = "accessToken"
)

// accessTokenParam carries the token for clients that cannot set headers,
// like EventSource.
const accessTokenParam = "access_token"

type sessionGetter interface {
	GetSession(ctx context.Context, token string) (*service.Session, error)
}

// AuthMiddleware resolves the bearer token into a session and stores its user
// in the request context.
func AuthMiddleware(sessions sessionGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}

		session, err := sessions.GetSession(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrSessionExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, service.ErrNoSession.Error())
			}
			return
		}

		c.Set(ContextUserIDKey, session.UserID)
		c.Set(ContextUserRoleKey, session.Role)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// access_token query parameter.
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query(accessTokenParam); token != "" {
			return token, nil
		}
		return "", errors.New("Authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errors.New("Authorization header format must be Bearer {token}")
	}
	return parts[1], nil
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// abortWithServiceError maps the errors shared by every handler; anything
// unknown is logged and reported as a 500 with fallback as message.
func abortWithServiceError(c *gin.Context, err error, fallback string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, service.ErrNoSession), errors.Is(err, service.ErrSessionExpired):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusGatewayTimeout, fallback)
	default:
		log.Errorf("%s %s: %s", c.Request.Method, c.FullPath(), err)
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

type roleSource interface {
	GetRole(ctx context.Context, userID primitive.ObjectID) (domain.Role, error)
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware. The role is read from roles on every request,
// so a demoted user loses access before the token expires.
func RoleMiddleware(roles roleSource, allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := getUserIDFromContext(c)
		if err != nil {
			// This indicates a programming error (middleware order)
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}

		userRole, err := roles.GetRole(c.Request.Context(), userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			abortWithError(c, http.StatusForbidden, "Access denied: user no longer exists")
			return
		case err != nil:
			log.Errorf("role of %s: %s", userID.Hex(), err)
			abortWithError(c, http.StatusInternalServerError, "Failed to check permissions.")
			return
		}
		c.Set(ContextUserRoleKey, userRole)

		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
	}
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (primitive.ObjectID, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return primitive.NilObjectID, errors.New("user ID not found in context")
	}
	id, ok := idRaw.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("invalid user ID type in context")
	}
	return id, nil
}

// mustUserID aborts with 401 when the context carries no user.
func mustUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathObjectID parses the hex id in the path parameter name, aborting with
// 400 when it is malformed.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format.", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-sprint-api/internal/models"
	appErrors "github.com/noah-isme/study-sprint-api/pkg/errors"
	"github.com/noah-isme/study-sprint-api/pkg/logger"
	"github.com/noah-isme/study-sprint-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token. The caller's id is stored for
// handlers and for request logging.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(logger.UserIDKey, claims.Principal())
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, or nil when the request carries no claims.
func CurrentUser(c *gin.Context) *models.AuthUser {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims.Principal() == "" {
		return nil
	}
	return &models.AuthUser{ID: claims.Principal(), Email: claims.Email, Role: claims.Role}
}

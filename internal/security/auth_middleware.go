package security

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dataviz-sync/pkg/response"
)

// AuthMiddleware guards routes with JWT bearer authentication
type AuthMiddleware struct {
	jwtManager *JWTManager
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtManager *JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
	}
}

// RequireAuth rejects requests without a valid bearer token. On success the
// caller's identity lands in the request context; downstream handlers read the
// org scope through GetOrgID.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, response.UnauthorizedResponse(
				"Authorization header is required",
				am.getCorrelationID(c),
			))
			c.Abort()
			return
		}

		token, err := am.jwtManager.ExtractTokenFromHeader(authHeader)
		if err != nil {
			c.JSON(http.StatusUnauthorized, response.UnauthorizedResponse(
				err.Error(),
				am.getCorrelationID(c),
			))
			c.Abort()
			return
		}

		claims, err := am.jwtManager.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, response.UnauthorizedResponse(
				"Invalid or expired token",
				am.getCorrelationID(c),
			))
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("org_id", claims.OrgID)

		c.Next()
	}
}

func (am *AuthMiddleware) getCorrelationID(c *gin.Context) string {
	if correlationID, exists := c.Get("correlation_id"); exists {
		if id, ok := correlationID.(string); ok {
			return id
		}
	}
	return ""
}

// GetOrgID extracts the caller's org id from context
func GetOrgID(c *gin.Context) (string, bool) {
	orgID, exists := c.Get("org_id")
	if !exists {
		return "", false
	}
	id, ok := orgID.(string)
	return id, ok
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/firstclass-tutorials/fct-api/internal/models"
	appErrors "github.com/firstclass-tutorials/fct-api/pkg/errors"
	"github.com/firstclass-tutorials/fct-api/pkg/response"
)

// ContextAdminKey is the gin context key storing JWT claims.
const ContextAdminKey = "currentAdmin"

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects admin routes by requiring a valid access token.
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

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

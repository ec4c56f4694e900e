package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/firstclass-tutorials/fct-api/internal/middleware"
	"github.com/firstclass-tutorials/fct-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextAdminKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

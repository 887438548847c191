package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/upigw/backend/internal/domain/identity"
	"github.com/upigw/backend/internal/interfaces/http/dto"
)

// Coarse role guards. These gate whole route groups on the LIVE principal's
// role; the fine-grained decisions stay in the services, which run the
// permission evaluator against the concrete target.

// RequireRole allows only principals holding one of the given roles
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[identity.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
			return
		}
		if !allowed[principal.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Not authorized to perform this action"))
			return
		}
		c.Next()
	}
}

// RequireRoleAtOrAbove allows principals at or above the given privilege
// level
func RequireRoleAtOrAbove(required identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
			return
		}
		if !principal.Role.AtOrAbove(required) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Not authorized to perform this action"))
			return
		}
		c.Next()
	}
}

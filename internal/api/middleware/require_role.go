package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/lexispeak/internal/models"
	"github.com/yoockh/lexispeak/internal/utils"
)

// RequireRole must run after JWTAuth.
func RequireRole(allowed ...models.UserRole) gin.HandlerFunc {
	allow := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		allow[models.UserRole(strings.ToLower(strings.TrimSpace(string(a))))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := models.UserRole(strings.ToLower(strings.TrimSpace(c.GetString("role"))))
		if _, ok := allow[role]; !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "forbidden",
			})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc { return RequireRole(models.RoleAdmin) }

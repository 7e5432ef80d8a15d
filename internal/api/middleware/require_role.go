package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/utils"
)

// RequireRole admits only callers whose "role" (set by JWTAuth) is one of
// allowed. Comparison ignores case.
func RequireRole(allowed ...models.UserRole) gin.HandlerFunc {
	allow := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		if a = models.UserRole(strings.ToLower(strings.TrimSpace(string(a)))); a != "" {
			allow[a] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		raw, _ := c.Get("role")
		role, _ := raw.(string)
		if _, ok := allow[models.UserRole(strings.ToLower(role))]; !ok {
			c.Error(utils.E(utils.CodeForbidden, "RequireRole", "role "+role+" not allowed", nil))
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "insufficient role",
			})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc { return RequireRole(models.RoleAdmin) }

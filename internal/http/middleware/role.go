package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dashboard/internal/session"
)

// RequireRoles admits super users and users whose role is in allowedRoles.
// It must run after RequireSession.
//
//	r.POST("/admin/users", RequireRoles("admin"), handler)
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		user := session.FromContext(c.Request.Context()).User()
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "authentication required",
				"redirect": LoginPath,
			})
			return
		}
		if user.IsSuperUser {
			c.Next()
			return
		}
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(user.Role))]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "forbidden: role is not allowed",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}

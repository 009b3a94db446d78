package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dashboard/internal/services"
	"dashboard/internal/session"
)

const dashboardKey = "dashboard"

// LoginPath is where the front end sends operators without a session.
const LoginPath = "/login"

// BindSession makes the dashboard and its session store reachable from
// the gin context and from the request context.
func BindSession(d *services.Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dashboardKey, d)
		c.Request = c.Request.WithContext(session.WithStore(c.Request.Context(), d.Session))
		c.Next()
	}
}

// Dashboard returns the dashboard bound by BindSession.
func Dashboard(c *gin.Context) *services.Dashboard {
	return c.MustGet(dashboardKey).(*services.Dashboard)
}

// RequireSession rejects requests without an authenticated session and
// tells the client where to go.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.FromContext(c.Request.Context()).Authenticated() {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":      "authentication required",
			"code":       "unauthenticated",
			"redirect":   LoginPath,
			"request_id": GetRequestID(c),
		})
	}
}

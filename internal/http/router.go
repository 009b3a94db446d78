package api

import (
	stdhttp "net/http"

	intconfig "dashboard/internal/config"
	h "dashboard/internal/http/handlers"
	"dashboard/internal/http/middleware"
	"dashboard/internal/services"
	"dashboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// AdminRoles may manage users and restaurants besides super users.
var AdminRoles = []string{"admin"}

// NewRouter wires the dashboard API. gatherer may be nil to skip /metrics.
func NewRouter(env intconfig.Env, d *services.Dashboard, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.L().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/storage-check", h.StorageCheck)
		api.GET("/routes", h.Routes)
		if gatherer != nil {
			api.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
		}

		bound := api.Group("", middleware.BindSession(d))

		// Session
		sess := bound.Group("/session")
		sess.GET("", h.GetSession)
		sess.POST("/login", h.Login)
		sess.POST("/logout", h.Logout)

		authed := bound.Group("", middleware.RequireSession())
		authed.PUT("/session/restaurant", h.SelectRestaurant)
		authed.GET("/notifications", h.Notifications)

		// Lists
		lists := authed.Group("/lists/:list")
		lists.GET("", h.GetList)
		lists.POST("/page", h.SetListPage)
		lists.POST("/next", h.NextListPage)
		lists.POST("/prev", h.PrevListPage)
		lists.POST("/limit", h.SetListLimit)
		lists.POST("/sort", h.ToggleListSort)
		lists.POST("/search", h.SetListSearch)
		lists.POST("/filters", h.SetListFilters)
		lists.DELETE("/filters", h.ClearListFilters)
		lists.POST("/refresh", h.RefreshList)

		// Orders
		orders := authed.Group("/orders")
		orders.GET("/grouped", h.GetGroupedOrders)
		orders.GET("/export.pdf", h.ExportOrdersPDF)
		orders.GET("/export.xlsx", h.ExportOrdersXLSX)
		orders.GET("/export.csv", h.ExportOrdersCSV)

		// Admin
		admin := authed.Group("/admin", middleware.RequireRoles(AdminRoles...))
		admin.POST("/users", h.CreateUser)
		admin.PUT("/users/:id", h.UpdateUser)
		admin.POST("/restaurants", h.CreateRestaurant)
		admin.PUT("/restaurants/:id", h.UpdateRestaurant)
	}

	h.SetRouter(r)
	return r
}

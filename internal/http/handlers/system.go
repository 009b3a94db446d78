package handlers

import (
	"net/http"
	"sync"

	intconfig "dashboard/internal/config"
	intdb "dashboard/internal/db"
	"dashboard/internal/repositories"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "dashboard is running"})
}

// StorageCheck verifies the session storage database answers queries.
func StorageCheck(c *gin.Context) {
	if err := intconfig.EnsureDB(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if !intdb.HasTable(ctx, intconfig.DB, intconfig.DBDriver, intdb.StorageTable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage table " + intdb.StorageTable + " is missing"})
		return
	}
	n, err := repositories.StorageRepository{}.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage query failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "storage connection OK", "keys_in_storage": n})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router is not ready"})
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}

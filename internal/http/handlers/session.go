package handlers

import (
	"net/http"

	"dashboard/internal/http/middleware"
	"dashboard/internal/session"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type selectRestaurantRequest struct {
	RestaurantID int64 `json:"restaurantId" binding:"required"`
}

type sessionResponse struct {
	Authenticated bool `json:"authenticated"`
	session.Snapshot
	Redirect string `json:"redirect,omitempty"`
}

func sessionPayload(s session.Snapshot) sessionResponse {
	resp := sessionResponse{Authenticated: s.Authenticated(), Snapshot: s}
	if !resp.Authenticated {
		resp.Redirect = middleware.LoginPath
	}
	return resp
}

// Login exchanges credentials with the remote API and stores the session.
func Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	snap, err := middleware.Dashboard(c).Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionPayload(snap))
}

func Logout(c *gin.Context) {
	d := middleware.Dashboard(c)
	if err := d.Logout(); err != nil {
		// memory is already cleared; the client is logged out either way
		respondError(c, http.StatusInternalServerError, "storage_error", "session storage could not be cleared", nil)
		return
	}
	c.JSON(http.StatusOK, sessionPayload(d.Session.Snapshot()))
}

// GetSession reports the current session; unauthenticated callers get a redirect hint.
func GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionPayload(middleware.Dashboard(c).CurrentSession()))
}

func SelectRestaurant(c *gin.Context) {
	var req selectRestaurantRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	d := middleware.Dashboard(c)
	if _, err := d.SelectRestaurant(req.RestaurantID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionPayload(d.Session.Snapshot()))
}

// Notifications drains pending notices; the front end polls this.
func Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": middleware.Dashboard(c).Board.Drain()})
}

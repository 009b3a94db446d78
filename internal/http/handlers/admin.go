package handlers

import (
	"net/http"

	"dashboard/internal/domain/models"
	"dashboard/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func CreateUser(c *gin.Context) {
	var in models.UserInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, err := middleware.Dashboard(c).CreateUser(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in models.UserInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, err := middleware.Dashboard(c).UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func CreateRestaurant(c *gin.Context) {
	var in models.RestaurantInput
	if !BindJSONOrError(c, &in) {
		return
	}
	r, err := middleware.Dashboard(c).CreateRestaurant(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func UpdateRestaurant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in models.RestaurantInput
	if !BindJSONOrError(c, &in) {
		return
	}
	r, err := middleware.Dashboard(c).UpdateRestaurant(c.Request.Context(), id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

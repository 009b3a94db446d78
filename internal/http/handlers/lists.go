package handlers

import (
	"context"
	"net/http"

	"dashboard/internal/domain/models"
	"dashboard/internal/http/middleware"
	"dashboard/internal/listquery"
	"dashboard/internal/services"

	"github.com/gin-gonic/gin"
)

// listPage erases the row type of a controller so one set of handlers
// serves every list.
type listPage interface {
	Ensure(ctx context.Context) any
	Refresh(ctx context.Context) any
	SetPage(ctx context.Context, n int) (any, error)
	NextPage(ctx context.Context) any
	PrevPage(ctx context.Context) any
	SetLimit(ctx context.Context, n int) (any, error)
	ToggleSort(ctx context.Context, column string) (any, error)
	SetSearch(ctx context.Context, text string) any
	SetFilters(c *gin.Context)
	ClearFilters(ctx context.Context) any
}

type page[T any] struct {
	c *listquery.Controller[T]
}

func (p page[T]) Ensure(ctx context.Context) any  { return p.c.Ensure(ctx) }
func (p page[T]) Refresh(ctx context.Context) any { return p.c.Refresh(ctx) }
func (p page[T]) SetPage(ctx context.Context, n int) (any, error) {
	return p.c.SetPage(ctx, n)
}
func (p page[T]) NextPage(ctx context.Context) any { return p.c.NextPage(ctx) }
func (p page[T]) PrevPage(ctx context.Context) any { return p.c.PrevPage(ctx) }
func (p page[T]) SetLimit(ctx context.Context, n int) (any, error) {
	return p.c.SetLimit(ctx, n)
}
func (p page[T]) ToggleSort(ctx context.Context, column string) (any, error) {
	return p.c.ToggleSort(ctx, column)
}
func (p page[T]) SetSearch(ctx context.Context, text string) any { return p.c.SetSearch(ctx, text) }
func (p page[T]) ClearFilters(ctx context.Context) any           { return p.c.ClearFilters(ctx) }

// SetFilters binds a free-form filter object and writes the response.
func (p page[T]) SetFilters(c *gin.Context) {
	var body map[string]string
	if !BindJSONOrError(c, &body) {
		return
	}
	v, err := p.c.SetFilters(c.Request.Context(), body)
	respondView(c, v, err)
}

// orderPage validates the status and date filters shared by both order lists.
type orderPage struct {
	page[models.Order]
}

func (p orderPage) SetFilters(c *gin.Context) {
	var body services.OrderFilters
	if !BindJSONOrError(c, &body) {
		return
	}
	v, err := services.ApplyOrderFilters(c.Request.Context(), p.c, body)
	respondView(c, v, err)
}

func resolvePage(c *gin.Context) (listPage, bool) {
	pages := middleware.Dashboard(c).Pages()
	switch c.Param("list") {
	case services.ListUsers:
		return page[models.User]{pages.Users}, true
	case services.ListRestaurants:
		return page[models.Restaurant]{pages.Restaurants}, true
	case services.ListOrders:
		return orderPage{page[models.Order]{pages.Orders}}, true
	case services.ListOrderList:
		return orderPage{page[models.Order]{pages.OrderList}}, true
	}
	respondError(c, http.StatusNotFound, "unknown_list", "unknown list "+c.Param("list"), nil)
	return nil, false
}

type pageRequest struct {
	Page int `json:"page" binding:"required"`
}

type limitRequest struct {
	Limit int `json:"limit" binding:"required"`
}

type sortRequest struct {
	Column string `json:"column" binding:"required"`
}

type searchRequest struct {
	Search string `json:"search"`
}

func respondView(c *gin.Context, v any, err error) {
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GetList returns the list view, fetching it on first access.
func GetList(c *gin.Context) {
	p, ok := resolvePage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p.Ensure(c.Request.Context()))
}

func RefreshList(c *gin.Context) {
	p, ok := resolvePage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p.Refresh(c.Request.Context()))
}

func SetListPage(c *gin.Context) {
	p, ok := resolvePage(c)
	if !ok {
		return
	}
	var req pageRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := p.SetPage(c.Request.Context(), req.Page)
	respondView(c, v, err)
}

func NextListPage(c *gin.Context) {
	p, ok := resolvePage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p.NextPage(c.Request.Context()))
}

func PrevListPage(c *gin.Context) {
	p, ok := resolvePage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p.PrevPage(c.Request.Context()))
}

func SetListLimit(c *gin.Context) {
	p, ok := resolvePage(c)
	if !ok {
		return
	}
	var req limitRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := p.SetLimit(c.Request.Context(), req.Limit)
	respondView(c, v, err)
}

func ToggleListSort(c *gin.Context) {
	p, ok := resolvePage(c)
	if !ok {
		return
	}
	var req sortRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := p.ToggleSort(c.Request.Context(), req.Column)
	respondView(c, v, err)
}

func SetListSearch(c *gin.Context) {
	p, ok := resolvePage(c)
	if !ok {
		return
	}
	var req searchRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	c.JSON(http.StatusOK, p.SetSearch(c.Request.Context(), req.Search))
}

func SetListFilters(c *gin.Context) {
	p, ok := resolvePage(c)
	if !ok {
		return
	}
	p.SetFilters(c)
}

func ClearListFilters(c *gin.Context) {
	p, ok := resolvePage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p.ClearFilters(c.Request.Context()))
}

// Package listquery turns list view state (page, sort, search, filters) into
// canonical query parameters and keeps the last fetched page of rows.
package listquery

import (
	"context"
	"net/url"
	"slices"

	"dashboard/internal/domain/models"
)

type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == DESC {
		return ASC
	}
	return DESC
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Ordering struct {
	OrderBy        string    `json:"orderBy"`
	OrderDirection Direction `json:"orderDirection"`
}

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
)

// Query parameter names sent to the remote API.
const (
	ParamPage           = "page"
	ParamLimit          = "limit"
	ParamOrderBy        = "order_by"
	ParamOrderDirection = "order_direction"
	ParamSearch         = "search"
	ParamRestaurantID   = "restaurantId"
)

var reservedParams = []string{
	ParamPage, ParamLimit, ParamOrderBy, ParamOrderDirection, ParamSearch, ParamRestaurantID,
}

// DefaultPageSizes are the selectable rows-per-page values.
var DefaultPageSizes = []int{10, 20, 50}

// FetchFunc executes one list request against the remote API.
type FetchFunc[T any] func(ctx context.Context, params url.Values) ([]T, error)

// Scope supplies the active restaurant for restaurant-scoped resources.
type Scope interface {
	SelectedRestaurant() *models.RestaurantRef
}

// Resource describes one list page: what can be sorted, its defaults and how to fetch it.
type Resource[T any] struct {
	Name       string
	SortFields []string
	PageSizes  []int
	Scoped     bool
	Pagination Pagination
	Ordering   Ordering
	Filters    map[string]string
	Fetch      FetchFunc[T]
}

func (r Resource[T]) pageSizes() []int {
	if len(r.PageSizes) == 0 {
		return DefaultPageSizes
	}
	return r.PageSizes
}

func (r Resource[T]) sortable(column string) bool {
	return slices.Contains(r.SortFields, column)
}

// View is a read-only snapshot of a controller.
type View[T any] struct {
	Resource        string            `json:"resource"`
	Pagination      Pagination        `json:"pagination"`
	Ordering        Ordering          `json:"ordering"`
	Search          string            `json:"search"`
	Filters         map[string]string `json:"filters"`
	Items           []T               `json:"items"`
	State           State             `json:"state"`
	Loaded          bool              `json:"loaded"`
	NeedsRestaurant bool              `json:"needsRestaurant"`
	LastError       string            `json:"lastError,omitempty"`
	PageSizes       []int             `json:"pageSizes"`
	SortFields      []string          `json:"sortFields"`
}

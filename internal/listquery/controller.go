package listquery

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dashboard/internal/domain"
	"dashboard/internal/notify"
	"dashboard/internal/utils"
)

// Controller owns the list state of one page.
//
// Every mutation that changes state issues exactly one fetch on the calling
// goroutine. Fetches are numbered; only the most recently issued one may
// replace the displayed rows, so a slow response can never overwrite a newer one.
type Controller[T any] struct {
	res      Resource[T]
	scope    Scope
	notifier notify.Notifier

	mu         sync.Mutex
	pagination Pagination
	ordering   Ordering
	search     string
	filters    map[string]string

	items   []T
	loaded  bool
	dirty   bool
	lastErr string
	issued  uint64
	settled uint64
}

// New builds a controller. scope may be nil for unscoped resources.
func New[T any](res Resource[T], scope Scope, notifier notify.Notifier) *Controller[T] {
	if res.Fetch == nil {
		panic("listquery: resource " + res.Name + " has no fetch function")
	}
	if res.Scoped && scope == nil {
		panic("listquery: scoped resource " + res.Name + " needs a scope")
	}
	if notifier == nil {
		notifier = notify.NotifierFunc(func(notify.Notice) {})
	}

	p := res.Pagination
	if p.Page < 1 {
		p.Page = 1
	}
	if !slices.Contains(res.pageSizes(), p.Limit) {
		p.Limit = res.pageSizes()[0]
		if slices.Contains(res.pageSizes(), 20) {
			p.Limit = 20
		}
	}
	o := res.Ordering
	if o.OrderBy == "" {
		o.OrderBy = "id"
	}
	if o.OrderDirection == "" {
		o.OrderDirection = DESC
	}

	return &Controller[T]{
		res:        res,
		scope:      scope,
		notifier:   notifier,
		pagination: p,
		ordering:   o,
		filters:    cleanFilters(res.Filters),
		items:      []T{},
		dirty:      true,
	}
}

// Load performs the initial fetch of a freshly mounted page.
func (c *Controller[T]) Load(ctx context.Context) View[T] {
	c.mu.Lock()
	return c.fetchLocked(ctx)
}

// Ensure fetches on first access or after Invalidate; otherwise it only
// returns the current view.
func (c *Controller[T]) Ensure(ctx context.Context) View[T] {
	c.mu.Lock()
	if !c.dirty {
		v := c.viewLocked()
		c.mu.Unlock()
		return v
	}
	return c.fetchLocked(ctx)
}

// Invalidate marks the rows as outdated, e.g. after the scope changed.
func (c *Controller[T]) Invalidate() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// Refresh refetches with unchanged state.
func (c *Controller[T]) Refresh(ctx context.Context) View[T] {
	return c.Load(ctx)
}

// SetPage moves to page n; values below 1 are rejected and nothing is fetched.
func (c *Controller[T]) SetPage(ctx context.Context, n int) (View[T], error) {
	if n < 1 {
		return c.View(), domain.ValidationError{Field: "page", Msg: "page must be at least 1"}
	}
	return c.mutate(ctx, func() bool {
		if c.pagination.Page == n {
			return false
		}
		c.pagination.Page = n
		return true
	}), nil
}

func (c *Controller[T]) NextPage(ctx context.Context) View[T] {
	return c.mutate(ctx, func() bool {
		c.pagination.Page++
		return true
	})
}

// PrevPage is a no-op on the first page.
func (c *Controller[T]) PrevPage(ctx context.Context) View[T] {
	return c.mutate(ctx, func() bool {
		if c.pagination.Page <= 1 {
			return false
		}
		c.pagination.Page--
		return true
	})
}

// SetLimit sets the page size; only the resource's page sizes are accepted.
func (c *Controller[T]) SetLimit(ctx context.Context, n int) (View[T], error) {
	if !slices.Contains(c.res.pageSizes(), n) {
		return c.View(), domain.ValidationError{
			Field: "limit",
			Msg:   fmt.Sprintf("limit must be one of %v", c.res.pageSizes()),
		}
	}
	return c.mutate(ctx, func() bool {
		if c.pagination.Limit == n {
			return false
		}
		c.pagination.Limit = n
		return true
	}), nil
}

// ToggleSort flips the direction of the active column, or activates a new
// column in descending order.
func (c *Controller[T]) ToggleSort(ctx context.Context, column string) (View[T], error) {
	if !c.res.sortable(column) {
		return c.View(), domain.ValidationError{
			Field: "column",
			Msg:   fmt.Sprintf("%q is not sortable for %s", column, c.res.Name),
		}
	}
	return c.mutate(ctx, func() bool {
		if c.ordering.OrderBy == column {
			c.ordering.OrderDirection = c.ordering.OrderDirection.Flip()
		} else {
			c.ordering.OrderBy = column
			c.ordering.OrderDirection = DESC
		}
		return true
	}), nil
}

// SetSearch stores text verbatim; an empty string removes the search.
func (c *Controller[T]) SetSearch(ctx context.Context, text string) View[T] {
	return c.mutate(ctx, func() bool {
		if c.search == text {
			return false
		}
		c.search = text
		return true
	})
}

// SetFilter stores a resource filter; an empty value removes it.
func (c *Controller[T]) SetFilter(ctx context.Context, key, value string) (View[T], error) {
	key = strings.TrimSpace(key)
	if key == "" || slices.Contains(reservedParams, key) {
		return c.View(), domain.ValidationError{Field: "key", Msg: fmt.Sprintf("%q cannot be used as a filter", key)}
	}
	return c.mutate(ctx, func() bool {
		old, had := c.filters[key]
		if value == "" {
			if !had {
				return false
			}
			delete(c.filters, key)
			return true
		}
		if had && old == value {
			return false
		}
		c.filters[key] = value
		return true
	}), nil
}

// SetFilters applies several filters as one change, so at most one fetch is issued.
func (c *Controller[T]) SetFilters(ctx context.Context, values map[string]string) (View[T], error) {
	for key := range values {
		if strings.TrimSpace(key) == "" || slices.Contains(reservedParams, key) {
			return c.View(), domain.ValidationError{Field: "key", Msg: fmt.Sprintf("%q cannot be used as a filter", key)}
		}
	}
	return c.mutate(ctx, func() bool {
		changed := false
		for key, value := range values {
			old, had := c.filters[key]
			switch {
			case value == "" && had:
				delete(c.filters, key)
				changed = true
			case value != "" && (!had || old != value):
				c.filters[key] = value
				changed = true
			}
		}
		return changed
	}), nil
}

// ClearFilters drops every filter and the search text.
func (c *Controller[T]) ClearFilters(ctx context.Context) View[T] {
	return c.mutate(ctx, func() bool {
		if len(c.filters) == 0 && c.search == "" {
			return false
		}
		c.filters = map[string]string{}
		c.search = ""
		return true
	})
}

// Query derives the request parameters. ok is false when the resource is
// restaurant-scoped and no restaurant is selected.
func (c *Controller[T]) Query() (url.Values, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked()
}

// View returns the current snapshot without fetching.
func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller[T]) mutate(ctx context.Context, apply func() bool) View[T] {
	c.mu.Lock()
	if !apply() {
		v := c.viewLocked()
		c.mu.Unlock()
		return v
	}
	return c.fetchLocked(ctx)
}

// fetchLocked must be called with mu held; it releases it.
func (c *Controller[T]) fetchLocked(ctx context.Context) View[T] {
	params, ok := c.queryLocked()
	if !ok {
		v := c.viewLocked()
		c.mu.Unlock()
		return v
	}
	c.dirty = false
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	items, err := c.res.Fetch(ctx, params)

	c.mu.Lock()
	if latest := c.issued; seq != latest {
		v := c.viewLocked()
		c.mu.Unlock()
		utils.L().Debug("discarding stale list response",
			zap.String("resource", c.res.Name),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", latest),
		)
		return v
	}
	c.settled = seq

	if err != nil {
		c.lastErr = err.Error()
		v := c.viewLocked()
		c.mu.Unlock()
		utils.L().Warn("list fetch failed", zap.String("resource", c.res.Name), zap.Error(err))
		c.notifier.Notify(notify.Error(failureMessage(c.res.Name, err)))
		return v
	}

	if items == nil {
		items = []T{}
	}
	c.items = items
	c.loaded = true
	c.lastErr = ""
	v := c.viewLocked()
	c.mu.Unlock()
	return v
}

func (c *Controller[T]) queryLocked() (url.Values, bool) {
	q := url.Values{}
	if c.res.Scoped {
		ref := c.scope.SelectedRestaurant()
		if ref == nil {
			return nil, false
		}
		q.Set(ParamRestaurantID, strconv.FormatInt(ref.ID, 10))
	}
	q.Set(ParamPage, strconv.Itoa(c.pagination.Page))
	q.Set(ParamLimit, strconv.Itoa(c.pagination.Limit))
	q.Set(ParamOrderBy, c.ordering.OrderBy)
	q.Set(ParamOrderDirection, string(c.ordering.OrderDirection))
	if c.search != "" {
		q.Set(ParamSearch, c.search)
	}
	for k, v := range c.filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q, true
}

func (c *Controller[T]) viewLocked() View[T] {
	state := StateIdle
	if c.issued != c.settled {
		state = StateLoading
	}
	return View[T]{
		Resource:        c.res.Name,
		Pagination:      c.pagination,
		Ordering:        c.ordering,
		Search:          c.search,
		Filters:         maps.Clone(c.filters),
		Items:           slices.Clone(c.items),
		State:           state,
		Loaded:          c.loaded,
		NeedsRestaurant: c.res.Scoped && c.scope.SelectedRestaurant() == nil,
		LastError:       c.lastErr,
		PageSizes:       slices.Clone(c.res.pageSizes()),
		SortFields:      slices.Clone(c.res.SortFields),
	}
}

func cleanFilters(in map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range in {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// failureMessage mirrors "failed to load orders: 502 Bad Gateway".
func failureMessage(resource string, err error) string {
	msg := "failed to load " + resource
	if up, ok := domain.AsUpstream(err); ok {
		msg += fmt.Sprintf(": %d %s", up.Status, up.StatusText)
	}
	return msg
}

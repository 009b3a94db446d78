package listquery

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"dashboard/internal/domain"
	"dashboard/internal/domain/models"
	"dashboard/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID int64 `json:"id"`
}

type recorder struct {
	mu     sync.Mutex
	calls  []url.Values
	result []row
	err    error
}

func (r *recorder) fetch(_ context.Context, params url.Values) ([]row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, params)
	return r.result, r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fixedScope struct{ ref *models.RestaurantRef }

func (s *fixedScope) SelectedRestaurant() *models.RestaurantRef { return s.ref }

func usersResource(fetch FetchFunc[row]) Resource[row] {
	return Resource[row]{
		Name:       "users",
		SortFields: []string{"id", "firstName", "email"},
		Pagination: Pagination{Page: 1, Limit: 20},
		Ordering:   Ordering{OrderBy: "id", OrderDirection: DESC},
		Fetch:      fetch,
	}
}

func TestQueryOmitsEmptySearch(t *testing.T) {
	rec := &recorder{}
	c := New(usersResource(rec.fetch), nil, nil)

	q, ok := c.Query()
	require.True(t, ok)
	assert.Equal(t, url.Values{
		"page":            {"1"},
		"limit":           {"20"},
		"order_by":        {"id"},
		"order_direction": {"DESC"},
	}, q)

	ctx := context.Background()
	c.SetSearch(ctx, "anna")
	q, _ = c.Query()
	assert.Equal(t, "anna", q.Get("search"))

	c.SetSearch(ctx, "")
	q, _ = c.Query()
	_, present := q["search"]
	assert.False(t, present)
}

func TestToggleSortTwiceIsIdentity(t *testing.T) {
	rec := &recorder{}
	c := New(usersResource(rec.fetch), nil, nil)
	ctx := context.Background()

	before := c.View().Ordering
	_, err := c.ToggleSort(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, ASC, c.View().Ordering.OrderDirection)
	_, err = c.ToggleSort(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, before, c.View().Ordering)
	assert.Equal(t, 2, rec.count())
}

func TestToggleSortNewColumnStartsDescending(t *testing.T) {
	rec := &recorder{}
	c := New(usersResource(rec.fetch), nil, nil)
	ctx := context.Background()

	_, _ = c.ToggleSort(ctx, "id")
	v, err := c.ToggleSort(ctx, "email")
	require.NoError(t, err)
	assert.Equal(t, Ordering{OrderBy: "email", OrderDirection: DESC}, v.Ordering)

	_, err = c.ToggleSort(ctx, "password")
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "email", c.View().Ordering.OrderBy)
	assert.Equal(t, 2, rec.count())
}

func TestSetPageBelowOneIsRejected(t *testing.T) {
	rec := &recorder{}
	c := New(usersResource(rec.fetch), nil, nil)
	ctx := context.Background()

	_, err := c.SetPage(ctx, 3)
	require.NoError(t, err)

	for _, n := range []int{0, -1} {
		v, err := c.SetPage(ctx, n)
		assert.Error(t, err)
		assert.Equal(t, 3, v.Pagination.Page)
	}
	assert.Equal(t, 1, rec.count())
}

func TestPageNavigation(t *testing.T) {
	rec := &recorder{}
	c := New(usersResource(rec.fetch), nil, nil)
	ctx := context.Background()

	c.PrevPage(ctx)
	assert.Equal(t, 0, rec.count())

	v := c.NextPage(ctx)
	assert.Equal(t, 2, v.Pagination.Page)
	v = c.PrevPage(ctx)
	assert.Equal(t, 1, v.Pagination.Page)
	assert.Equal(t, 2, rec.count())
}

func TestSetLimitOnlyAcceptsPageSizes(t *testing.T) {
	rec := &recorder{}
	c := New(usersResource(rec.fetch), nil, nil)
	ctx := context.Background()

	_, err := c.SetLimit(ctx, 33)
	assert.True(t, domain.IsValidation(err))

	v, err := c.SetLimit(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, v.Pagination.Limit)

	_, err = c.SetLimit(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count())
}

func TestEachChangeFetchesOnce(t *testing.T) {
	rec := &recorder{result: []row{{ID: 1}}}
	c := New(usersResource(rec.fetch), nil, nil)
	ctx := context.Background()

	c.Load(ctx)
	c.SetSearch(ctx, "x")
	c.SetSearch(ctx, "x")
	_, _ = c.SetFilter(ctx, "status", "active")
	_, _ = c.SetFilter(ctx, "status", "active")
	_, _ = c.SetFilter(ctx, "status", "")
	_, _ = c.SetFilter(ctx, "role", "")
	c.ClearFilters(ctx)
	c.ClearFilters(ctx)

	assert.Equal(t, 5, rec.count())
	last := rec.calls[len(rec.calls)-1]
	assert.Empty(t, last.Get("search"))
	assert.Empty(t, last.Get("status"))
}

func TestSetFilterRejectsReservedKeys(t *testing.T) {
	rec := &recorder{}
	c := New(usersResource(rec.fetch), nil, nil)
	_, err := c.SetFilter(context.Background(), "page", "9")
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 0, rec.count())
}

func TestScopedWithoutRestaurantNeverFetches(t *testing.T) {
	rec := &recorder{}
	scope := &fixedScope{}
	res := usersResource(rec.fetch)
	res.Name = "orders"
	res.Scoped = true
	c := New(res, scope, nil)
	ctx := context.Background()

	v := c.Load(ctx)
	assert.True(t, v.NeedsRestaurant)
	c.NextPage(ctx)
	c.SetSearch(ctx, "x")
	assert.Equal(t, 0, rec.count())

	_, ok := c.Query()
	assert.False(t, ok)

	scope.ref = &models.RestaurantRef{ID: 4, Name: "Four"}
	v = c.Refresh(ctx)
	assert.False(t, v.NeedsRestaurant)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "4", rec.calls[0].Get("restaurantId"))
}

func TestFailedFetchKeepsRowsAndNotifiesOnce(t *testing.T) {
	rec := &recorder{result: []row{{ID: 1}, {ID: 2}}}
	var notices []notify.Notice
	c := New(usersResource(rec.fetch), nil, notify.NotifierFunc(func(n notify.Notice) {
		notices = append(notices, n)
	}))
	ctx := context.Background()

	v := c.Load(ctx)
	require.Len(t, v.Items, 2)

	rec.err = &domain.UpstreamError{Status: 502, StatusText: "Bad Gateway"}
	rec.result = nil
	v = c.NextPage(ctx)

	assert.Len(t, v.Items, 2)
	assert.Equal(t, StateIdle, v.State)
	assert.NotEmpty(t, v.LastError)
	require.Len(t, notices, 1)
	assert.Equal(t, "failed to load users: 502 Bad Gateway", notices[0].Description)
	assert.Equal(t, notify.VariantDestructive, notices[0].Variant)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	fetch := func(ctx context.Context, params url.Values) ([]row, error) {
		if params.Get("page") == "2" {
			once.Do(func() { close(started) })
			<-release
			return []row{{ID: 200}}, nil
		}
		return []row{{ID: 300}}, nil
	}
	c := New(usersResource(fetch), nil, nil)
	ctx := context.Background()

	done := make(chan View[row])
	go func() { done <- c.NextPage(ctx) }()
	<-started

	assert.Equal(t, StateLoading, c.View().State)
	v := c.NextPage(ctx)
	require.Len(t, v.Items, 1)
	assert.Equal(t, int64(300), v.Items[0].ID)

	close(release)
	stale := <-done
	assert.Equal(t, int64(300), stale.Items[0].ID)
	assert.Equal(t, StateIdle, c.View().State)
	assert.Equal(t, 3, c.View().Pagination.Page)
}

func TestFetchErrorsAreNotReturned(t *testing.T) {
	rec := &recorder{err: errors.New("dial tcp: refused")}
	c := New(usersResource(rec.fetch), nil, nil)
	v := c.Load(context.Background())
	assert.False(t, v.Loaded)
	assert.Equal(t, "dial tcp: refused", v.LastError)
	assert.NotNil(t, v.Items)
}

func TestDirectionHelpers(t *testing.T) {
	assert.Equal(t, ASC, DESC.Flip())
	assert.Equal(t, DESC, ASC.Flip())
}

func TestEnsureLoadsOnceUntilInvalidated(t *testing.T) {
	rec := &recorder{}
	c := New(usersResource(rec.fetch), nil, nil)
	ctx := context.Background()

	c.Ensure(ctx)
	c.Ensure(ctx)
	assert.Equal(t, 1, rec.count())

	c.Invalidate()
	c.Ensure(ctx)
	c.Ensure(ctx)
	assert.Equal(t, 2, rec.count())
}

func TestSetFiltersIsOneChange(t *testing.T) {
	rec := &recorder{}
	c := New(usersResource(rec.fetch), nil, nil)
	ctx := context.Background()

	v, err := c.SetFilters(ctx, map[string]string{"minDate": "2026-01-01", "maxDate": "2026-02-01"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"minDate": "2026-01-01", "maxDate": "2026-02-01"}, v.Filters)
	assert.Equal(t, 1, rec.count())

	_, err = c.SetFilters(ctx, map[string]string{"minDate": "2026-01-01"})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count())

	_, err = c.SetFilters(ctx, map[string]string{"limit": "5"})
	assert.Error(t, err)
}

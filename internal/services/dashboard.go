package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"dashboard/internal/domain"
	"dashboard/internal/domain/models"
	"dashboard/internal/listquery"
	"dashboard/internal/notify"
	"dashboard/internal/session"
	"dashboard/internal/utils"
)

// List names used in routes.
const (
	ListUsers       = "users"
	ListRestaurants = "restaurants"
	ListOrders      = "orders"
	ListOrderList   = "order-list"
)

// RemoteAPI is the subset of the restaurant API the dashboard calls.
type RemoteAPI interface {
	Login(ctx context.Context, email, password string) (string, models.User, error)
	ListUsers(ctx context.Context, token string, params url.Values) ([]models.User, error)
	ListRestaurants(ctx context.Context, token string, params url.Values) ([]models.Restaurant, error)
	ListOrders(ctx context.Context, token string, params url.Values) ([]models.Order, error)
	CreateUser(ctx context.Context, token string, in models.UserInput) (models.User, error)
	UpdateUser(ctx context.Context, token string, id int64, in models.UserInput) (models.User, error)
	CreateRestaurant(ctx context.Context, token string, in models.RestaurantInput) (models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, token string, id int64, in models.RestaurantInput) (models.Restaurant, error)
}

// Pages groups the list controllers of one signed-in session.
type Pages struct {
	Users       *listquery.Controller[models.User]
	Restaurants *listquery.Controller[models.Restaurant]
	Orders      *listquery.Controller[models.Order]
	OrderList   *listquery.Controller[models.Order]
}

// Dashboard ties the session, the remote API and the list pages together.
// Pages are rebuilt on login and logout so no state leaks between users.
type Dashboard struct {
	Session *session.Store
	API     RemoteAPI
	Board   *notify.Board

	pages atomic.Pointer[Pages]
}

func NewDashboard(store *session.Store, api RemoteAPI, board *notify.Board) *Dashboard {
	if board == nil {
		board = notify.NewBoard(0)
	}
	d := &Dashboard{Session: store, API: api, Board: board}
	d.resetPages()
	return d
}

// Pages returns the current set of list controllers.
func (d *Dashboard) Pages() *Pages {
	return d.pages.Load()
}

// resetPages also drops pending notices so they never reach another session.
func (d *Dashboard) resetPages() {
	d.Board.Drain()
	d.pages.Store(d.newPages())
}

func (d *Dashboard) newPages() *Pages {
	today := utils.Today()
	return &Pages{
		Users: listquery.New(listquery.Resource[models.User]{
			Name:       ListUsers,
			SortFields: []string{"firstName", "email", "role", "status", "id"},
			Pagination: listquery.Pagination{Page: 1, Limit: 20},
			Ordering:   listquery.Ordering{OrderBy: "id", OrderDirection: listquery.DESC},
			Fetch:      authed(d, d.API.ListUsers),
		}, nil, d.Board),
		Restaurants: listquery.New(listquery.Resource[models.Restaurant]{
			Name:       ListRestaurants,
			SortFields: []string{"name", "slug", "id"},
			Pagination: listquery.Pagination{Page: 1, Limit: 20},
			Ordering:   listquery.Ordering{OrderBy: "id", OrderDirection: listquery.DESC},
			Fetch:      authed(d, d.API.ListRestaurants),
		}, nil, d.Board),
		Orders: listquery.New(listquery.Resource[models.Order]{
			Name:       ListOrders,
			SortFields: []string{"date"},
			Scoped:     true,
			Pagination: listquery.Pagination{Page: 1, Limit: 50},
			Ordering:   listquery.Ordering{OrderBy: "date", OrderDirection: listquery.ASC},
			Filters: map[string]string{
				FilterMinDate: utils.FormatDate(today),
				FilterMaxDate: utils.FormatDate(today.AddDate(0, 1, 0)),
			},
			Fetch: authed(d, d.API.ListOrders),
		}, d.Session, d.Board),
		OrderList: listquery.New(listquery.Resource[models.Order]{
			Name:       ListOrderList,
			SortFields: []string{"id", "fullName", "date", "orderTypeName", "chairCount", "price", "totalPayment", "status"},
			Scoped:     true,
			Pagination: listquery.Pagination{Page: 1, Limit: 50},
			Ordering:   listquery.Ordering{OrderBy: "date", OrderDirection: listquery.DESC},
			Filters: map[string]string{
				FilterMinDate: utils.FormatDate(today.AddDate(0, -1, 0)),
				FilterMaxDate: utils.FormatDate(today),
			},
			Fetch: authed(d, d.API.ListOrders),
		}, d.Session, d.Board),
	}
}

// authed binds a list call to the session token. A 401 from the API ends
// the local session so the next request is sent to login.
func authed[T any](d *Dashboard, call func(context.Context, string, url.Values) ([]T, error)) listquery.FetchFunc[T] {
	return func(ctx context.Context, params url.Values) ([]T, error) {
		token := d.Session.Token()
		if token == "" {
			return nil, domain.UnauthenticatedError{Msg: "no active session"}
		}
		items, err := call(ctx, token, params)
		if err != nil && domain.IsUnauthenticated(err) {
			d.expire()
		}
		return items, err
	}
}

func (d *Dashboard) expire() {
	utils.L().Warn("remote api rejected the session token, logging out")
	if err := d.Session.Logout(); err != nil {
		utils.L().Error("clear expired session", zap.Error(err))
	}
	d.resetPages()
}

// CurrentSession reports the session, activating the user's first restaurant
// when nothing is selected.
func (d *Dashboard) CurrentSession() session.Snapshot {
	if err := d.Session.EnsureSelection(); err != nil {
		utils.L().Warn("default restaurant selection failed", zap.Error(err))
	}
	return d.Session.Snapshot()
}

// Login exchanges credentials with the API and starts a fresh session.
func (d *Dashboard) Login(ctx context.Context, email, password string) (session.Snapshot, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return session.Snapshot{}, domain.ValidationError{Field: "email", Msg: "email is required"}
	}
	if password == "" {
		return session.Snapshot{}, domain.ValidationError{Field: "password", Msg: "password is required"}
	}

	token, user, err := d.API.Login(ctx, email, password)
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := d.Session.Login(token, user); err != nil {
		return session.Snapshot{}, fmt.Errorf("store session: %w", err)
	}
	d.resetPages()
	utils.LogEvent("", "session", "login", fmt.Sprintf("user_id=%d restaurants=%d", user.ID, len(user.Restaurants)))
	return d.Session.Snapshot(), nil
}

// Logout ends the session. Memory is always cleared; storage errors are returned.
func (d *Dashboard) Logout() error {
	err := d.Session.Logout()
	d.resetPages()
	utils.LogEvent("", "session", "logout", "")
	return err
}

// SelectRestaurant switches the active restaurant. Restaurant-scoped pages
// refetch on their next access.
func (d *Dashboard) SelectRestaurant(id int64) (models.RestaurantRef, error) {
	current := d.Session.SelectedRestaurant()
	ref, err := d.Session.SelectRestaurantByID(id)
	if err != nil {
		return models.RestaurantRef{}, err
	}
	if current == nil || current.ID != ref.ID {
		p := d.Pages()
		p.Orders.Invalidate()
		p.OrderList.Invalidate()
	}
	utils.LogEvent("", "session", "select_restaurant", fmt.Sprintf("restaurant_id=%d", ref.ID))
	return ref, nil
}

func (d *Dashboard) CreateUser(ctx context.Context, in models.UserInput) (models.User, error) {
	u, err := d.API.CreateUser(ctx, d.Session.Token(), in)
	if err != nil {
		return models.User{}, d.mutationError(err)
	}
	d.Pages().Users.Refresh(ctx)
	return u, nil
}

func (d *Dashboard) UpdateUser(ctx context.Context, id int64, in models.UserInput) (models.User, error) {
	if id <= 0 {
		return models.User{}, domain.ValidationError{Field: "id", Msg: "invalid user id"}
	}
	u, err := d.API.UpdateUser(ctx, d.Session.Token(), id, in)
	if err != nil {
		return models.User{}, d.mutationError(err)
	}
	d.Pages().Users.Refresh(ctx)
	return u, nil
}

func (d *Dashboard) CreateRestaurant(ctx context.Context, in models.RestaurantInput) (models.Restaurant, error) {
	r, err := d.API.CreateRestaurant(ctx, d.Session.Token(), in)
	if err != nil {
		return models.Restaurant{}, d.mutationError(err)
	}
	d.Pages().Restaurants.Refresh(ctx)
	return r, nil
}

func (d *Dashboard) UpdateRestaurant(ctx context.Context, id int64, in models.RestaurantInput) (models.Restaurant, error) {
	if id <= 0 {
		return models.Restaurant{}, domain.ValidationError{Field: "id", Msg: "invalid restaurant id"}
	}
	r, err := d.API.UpdateRestaurant(ctx, d.Session.Token(), id, in)
	if err != nil {
		return models.Restaurant{}, d.mutationError(err)
	}
	d.Pages().Restaurants.Refresh(ctx)
	return r, nil
}

func (d *Dashboard) mutationError(err error) error {
	if domain.IsUnauthenticated(err) {
		d.expire()
	}
	return err
}

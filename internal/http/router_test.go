package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"dashboard/internal/apiclient"
	intconfig "dashboard/internal/config"
	intdb "dashboard/internal/db"
	"dashboard/internal/repositories"
	"dashboard/internal/services"
	"dashboard/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	server     *httptest.Server
	usersFail  atomic.Bool
	notAdmin   atomic.Bool
	lastOrders atomic.Value
}

func newUpstream(t *testing.T) *upstream {
	u := &upstream{}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"token":"tok-1","user":{"id":7,"firstName":"Anna","email":"anna@example.com","role":"manager","isSuperUser":`+u.superUser()+`,
			"restaurants":[{"id":1,"name":"Main"},{"id":2,"name":"Harbor"}]}}`)
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		if u.usersFail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `[{"id":1,"firstName":"Anna"},{"id":2,"firstName":"Bob"}]`)
	})
	mux.HandleFunc("/restaurants", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["slug"] == "taken" {
				w.WriteHeader(http.StatusConflict)
				_, _ = io.WriteString(w, `{"message":"slug already exists"}`)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":5,"name":"Dock","slug":"dock"}`)
			return
		}
		_, _ = io.WriteString(w, `[{"id":1,"name":"Main","slug":"main"}]`)
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		u.lastOrders.Store(r.URL.Query())
		_, _ = io.WriteString(w, `{"data":[
			{"id":11,"fullName":"Anna Petrova","date":"2026-03-16","status":"accepted","chairCount":4,"totalPayment":800},
			{"id":12,"fullName":"Bob","date":"2026-03-16","status":"pending","chairCount":2,"totalPayment":300}]}`)
	})
	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) superUser() string {
	if u.notAdmin.Load() {
		return "false"
	}
	return "true"
}

func newTestRouter(t *testing.T) (*gin.Engine, *upstream, *services.Dashboard) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	up := newUpstream(t)
	reg := prometheus.NewRegistry()
	client := apiclient.NewClient(up.server.URL, 0, apiclient.NewMetrics(reg))
	d := services.NewDashboard(session.NewStore(repositories.NewMemoryStorage()), client, nil)
	return NewRouter(intconfig.Env{}, d, reg), up, d
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func login(t *testing.T, r *gin.Engine) {
	t.Helper()
	w := do(r, http.MethodPost, "/api/session/login", `{"email":"anna@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHealthAndRoutes(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(r, http.MethodGet, "/api/routes", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/lists/:list")

	w = do(r, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/lists/users", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/login", decode(t, w)["redirect"])

	w = do(r, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["authenticated"])
	assert.Equal(t, "/login", body["redirect"])
}

func TestLoginRejectedByUpstream(t *testing.T) {
	r, _, d := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/session/login", `{"email":"anna@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, d.Session.Authenticated())

	w = do(r, http.MethodPost, "/api/session/login", `{"email":"anna@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	r, _, _ := newTestRouter(t)
	login(t, r)

	w := do(r, http.MethodGet, "/api/session", "")
	body := decode(t, w)
	assert.Equal(t, true, body["authenticated"])
	assert.NotContains(t, w.Body.String(), "tok-1")
	selected := body["selectedRestaurant"].(map[string]any)
	assert.Equal(t, "Main", selected["name"])

	w = do(r, http.MethodPut, "/api/session/restaurant", `{"restaurantId":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	selected = decode(t, w)["selectedRestaurant"].(map[string]any)
	assert.Equal(t, "Harbor", selected["name"])

	w = do(r, http.MethodPut, "/api/session/restaurant", `{"restaurantId":9}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/api/session/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodGet, "/api/lists/users", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListOperations(t *testing.T) {
	r, _, _ := newTestRouter(t)
	login(t, r)

	w := do(r, http.MethodGet, "/api/lists/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["items"], 2)
	assert.Equal(t, true, body["loaded"])

	w = do(r, http.MethodPost, "/api/lists/users/sort", `{"column":"email"}`)
	require.Equal(t, http.StatusOK, w.Code)
	ordering := decode(t, w)["ordering"].(map[string]any)
	assert.Equal(t, "email", ordering["orderBy"])
	assert.Equal(t, "DESC", ordering["orderDirection"])

	w = do(r, http.MethodPost, "/api/lists/users/sort", `{"column":"password"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/lists/users/page", `{"page":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/lists/users/next", "")
	require.Equal(t, http.StatusOK, w.Code)
	pagination := decode(t, w)["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["page"])

	w = do(r, http.MethodPost, "/api/lists/users/limit", `{"limit":50}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/lists/users/search", `{"search":"ann"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann", decode(t, w)["search"])

	w = do(r, http.MethodDelete, "/api/lists/users/filters", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode(t, w)["search"])

	w = do(r, http.MethodGet, "/api/lists/kitchens", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderFiltersAndGrouping(t *testing.T) {
	r, up, _ := newTestRouter(t)
	login(t, r)

	w := do(r, http.MethodPost, "/api/lists/orders/filters", `{"status":"accepted","minDate":"2026-03-01","maxDate":"2026-03-31"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	q := up.lastOrders.Load().(url.Values)
	assert.Equal(t, []string{"accepted"}, q["status"])
	assert.Equal(t, []string{"1"}, q["restaurantId"])

	w = do(r, http.MethodPost, "/api/lists/orders/filters", `{"status":"all"}`)
	require.Equal(t, http.StatusOK, w.Code)
	q = up.lastOrders.Load().(url.Values)
	_, has := q["status"]
	assert.False(t, has)

	w = do(r, http.MethodPost, "/api/lists/orders/filters", `{"minDate":"31.03.2026"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/orders/grouped", "")
	require.Equal(t, http.StatusOK, w.Code)
	groups := decode(t, w)["groups"].([]any)
	require.Len(t, groups, 1)
	cards := groups[0].(map[string]any)["orders"].([]any)
	require.Len(t, cards, 2)
	first := cards[0].(map[string]any)
	assert.Equal(t, "Anna Petrova", first["fullName"])
	assert.Equal(t, "Accepted", first["statusLabel"])
	assert.Equal(t, "green", first["statusColor"])
}

func TestOrderExports(t *testing.T) {
	r, _, _ := newTestRouter(t)
	login(t, r)

	w := do(r, http.MethodGet, "/api/orders/export.csv", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Anna Petrova")

	w = do(r, http.MethodGet, "/api/orders/export.xlsx", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))

	w = do(r, http.MethodGet, "/api/orders/export.pdf", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestUpstreamFailureNotifiesOnce(t *testing.T) {
	r, up, _ := newTestRouter(t)
	login(t, r)

	w := do(r, http.MethodGet, "/api/lists/users", "")
	require.Equal(t, http.StatusOK, w.Code)

	up.usersFail.Store(true)
	w = do(r, http.MethodPost, "/api/lists/users/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["items"], 2)
	assert.NotEmpty(t, body["lastError"])

	w = do(r, http.MethodGet, "/api/notifications", "")
	notices := decode(t, w)["notifications"].([]any)
	require.Len(t, notices, 1)
	n := notices[0].(map[string]any)
	assert.Equal(t, "Error", n["title"])
	assert.Equal(t, "failed to load users: 502 Bad Gateway", n["description"])

	w = do(r, http.MethodGet, "/api/notifications", "")
	assert.Empty(t, decode(t, w)["notifications"])

	w = do(r, http.MethodGet, "/api/metrics", "")
	assert.Contains(t, w.Body.String(), `dashboard_upstream_requests_total{outcome="502",resource="users"} 1`)
}

func TestAdminCreateValidatesPayload(t *testing.T) {
	r, _, _ := newTestRouter(t)
	login(t, r)

	w := do(r, http.MethodPost, "/api/admin/users", `{"firstName":"Bob"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/api/admin/restaurants/abc", `{"name":"x","slug":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCreateRestaurantConflict(t *testing.T) {
	r, _, _ := newTestRouter(t)
	login(t, r)

	w := do(r, http.MethodPost, "/api/admin/restaurants", `{"name":"Dock","slug":"dock"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/admin/restaurants", `{"name":"Dock","slug":"taken"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "conflict", body["code"])
	assert.Contains(t, body["error"], "slug already exists")
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	r, up, _ := newTestRouter(t)
	up.notAdmin.Store(true)
	login(t, r)

	w := do(r, http.MethodPost, "/api/admin/restaurants", `{"name":"Dock","slug":"dock"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/api/lists/users", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStorageCheck(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/storage-check", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	db, err := intconfig.ConnectDB(intconfig.Env{StorageDriver: "sqlite3", StorageDSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(intconfig.CloseDB)

	w = do(r, http.MethodGet, "/api/storage-check", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, intdb.EnsureStorageTable(context.Background(), db, "sqlite3"))
	w = do(r, http.MethodGet, "/api/storage-check", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(0), decode(t, w)["keys_in_storage"])
}

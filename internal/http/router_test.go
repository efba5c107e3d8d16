package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/timesheet/internal/auth"
	tsmhttp "github.com/Tiliavir/timesheet/internal/http"
	"github.com/Tiliavir/timesheet/internal/http/handlers"
	"github.com/Tiliavir/timesheet/internal/http/middleware"
	"github.com/Tiliavir/timesheet/internal/storage"
	"github.com/Tiliavir/timesheet/internal/timesheet"
)

func clock() time.Time { return time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC) }

type testServer struct {
	handler http.Handler
	svc     *timesheet.Service
	auth    *auth.Manager
}

func newTestServer(t *testing.T, loginRate string, opts ...func(*tsmhttp.RouterConfig)) *testServer {
	t.Helper()
	log := zerolog.Nop()
	metrics := middleware.NewMetrics()
	svc := timesheet.NewService(storage.NewRepository(storage.DemoEntries()...), log, timesheet.WithRecorder(metrics))
	m := auth.NewManager(auth.Config{
		Secret:     []byte("test-secret-test-secret-test-sec"),
		CookieName: "tsm_session",
		MaxAge:     time.Hour,
		TokenTTL:   time.Hour,
		Email:      "demo@example.com",
		Password:   "demo",
	}, log)
	loginLimit, err := middleware.NewLoginRateLimiter(loginRate)
	require.NoError(t, err)

	cfg := tsmhttp.RouterConfig{
		Timesheets:     handlers.NewTimesheetHandler(svc, clock, log),
		Dashboard:      handlers.NewDashboardHandler(svc, clock, log),
		Auth:           handlers.NewAuthHandler(m, log),
		Health:         handlers.NewHealthHandler(svc),
		RequireAPI:     m.RequireAPI,
		RequirePage:    m.RequirePage("/login"),
		Log:            log,
		Secure:         middleware.NewSecure(middleware.SecureOptions(false)),
		LoginRateLimit: loginLimit,
		Metrics:        metrics,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &testServer{handler: tsmhttp.NewRouter(cfg), svc: svc, auth: m}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	tok, err := s.auth.IssueToken(auth.Principal{Email: "demo@example.com"})
	require.NoError(t, err)
	return tok
}

func (s *testServer) api(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+s.token(t))
	return s.do(req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// sessionCookies signs in through the login form.
func (s *testServer) sessionCookies(t *testing.T) []*http.Cookie {
	t.Helper()
	form := url.Values{"email": {"demo@example.com"}, "password": {"demo"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := s.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
	return rec.Result().Cookies()
}

func (s *testServer) page(t *testing.T, cookies []*http.Cookie, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return s.do(req)
}

func TestAPIRequiresSession(t *testing.T) {
	s := newTestServer(t, "")
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/timesheets"},
		{http.MethodPost, "/timesheets"},
		{http.MethodPut, "/timesheets/1"},
		{http.MethodDelete, "/timesheets/1"},
		{http.MethodGet, "/api/timesheets"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := s.do(httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Unauthorized", decode(t, rec)["error"])
		})
	}
	assert.Equal(t, 3, s.svc.Count(), "unauthenticated calls must not mutate")
}

func TestListTimesheets(t *testing.T) {
	s := newTestServer(t, "")
	for _, path := range []string{"/timesheets", "/api/timesheets"} {
		rec := s.api(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].([]interface{})
		require.Len(t, data, 3)
		first := data[0].(map[string]interface{})
		assert.Equal(t, "1", first["id"])
		assert.Equal(t, "submitted", first["status"])
	}
}

func TestCreateTimesheet(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.api(t, http.MethodPost, "/timesheets", `{"weekNumber":4,"date":"2025-01-27","status":"draft","project":"ECM"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)["data"].(map[string]interface{})
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, float64(4), created["weekNumber"])
	assert.NotContains(t, created, "hours", "absent hours must stay absent")

	list := decode(t, s.api(t, http.MethodGet, "/timesheets", ""))["data"].([]interface{})
	require.Len(t, list, 4)
	assert.Equal(t, created, list[3])
}

func TestCreateTimesheetRejections(t *testing.T) {
	s := newTestServer(t, "")
	tests := []struct {
		name    string
		body    string
		code    int
		errCode string
		message string
	}{
		{"missing fields", `{"weekNumber":1}`, http.StatusBadRequest, "invalid_request", "Missing required fields"},
		{"week 0", `{"weekNumber":0,"date":"2025-01-06","status":"draft"}`, http.StatusBadRequest, "invalid_request", "Invalid timesheet"},
		{"week 53", `{"weekNumber":53,"date":"2025-01-06","status":"draft"}`, http.StatusBadRequest, "invalid_request", "Invalid timesheet"},
		{"bad status", `{"weekNumber":1,"date":"2025-01-06","status":"done"}`, http.StatusBadRequest, "invalid_request", "Invalid timesheet"},
		{"hours over 168", `{"weekNumber":1,"date":"2025-01-06","status":"draft","hours":200}`, http.StatusBadRequest, "invalid_request", "Invalid timesheet"},
		{"malformed body", `{"weekNumber":`, http.StatusInternalServerError, "internal_error", "Failed to create timesheet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.api(t, http.MethodPost, "/timesheets", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.errCode, body["code"])
			assert.Equal(t, tt.message, body["error"])
		})
	}
	assert.Equal(t, 3, s.svc.Count())
}

func TestCreateTimesheetIgnoresContentType(t *testing.T) {
	s := newTestServer(t, "")
	for _, contentType := range []string{"text/plain", ""} {
		t.Run("content type "+contentType, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/timesheets", strings.NewReader(`{"weekNumber":4,"date":"2025-01-27","status":"draft"}`))
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			req.Header.Set("Authorization", "Bearer "+s.token(t))
			rec := s.do(req)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			assert.Equal(t, "2025-01-27", decode(t, rec)["data"].(map[string]interface{})["date"])
		})
	}
	assert.Equal(t, 5, s.svc.Count())

	req := httptest.NewRequest(http.MethodPost, "/timesheets", strings.NewReader("week=4"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+s.token(t))
	rec := s.do(req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode(t, rec)["code"])
}

func TestUpdateTimesheet(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.api(t, http.MethodPut, "/timesheets/3", `{"weekNumber":3,"date":"2025-01-20","status":"submitted","hours":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(10), got["hours"])
	assert.Equal(t, "submitted", got["status"])
	assert.Equal(t, "Week 3 timesheet", got["description"])

	rec = s.api(t, http.MethodPut, "/api/timesheets/missing", `{"weekNumber":3,"date":"2025-01-20","status":"draft"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Timesheet not found", decode(t, rec)["error"])

	rec = s.api(t, http.MethodPut, "/timesheets/3", `{"hours":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTimesheet(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.api(t, http.MethodDelete, "/timesheets/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Timesheet deleted successfully", decode(t, rec)["message"])

	rec = s.api(t, http.MethodDelete, "/timesheets/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 2, s.svc.Count())
}

func TestWeekProjection(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.api(t, http.MethodGet, "/timesheets/week", "")
	require.Equal(t, http.StatusOK, rec.Code)
	week := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(115), week["totalHours"])
	assert.Equal(t, float64(100), week["progressPercentage"])
	assert.Equal(t, "6 - 20 January, 2025", week["rangeLabel"])
	assert.Len(t, week["days"], 5)
}

func TestJSONLogin(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"demo@example.com","password":"demo"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, float64(3600), body["expiresIn"])

	list := httptest.NewRequest(http.MethodGet, "/timesheets", nil)
	list.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, s.do(list).Code)

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"demo@example.com","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = s.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode(t, rec)["code"])
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, "2-M")
	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"demo@example.com","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		last = s.do(req).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func loginAttempts(s *testServer, n int) []int {
	codes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"demo@example.com","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		codes = append(codes, s.do(req).Code)
	}
	return codes
}

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	s := newTestServer(t, "2-M")
	assert.Equal(t, []int{401, 401, 429, 429}, loginAttempts(s, 4))
}

func TestLoginRateLimitBehindTrustedProxy(t *testing.T) {
	s := newTestServer(t, "2-M", func(cfg *tsmhttp.RouterConfig) { cfg.TrustProxy = true })
	assert.Equal(t, []int{401, 401, 401, 401}, loginAttempts(s, 4), "each forwarded client has its own bucket")
}

func TestDashboardRedirectsWithoutSession(t *testing.T) {
	s := newTestServer(t, "")
	for _, path := range []string{"/dashboard", "/dashboard/entries/new", "/dashboard/entries/1/edit"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome back")
}

func TestDashboardViews(t *testing.T) {
	s := newTestServer(t, "")
	cookies := s.sessionCookies(t)

	rec := s.page(t, cookies, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "demo@example.com")
	assert.Contains(t, body, "Jan 6, 2025")
	assert.Contains(t, body, `tone-success`)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = s.page(t, cookies, http.MethodGet, "/dashboard?view=list", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Mon, Jan 6")
	assert.Contains(t, body, "115/40 hrs")
	assert.Contains(t, body, "/dashboard/entries/new?date=2025-01-10")

	var viewCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "tsm_view" {
			viewCookie = c
		}
	}
	require.NotNil(t, viewCookie)
	assert.Equal(t, "list", viewCookie.Value)

	rec = s.page(t, append(cookies, viewCookie), http.MethodGet, "/dashboard", nil)
	assert.Contains(t, rec.Body.String(), "Mon, Jan 6", "view mode is remembered")
}

func TestDashboardCreateThroughForm(t *testing.T) {
	s := newTestServer(t, "")
	cookies := s.sessionCookies(t)

	rec := s.page(t, cookies, http.MethodGet, "/dashboard/entries/new?date=2025-01-09", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="2025-01-09"`)

	bad := url.Values{"weekNumber": {"0"}, "date": {"2025-01-09"}, "status": {"draft"}, "hours": {"8"}}
	rec = s.page(t, cookies, http.MethodPost, "/dashboard/entries", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be between 1 and 52")
	assert.Equal(t, 3, s.svc.Count())

	good := url.Values{"weekNumber": {"2"}, "date": {"2025-01-09"}, "status": {"draft"}, "hours": {"8"}, "project": {"ECM"}}
	rec = s.page(t, cookies, http.MethodPost, "/dashboard/entries", good)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 4, s.svc.Count())
}

func TestDashboardEditAndDelete(t *testing.T) {
	s := newTestServer(t, "")
	cookies := s.sessionCookies(t)

	rec := s.page(t, cookies, http.MethodGet, "/dashboard/entries/2/edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="2025-01-13"`)

	assert.Equal(t, http.StatusNotFound, s.page(t, cookies, http.MethodGet, "/dashboard/entries/nope/edit", nil).Code)

	edit := url.Values{"weekNumber": {"2"}, "date": {"2025-01-13"}, "status": {"rejected"}, "hours": {"38"}}
	rec = s.page(t, cookies, http.MethodPost, "/dashboard/entries/2", edit)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	entries, _ := s.svc.List(context.Background())
	assert.Equal(t, "rejected", string(entries[1].Status))
	assert.Equal(t, 38.0, entries[1].HoursOrZero())

	rec = s.page(t, cookies, http.MethodGet, "/dashboard/entries/2/delete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Delete timesheet?")
	assert.Equal(t, 3, s.svc.Count(), "confirmation page must not delete")

	rec = s.page(t, cookies, http.MethodPost, "/dashboard/entries/2/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 2, s.svc.Count())

	rec = s.page(t, cookies, http.MethodPost, "/dashboard/entries/2/delete", url.Values{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t, "")
	cookies := s.sessionCookies(t)

	rec := s.page(t, cookies, http.MethodPost, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = s.page(t, rec.Result().Cookies(), http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestRootRedirect(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["entries"])

	s.api(t, http.MethodDelete, "/timesheets/1", "")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, "tsm_timesheet_entries 2")
	assert.Contains(t, out, `tsm_timesheet_mutations_total{op="delete"} 1`)
	assert.Contains(t, out, `route="/timesheets/{id}"`)
}

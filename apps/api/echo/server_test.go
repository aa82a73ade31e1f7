package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/etarip26/EduConnect/apps/api/echo"
	"github.com/etarip26/EduConnect/core/user"
	"github.com/etarip26/EduConnect/services/metrics"
	testutil "github.com/etarip26/EduConnect/tests"
)

type testApp struct {
	env *testutil.Env
	srv *echoapi.Server
}

func newTestApp(t *testing.T, checks ...echoapi.HealthCheck) *testApp {
	t.Helper()
	env := testutil.NewEnv()
	srv := echoapi.NewServer(env.Conf, env.Logger, &echoapi.Deps{
		Validate:        env.Validate,
		Translator:      env.Translator,
		Sessions:        env.Sessions,
		Metrics:         metrics.New("educonnect_test"),
		Checks:          checks,
		UserSvc:         env.Users,
		ProfileSvc:      env.Profiles,
		TuitionSvc:      env.Tuition,
		MatchSvc:        env.Matches,
		DemoSvc:         env.Demos,
		ChatSvc:         env.Chat,
		NotificationSvc: env.Notifications,
		ReviewSvc:       env.Reviews,
		AnnouncementSvc: env.Announcements,
		AdminSvc:        env.Admin,
	})
	return &testApp{env: env, srv: srv}
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, _, err := echoapi.GenerateToken(app.env.Conf, usr)
	require.NoError(t, err)
	return token
}

// do sends `body` JSON-encoded; a []byte body is sent as is.
func (app *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp echoapi.ErrorResponse
	decode(t, rec, &resp)
	return resp.Message
}

func TestServer_home(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), app.env.Conf.AppName)
}

func TestServer_health(t *testing.T) {
	app := newTestApp(t, echoapi.HealthCheck{Name: "database", Ping: func(context.Context) error { return nil }})

	for _, path := range []string{"/api/health", "/api/health/live", "/api/health/ready"} {
		rec := app.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServer_healthNotReady(t *testing.T) {
	app := newTestApp(t,
		echoapi.HealthCheck{Name: "database", Ping: func(context.Context) error { return nil }},
		echoapi.HealthCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
	)

	rec := app.do(t, http.MethodGet, "/api/health/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp struct {
		Status string                `json:"status"`
		Checks []echoapi.CheckStatus `json:"checks"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "degraded", resp.Status)
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, "ok", resp.Checks[0].Status)
	assert.Equal(t, "down", resp.Checks[1].Status)
	assert.Equal(t, "connection refused", resp.Checks[1].Error)

	// liveness does not depend on the checks
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/api/health/live", "", nil).Code)
}

func TestServer_metrics(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodGet, "/api/health", "", nil)

	rec := app.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `educonnect_test_http_requests_total{code="200",method="GET",route="/api/health"} 1`)
}

func TestServer_notFound(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", errMessage(t, rec))
}

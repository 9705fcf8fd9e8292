package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/Domenick1991/legalinmo/internal/middleware"
	"github.com/Domenick1991/legalinmo/internal/service/admin"
	"github.com/Domenick1991/legalinmo/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAdminRouter(sessions session.SessionUseCase, client *apiclient.Client) *gin.Engine {
	router := gin.New()
	handler := NewAdminHandler(
		sessions,
		client,
		admin.NewServicesAdmin(client, nil, nil),
		admin.NewUsersAdmin(client),
		"sid",
		time.UTC,
		nil,
	)
	handler.now = func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }
	handler.Register(router.Group("/api/admin"))
	return router
}

func signedIn() *MockSessionUseCase {
	sessions := &MockSessionUseCase{}
	sessions.On("Get", mock.Anything, "s1").
		Return(&session.Session{ID: "s1", Token: "tok", User: &domain.User{ID: "7", Name: "Admin"}}, nil)
	sessions.On("Token", mock.Anything, "s1").Return("tok", nil)
	return sessions
}

func adminRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "sid", Value: "s1"})
	return req
}

// Every authenticated back-office call must end the session on 401 or 419.
func TestAdminHandler_upstreamUnauthorizedEndsSession(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/admin/calendar", ""},
		{http.MethodPost, "/api/admin/calendar/reservations", `{"name":"Ana","email":"ana@example.com","service_id":"12","date":"2024-03-20T09:30"}`},
		{http.MethodGet, "/api/admin/services", ""},
		{http.MethodPost, "/api/admin/services", `{"name":"Avalúo","price":"100"}`},
		{http.MethodPut, "/api/admin/services/9", `{"name":"Avalúo","price":""}`},
		{http.MethodDelete, "/api/admin/services/9", ""},
		{http.MethodGet, "/api/admin/users", ""},
	}

	for _, status := range []int{http.StatusUnauthorized, apiclient.StatusSessionExpired} {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
		}))

		for _, ep := range endpoints {
			t.Run(http.StatusText(status)+" "+ep.method+" "+ep.path, func(t *testing.T) {
				sessions := signedIn()
				sessions.On("Invalidate", mock.Anything, "s1").Return(nil).Once()
				router := newAdminRouter(sessions, apiclient.NewClient(upstream.URL))

				w := httptest.NewRecorder()
				router.ServeHTTP(w, adminRequest(ep.method, ep.path, ep.body))

				assert.Equal(t, http.StatusUnauthorized, w.Code)
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, middleware.LoginPath, body["redirect"])
				assert.True(t, strings.HasPrefix(w.Header().Get("Set-Cookie"), "sid=;"))
				sessions.AssertCalled(t, "Invalidate", mock.Anything, "s1")
			})
		}
		upstream.Close()
	}
}

func TestAdminHandler_requiresSession(t *testing.T) {
	sessions := &MockSessionUseCase{}
	router := newAdminRouter(sessions, apiclient.NewClient("http://127.0.0.1:1"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	sessions.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAdminHandler_me(t *testing.T) {
	router := newAdminRouter(signedIn(), apiclient.NewClient("http://127.0.0.1:1"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminRequest(http.MethodGet, "/api/admin/me", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Admin"`)
}

func TestAdminHandler_calendar(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reservations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":1,"scheduled_at":"2024-03-15 10:00:00","name":"Ana","status":"Confirmada"},
			{"id":2,"datetime":"2024-04-02 09:00:00","user":{"name":"Luis"},"paid":false}
		]}`))
	}))
	defer upstream.Close()
	router := newAdminRouter(signedIn(), apiclient.NewClient(upstream.URL, apiclient.WithLocation(time.UTC)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminRequest(http.MethodGet, "/api/admin/calendar?year=2024&month=4&day=2024-04-02", ""))

	require.Equal(t, http.StatusOK, w.Code)
	var snap admin.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 4, snap.Month)
	assert.Equal(t, "2024-04-02", snap.SelectedDay)
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "Luis", snap.Selected.Name)
	assert.Equal(t, domain.StatusLabelPending, snap.Selected.Status)
	assert.Equal(t, domain.Metrics{Total: 2, Confirmed: 1, Pending: 1}, snap.Metrics)
}

func TestAdminHandler_calendarBadQuery(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer upstream.Close()
	router := newAdminRouter(signedIn(), apiclient.NewClient(upstream.URL))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminRequest(http.MethodGet, "/api/admin/calendar?year=2024&month=x", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, adminRequest(http.MethodGet, "/api/admin/calendar?day=ayer", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAdminHandler_createServiceValidation(t *testing.T) {
	router := newAdminRouter(signedIn(), apiclient.NewClient("http://127.0.0.1:1"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminRequest(http.MethodPost, "/api/admin/services", `{"name":"","price":10}`))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), admin.MsgServiceNameRequired)
}

func TestAdminHandler_deleteService(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/services/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()
	router := newAdminRouter(signedIn(), apiclient.NewClient(upstream.URL))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, adminRequest(http.MethodDelete, "/api/admin/services/9", ""))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/Domenick1991/legalinmo/internal/service/booking"
	"github.com/Domenick1991/legalinmo/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var flowCookie = CookieSettings{Name: "flow", TTL: time.Hour}

func newBookingRouter(service booking.BookingUseCase, sessions session.SessionUseCase) *gin.Engine {
	router := gin.New()
	NewBookingHandler(service, sessions, flowCookie, "sid", nil).Register(router.Group("/api/booking/flows"))
	return router
}

func testFlow(state booking.State) *booking.Flow {
	f := booking.NewFlow("f1", "America/Mexico_City", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	f.State = state
	return f
}

func TestBookingHandler_start(t *testing.T) {
	service := &MockBookingUseCase{}
	handler := NewBookingHandler(service, nil, flowCookie, "sid", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/booking/flows", nil)
	service.On("Start", c.Request.Context()).Return(testFlow(booking.SelectingService{}), nil)

	handler.start(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "flow=f1")
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "selecting_service", body["stage"])
}

func TestBookingHandler_chooseService(t *testing.T) {
	service := &MockBookingUseCase{}
	price := 500.0
	service.On("ChooseService", mock.Anything, "f1", "12").
		Return(testFlow(booking.AwaitingPayment{Service: domain.Service{ID: "12", Price: &price}, CaptureOpen: true}), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/booking/flows/f1/service", bytes.NewBufferString(`{"service_id":"12"}`))
	req.Header.Set("Content-Type", "application/json")
	newBookingRouter(service, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "awaiting_payment", body["stage"])
	assert.Equal(t, true, body["payment_capture_open"])
}

func TestBookingHandler_validationIncludesFlow(t *testing.T) {
	service := &MockBookingUseCase{}
	flow := testFlow(booking.SelectingDateTime{TransactionID: "tx1"})
	flow.Error = booking.MsgSelectServiceFirst
	service.On("Confirm", mock.Anything, "f1", booking.ConfirmInput{}).
		Return(flow, &booking.ValidationError{Field: "service", Message: booking.MsgSelectServiceFirst})

	w := httptest.NewRecorder()
	newBookingRouter(service, nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/booking/flows/f1/confirm", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Flow map[string]any `json:"flow"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, booking.MsgSelectServiceFirst, body.Error.Message)
	assert.Equal(t, "selecting_date_time", body.Flow["stage"])
}

func TestBookingHandler_confirmUsesAdminSession(t *testing.T) {
	service := &MockBookingUseCase{}
	sessions := &MockSessionUseCase{}
	sessions.On("Get", mock.Anything, "s1").
		Return(&session.Session{ID: "s1", Token: "tok", User: &domain.User{ID: "4"}}, nil)
	service.On("Confirm", mock.Anything, "f1", booking.ConfirmInput{Token: "tok", UserID: "4"}).
		Return(testFlow(booking.Confirmed{ReservationID: "r-1"}), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/booking/flows/f1/confirm", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "s1"})
	newBookingRouter(service, sessions).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["confirmed"])
	service.AssertExpectations(t)
}

func TestBookingHandler_errors(t *testing.T) {
	service := &MockBookingUseCase{}
	service.On("Get", mock.Anything, "missing").Return(nil, booking.ErrFlowNotFound)
	service.On("SelectSlot", mock.Anything, "f1", "10:00 AM").Return(nil, booking.ErrFlowBusy)
	router := newBookingRouter(service, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/booking/flows/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/booking/flows/f1/slot", bytes.NewBufferString(`{"slot":"10:00 AM"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/booking/flows/f1/date", bytes.NewBufferString(`{`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "SelectDate", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_current(t *testing.T) {
	service := &MockBookingUseCase{}
	service.On("Get", mock.Anything, "f1").Return(testFlow(booking.SelectingService{}), nil)
	service.On("Get", mock.Anything, "gone").Return(nil, booking.ErrFlowNotFound)
	router := newBookingRouter(service, nil)

	testCases := []struct {
		name        string
		cookie      string
		status      int
		clearCookie bool
	}{
		{"cookie names a live flow", "f1", http.StatusOK, false},
		{"no cookie", "", http.StatusNotFound, false},
		{"flow expired", "gone", http.StatusNotFound, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/booking/flows/current", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: flowCookie.Name, Value: tc.cookie})
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.clearCookie {
				assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
			} else {
				assert.Empty(t, w.Header().Get("Set-Cookie"))
			}
		})
	}

	service.AssertNumberOfCalls(t, "Get", 2)
	var body map[string]any
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/booking/flows/current", nil)
	req.AddCookie(&http.Cookie{Name: flowCookie.Name, Value: "f1"})
	router.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "f1", body["id"])
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/Domenick1991/legalinmo/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPublicHandler(catalog booking.CatalogUseCase, settings PublicSettings) *PublicHandler {
	h := NewPublicHandler(catalog, settings, time.UTC, nil)
	h.now = func() time.Time { return time.Date(2024, time.June, 5, 15, 0, 0, 0, time.UTC) }
	return h
}

func TestPublicHandler_config(t *testing.T) {
	handler := newPublicHandler(&MockCatalogUseCase{}, PublicSettings{
		PaymentPublicKey: "TEST-123",
		PaymentLocale:    "es-MX",
		TimeSlots:        []string{"10:00 AM"},
		Timezones:        []string{"America/Mexico_City", "UTC"},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/public/config", nil)

	handler.config(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp publicConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.PaymentEnabled)
	assert.Equal(t, "America/Mexico_City", resp.DefaultTimezone)
	assert.Len(t, resp.LandingServices, 3)
}

func TestPublicHandler_services(t *testing.T) {
	catalog := &MockCatalogUseCase{}
	handler := newPublicHandler(catalog, PublicSettings{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/public/services", nil)
	catalog.On("List", c.Request.Context()).Return([]domain.Service{{ID: "12", Name: "Consultoría Legal"}}, nil)

	handler.services(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"id":"12","name":"Consultoría Legal","price":null}]}`, w.Body.String())
}

func TestPublicHandler_servicesUpstreamDown(t *testing.T) {
	catalog := &MockCatalogUseCase{}
	handler := newPublicHandler(catalog, PublicSettings{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/public/services", nil)
	catalog.On("List", c.Request.Context()).Return(nil, fmt.Errorf("list_services: %w", apiclient.ErrTransport))

	handler.services(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), apiclient.MsgGeneric)
}

func TestPublicHandler_calendar(t *testing.T) {
	catalog := &MockCatalogUseCase{}
	handler := newPublicHandler(catalog, PublicSettings{})
	catalog.On("Calendar", 2024, time.July, mock.AnythingOfType("time.Time")).
		Return(booking.PickerMonth{Year: 2024, Month: 7})
	catalog.On("Calendar", 2024, time.June, mock.AnythingOfType("time.Time")).
		Return(booking.PickerMonth{Year: 2024, Month: 6})

	testCases := []struct {
		query  string
		status int
		month  int
	}{
		{"?year=2024&month=7", http.StatusOK, 7},
		{"", http.StatusOK, 6},
		{"?year=2024&month=13", http.StatusBadRequest, 0},
		{"?year=abc", http.StatusBadRequest, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/public/calendar"+tc.query, nil)

			handler.calendar(c)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				var got booking.PickerMonth
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tc.month, got.Month)
			}
		})
	}
}

func TestPublicHandler_contact(t *testing.T) {
	handler := newPublicHandler(&MockCatalogUseCase{}, PublicSettings{})

	testCases := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"name":"Ana","email":"ana@example.com","message":"Quiero asesoría"}`, http.StatusAccepted},
		{"blank message", `{"name":"Ana","email":"ana@example.com","message":"  "}`, http.StatusUnprocessableEntity},
		{"bad email", `{"name":"Ana","email":"ana","message":"hola"}`, http.StatusUnprocessableEntity},
		{"not json", `nombre=Ana`, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/public/contact", bytes.NewBufferString(tc.body))
			c.Request.Header.Set("Content-Type", "application/json")

			handler.contact(c)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRespondError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"flow not found", booking.ErrFlowNotFound, http.StatusNotFound, booking.ErrFlowNotFound.Error()},
		{"flow busy", booking.ErrFlowBusy, http.StatusConflict, booking.ErrFlowBusy.Error()},
		{"business rejection", &apiclient.APIError{Status: 422, Message: "Servicio inactivo"}, http.StatusUnprocessableEntity, "Servicio inactivo"},
		{"rejection without message", &apiclient.APIError{Status: 400}, http.StatusUnprocessableEntity, "fallback"},
		{"upstream 500", &apiclient.APIError{Status: 503}, http.StatusBadGateway, "fallback"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, msgInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tc.err, "fallback")

			assert.Equal(t, tc.status, w.Code)
			var body struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.msg, body.Error.Message)
		})
	}
}

package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/legalinmo/api"
	"github.com/Domenick1991/legalinmo/config"
	"github.com/Domenick1991/legalinmo/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:        "127.0.0.1:0",
			AllowedOrigins: []string{"https://legalinmo.mx"},
		},
	}
}

func TestNewRouter_healthz(t *testing.T) {
	healthy := &MockPinger{}
	healthy.On("Ping", mock.Anything).Return(nil)
	down := &MockPinger{}
	down.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	testCases := []struct {
		name   string
		pinger Pinger
		status int
	}{
		{"redis up", healthy, http.StatusOK},
		{"redis down", down, http.StatusServiceUnavailable},
		{"no store", nil, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(testConfig(), Handlers{}, tc.pinger, nil, nil)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestNewRouter_metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics.NewBookingMetrics(registry).ObserveConfirmed()
	router := NewRouter(testConfig(), Handlers{}, nil, registry, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "legalinmo_")
}

func TestNewRouter_corsAndRequestID(t *testing.T) {
	router := NewRouter(testConfig(), Handlers{
		Public: api.NewPublicHandler(nil, api.PublicSettings{}, time.UTC, nil),
	}, nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/public/config", nil)
	req.Header.Set("Origin", "https://legalinmo.mx")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://legalinmo.mx", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRun_shutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, testConfig(), http.NotFoundHandler(), nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_listenError(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.Address = "256.0.0.1:-1"

	err := Run(context.Background(), cfg, http.NotFoundHandler(), nil)
	assert.Error(t, err)
}

package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("WOO_BASE_URL", "https://shop.example")
	t.Setenv("WOO_CONSUMER_KEY", "ck_test")
	t.Setenv("WOO_CONSUMER_SECRET", "cs_test")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 10*time.Minute, cfg.OrdersRefreshInterval)
	assert.False(t, cfg.IsProduction())

	wholesale, retail, bonus, cap := cfg.CommissionRates()
	assert.Equal(t, "0.1", wholesale.String())
	assert.Equal(t, "0.2", retail.String())
	assert.Equal(t, "0.05", bonus.String())
	assert.Equal(t, "1000", cap.String())
}

func TestLoadConfigRejectsNegativeRates(t *testing.T) {
	t.Setenv("WOO_BASE_URL", "https://shop.example")
	t.Setenv("WOO_CONSUMER_KEY", "ck_test")
	t.Setenv("WOO_CONSUMER_SECRET", "cs_test")
	t.Setenv("COMMISSION_RETAIL_RATE", "-0.2")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestRouterHealthz(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger: slog.New(slog.DiscardHandler),
		Config: &Config{AppRequestTimeout: 5 * time.Second},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterServesMetrics(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger: slog.New(slog.DiscardHandler),
		Config: &Config{AppRequestTimeout: 5 * time.Second},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/gumdrop/internal/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveHTTP("/api/v1/hotels", "POST", 200, 12*time.Millisecond)
	observability.ObserveExternal("liteapi", "rates", 200, 40*time.Millisecond)
	observability.ObserveRecommendation("heuristic")
	observability.ObservePriceShape("rates.retailRate.total")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	out := string(body)
	assert.Contains(t, out, "gumdrop_http_requests_total")
	assert.Contains(t, out, "gumdrop_external_requests_total")
	assert.Contains(t, out, `gumdrop_recommendations_total{source="heuristic"}`)
	assert.Contains(t, out, `gumdrop_rate_price_shapes_total{shape="rates.retailRate.total"}`)
}

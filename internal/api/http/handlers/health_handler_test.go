package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/itdesk/internal/observability"
)

func TestLive(t *testing.T) {
	h := NewHealthHandler("itdesk", "test", nil, nil, observability.NewMetrics())
	app := fiber.New()
	app.Get("/health/live", h.Live)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsSnapshotEndpoint(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.RecordIssueCreated()
	metrics.RecordPasscodeIssued()

	h := NewHealthHandler("itdesk", "test", nil, nil, metrics)
	app := fiber.New()
	app.Get("/health/metrics", h.Metrics)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data map[string]int64 `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(1), body.Data["issues_created"])
	assert.Equal(t, int64(1), body.Data["passcodes_issued"])
}

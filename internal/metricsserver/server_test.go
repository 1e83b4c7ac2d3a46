package metricsserver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ccjx3/KVDatabase/internal/metricsserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	elements int
	active   int
}

func (f fakeProvider) Elements() int           { return f.elements }
func (f fakeProvider) ActiveTransactions() int { return f.active }

func TestHealthz_ReportsProviderCounts(t *testing.T) {
	s := metricsserver.New(metricsserver.Config{}, fakeProvider{elements: 3, active: 1}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","elements":3,"active_transactions":1}`, rec.Body.String())
}

func TestHealthz_NilProviderReportsBareOK(t *testing.T) {
	s := metricsserver.New(metricsserver.Config{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetrics_PathIsRegistered(t *testing.T) {
	s := metricsserver.New(metricsserver.Config{Path: "/metrics"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

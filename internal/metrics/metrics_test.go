package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oszuidwest/minnal/internal/metrics"
)

func TestRecordFunctionCall(t *testing.T) {
	success := metrics.FunctionCalls("metrics_test_fn", "success")
	failure := metrics.FunctionCalls("metrics_test_fn", "error")
	beforeOK := testutil.ToFloat64(success)
	beforeErr := testutil.ToFloat64(failure)

	metrics.RecordFunctionCall("metrics_test_fn", nil)
	metrics.RecordFunctionCall("metrics_test_fn", nil)
	metrics.RecordFunctionCall("metrics_test_fn", errors.New("boom"))

	assert.InDelta(t, beforeOK+2, testutil.ToFloat64(success), 0.001)
	assert.InDelta(t, beforeErr+1, testutil.ToFloat64(failure), 0.001)
}

func TestHandlerExposesMetrics(t *testing.T) {
	metrics.SetBuildInfo("0.4.0", "abc1234")
	metrics.RecordHTTPRequest(http.MethodGet, "/api/version", http.StatusOK, 5*time.Millisecond)
	metrics.RecordInstall("install", nil)
	metrics.SetInSync(true)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `minnal_build_info{commit="abc1234",version="0.4.0"} 1`)
	assert.Contains(t, body, "minnal_http_requests_total")
	assert.Contains(t, body, "minnal_install_operations_total")
	assert.Contains(t, body, "minnal_installed_in_sync 1")
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	r := NewRecorder()
	r.ObserveOperation("deposit", "OK", 20*time.Millisecond)
	r.ObserveOperation("deposit", "OK", 30*time.Millisecond)
	r.ObserveOperation("deposit", "INVALID_AMOUNT", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("deposit", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("deposit", "INVALID_AMOUNT")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.operationDuration))
}

func TestCacheAndGauges(t *testing.T) {
	r := NewRecorder()
	r.ObserveCache(true)
	r.ObserveCache(false)
	r.ObserveCache(false)
	r.SetVaultTVL("deep-sui", 2450500)
	r.SetPendingWithdrawals(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 2450500.0, testutil.ToFloat64(r.vaultTVL.WithLabelValues("deep-sui")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.pendingWithdrawals))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveOperation("claim", "OK", time.Second)
		r.ObserveCache(true)
		r.SetVaultTVL("x", 1)
		r.SetPendingWithdrawals(1)
	})
	assert.Nil(t, r.Registry())
}

func TestHandlerExposesEngineMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObserveOperation("claim", "OK", time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `vaultengine_operations_total{operation="claim",result="OK"} 1`))
	assert.Contains(t, body, "vaultengine_pending_withdrawals")
}

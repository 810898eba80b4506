package metrics

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.httpRequestDuration)
	assert.NotNil(t, collector.providerCallsTotal)
	assert.NotNil(t, collector.providerCallDuration)
	assert.NotNil(t, collector.tasksSubmittedTotal)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("GET", "/api/ai/status", 200, 100*time.Millisecond)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	collector.RecordHTTPRequest("GET", "/api/ai/status", 200, 50*time.Millisecond)

	newCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.GreaterOrEqual(t, newCount, count)
}

func TestCollector_ObserveProviderCall(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.ObserveProviderCall("meshy", "create", 2*time.Second, nil)
	collector.ObserveProviderCall("meshy", "create", time.Second, errors.New("boom"))

	ok := testutil.ToFloat64(collector.providerCallsTotal.WithLabelValues("meshy", "create", "ok"))
	failed := testutil.ToFloat64(collector.providerCallsTotal.WithLabelValues("meshy", "create", "error"))
	assert.Equal(t, 1.0, ok)
	assert.Equal(t, 1.0, failed)
}

func TestCollector_RecordTaskSubmitted(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordTaskSubmitted("preview")
	collector.RecordTaskSubmitted("preview")
	collector.RecordTaskSubmitted("refine")

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.tasksSubmittedTotal.WithLabelValues("preview")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.tasksSubmittedTotal.WithLabelValues("refine")))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{99, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusCode(tt.code))
	}
}

package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/restartfu/grid-bench/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestObserveReport(t *testing.T) {
	registry := prometheus.NewRegistry()
	InitBenchmarkMetrics(registry)

	completedBefore := testutil.ToFloat64(BenchmarkRunsCounter.WithLabelValues("completed"))
	failedBefore := testutil.ToFloat64(BenchmarkRunsCounter.WithLabelValues("failed"))

	ObserveReport(domain.BenchmarkReport{
		Algorithm: "sha256",
		State:     domain.RunStateCompleted,
		Single:    &domain.BenchmarkResult{Workers: 1, Elapsed: time.Second, TotalOperations: 1000, Throughput: 1000},
		Multi:     &domain.BenchmarkResult{Workers: 4, Elapsed: time.Second, TotalOperations: 4000, Throughput: 4000},
	})
	ObserveReport(domain.BenchmarkReport{Algorithm: "sha256", State: domain.RunStateFailed})

	require.Equal(t, completedBefore+1, testutil.ToFloat64(BenchmarkRunsCounter.WithLabelValues("completed")))
	require.Equal(t, failedBefore+1, testutil.ToFloat64(BenchmarkRunsCounter.WithLabelValues("failed")))
	require.Equal(t, 1000.0, testutil.ToFloat64(BenchmarkThroughputGauge.WithLabelValues("single", "sha256")))
	require.Equal(t, 4000.0, testutil.ToFloat64(BenchmarkThroughputGauge.WithLabelValues("multi", "sha256")))
	require.Zero(t, testutil.ToFloat64(BenchmarkRunningGauge))
}

func TestCaptureErrorWithoutSentry(t *testing.T) {
	flush, enabled, err := InitSentry(SentryConfig{})
	require.NoError(t, err)
	require.False(t, enabled)
	require.False(t, Enabled())
	flush()
	CaptureError(nil, nil, nil)
}

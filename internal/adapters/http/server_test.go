package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	nethttp "net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/restartfu/grid-bench/internal/app"
	"github.com/restartfu/grid-bench/internal/bench"
	"github.com/restartfu/grid-bench/internal/domain"
	"github.com/restartfu/grid-bench/internal/observability"
	"github.com/restartfu/grid-bench/internal/ports"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	err error
}

func (s stubReader) ReadSpecs(context.Context) (domain.Specs, error) {
	if s.err != nil {
		return domain.Specs{}, s.err
	}
	return domain.Specs{
		Model:   "Test CPU",
		Cores:   4,
		Threads: 8,
		Motherboard: domain.Motherboard{
			Manufacturer: "N/A",
			ProductName:  "N/A",
			Version:      "N/A",
			SerialNumber: "N/A",
		},
		RAMSpeed: "3200 MT/s",
		MemoryModules: []domain.MemoryModule{
			{Locator: "DIMM_A1", Manufacturer: "Samsung", SpeedMHz: 3200, SizeBytes: 16 << 30, PartNumber: "M378A2K43DB1-CTD", SerialNumber: "N/A"},
		},
		Disks: []domain.Disk{
			{Model: "Disk", InterfaceType: "NVMe", MediaType: "SSD", SizeBytes: 512 << 30},
		},
	}, nil
}

func (s stubReader) ReadMetrics(context.Context) (domain.Metrics, error) {
	if s.err != nil {
		return domain.Metrics{}, s.err
	}
	return domain.Metrics{CPUTemp: "unavailable", CPUPercent: 3.5, Time: time.Now().UTC()}, nil
}

type stubStore struct {
	reports []domain.BenchmarkReport
	limit   int
}

func (s *stubStore) SaveReport(_ context.Context, report domain.BenchmarkReport) error {
	s.reports = append(s.reports, report)
	return nil
}

func (s *stubStore) ListReports(_ context.Context, limit int) ([]domain.BenchmarkReport, error) {
	s.limit = limit
	return s.reports, nil
}

type gateWorker struct {
	started chan<- struct{}
	release <-chan struct{}
}

func (w gateWorker) Run(int) error {
	w.started <- struct{}{}
	<-w.release
	return nil
}

func newTestEcho(t *testing.T, runner *bench.Runner, store *stubStore, reader stubReader) *echo.Echo {
	t.Helper()
	var reportStore ports.ReportStore
	if store != nil {
		reportStore = store
	}
	service := app.NewService(context.Background(), reader, reader, runner, reportStore, nil)
	registry := prometheus.NewRegistry()
	registry.MustRegister(observability.BenchmarkRunsCounter)
	e := echo.New()
	NewServer(service, nil, registry, 5).Register(e)
	return e
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetHealth(t *testing.T) {
	e := newTestEcho(t, bench.NewRunner(bench.Config{HashCount: 1}), nil, stubReader{})

	rec := do(e, nethttp.MethodGet, "/health")
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
}

func TestGetSpecs(t *testing.T) {
	e := newTestEcho(t, bench.NewRunner(bench.Config{HashCount: 1}), nil, stubReader{})

	rec := do(e, nethttp.MethodGet, "/specs")
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var body specsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Test CPU", body.Model)
	require.EqualValues(t, 8, body.Threads)
	require.Equal(t, "N/A", body.Motherboard.SerialNumber)
	require.Len(t, body.Disks, 1)
	require.Equal(t, "SSD", body.Disks[0].MediaType)
	require.Equal(t, []memoryModuleResponse{{
		Locator:      "DIMM_A1",
		Manufacturer: "Samsung",
		SpeedMHz:     3200,
		SizeBytes:    16 << 30,
		PartNumber:   "M378A2K43DB1-CTD",
		SerialNumber: "N/A",
	}}, body.MemoryModules)
}

func TestGetSpecsError(t *testing.T) {
	e := newTestEcho(t, bench.NewRunner(bench.Config{HashCount: 1}), nil, stubReader{err: errors.New("cpu model not found")})

	rec := do(e, nethttp.MethodGet, "/specs")
	require.Equal(t, nethttp.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "cpu model not found")
}

func TestGetMetrics(t *testing.T) {
	e := newTestEcho(t, bench.NewRunner(bench.Config{HashCount: 1}), nil, stubReader{})

	rec := do(e, nethttp.MethodGet, "/metrics")
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var body metricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "unavailable", body.CPUTemp)
	require.NotNil(t, body.PerCPUPercent)
}

func TestBenchmarkLifecycle(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	runner := bench.NewRunner(bench.Config{HashCount: 10, Threads: 1}, bench.WithWorkerFactory(func(int) (bench.Worker, error) {
		return gateWorker{started: started, release: release}, nil
	}))
	store := &stubStore{}
	e := newTestEcho(t, runner, store, stubReader{})

	rec := do(e, nethttp.MethodGet, "/benchmark")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var idle benchmarkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &idle))
	require.Equal(t, "idle", idle.State)
	require.Nil(t, idle.Single)

	rec = do(e, nethttp.MethodPost, "/benchmark")
	require.Equal(t, nethttp.StatusAccepted, rec.Code)
	var accepted startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.ID)
	require.Equal(t, "running", accepted.State)
	<-started

	rec = do(e, nethttp.MethodPost, "/benchmark")
	require.Equal(t, nethttp.StatusConflict, rec.Code)

	close(release)
	require.NoError(t, runner.Wait(context.Background()))

	rec = do(e, nethttp.MethodGet, "/benchmark")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var done benchmarkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &done))
	require.Equal(t, "completed", done.State)
	require.NotNil(t, done.Single)
	require.NotNil(t, done.Multi)
	require.EqualValues(t, 10, done.Single.TotalOperations)
	require.NotNil(t, done.Last)
	require.Equal(t, accepted.ID, done.Last.ID)

	rec = do(e, nethttp.MethodGet, "/benchmark/history")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var history historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.EqualValues(t, 1, history.Count)
	require.Equal(t, accepted.ID, history.Reports[0].ID)
	require.Equal(t, 5, store.limit)
}

func TestGetBenchmarkHistoryCount(t *testing.T) {
	store := &stubStore{}
	e := newTestEcho(t, bench.NewRunner(bench.Config{HashCount: 1}), store, stubReader{})

	rec := do(e, nethttp.MethodGet, "/benchmark/history?n=2")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Equal(t, 2, store.limit)

	rec = do(e, nethttp.MethodGet, "/benchmark/history?n=500")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.Equal(t, 5, store.limit)

	for _, n := range []string{"0", "-1", "many"} {
		rec = do(e, nethttp.MethodGet, "/benchmark/history?n="+n)
		require.Equal(t, nethttp.StatusBadRequest, rec.Code, n)
	}
}

func TestGetBenchmarkHistoryWithoutStore(t *testing.T) {
	e := newTestEcho(t, bench.NewRunner(bench.Config{HashCount: 1}), nil, stubReader{})

	rec := do(e, nethttp.MethodGet, "/benchmark/history")
	require.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestGetPrometheus(t *testing.T) {
	e := newTestEcho(t, bench.NewRunner(bench.Config{HashCount: 1}), nil, stubReader{})
	observability.BenchmarkRunsCounter.WithLabelValues("completed").Add(0)

	rec := do(e, nethttp.MethodGet, "/prometheus")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "grid_benchmark_runs_total"))
}

func TestFormatSeconds(t *testing.T) {
	require.Equal(t, "1.50", FormatSeconds(1500*time.Millisecond))
	require.Equal(t, "0.00", FormatSeconds(time.Millisecond))
}

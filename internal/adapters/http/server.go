package http

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	nethttp "net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/restartfu/grid-bench/internal/app"
	"github.com/restartfu/grid-bench/internal/bench"
	"github.com/restartfu/grid-bench/internal/domain"
	"github.com/restartfu/grid-bench/internal/observability"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 250

type Server struct {
	service      *app.Service
	logger       *zap.Logger
	gatherer     prometheus.Gatherer
	historyLimit int
}

func NewServer(service *app.Service, logger *zap.Logger, gatherer prometheus.Gatherer, historyLimit int) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Server{
		service:      service,
		logger:       logger,
		gatherer:     gatherer,
		historyLimit: historyLimit,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", s.GetHealth)
	e.GET("/specs", s.GetSpecs)
	e.GET("/metrics", s.GetMetrics)
	e.GET("/benchmark", s.GetBenchmark)
	e.POST("/benchmark", s.PostBenchmark)
	e.GET("/benchmark/history", s.GetBenchmarkHistory)
	if s.gatherer != nil {
		e.GET("/prometheus", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

type motherboardResponse struct {
	Manufacturer string `json:"manufacturer"`
	ProductName  string `json:"product_name"`
	Version      string `json:"version"`
	SerialNumber string `json:"serial_number"`
}

type ramResponse struct {
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	UsedPercent    float64 `json:"used_percent"`
	InstalledBytes uint64  `json:"installed_bytes,omitempty"`
}

type memoryModuleResponse struct {
	Locator      string `json:"locator"`
	Manufacturer string `json:"manufacturer"`
	SpeedMHz     int    `json:"speed_mhz,omitempty"`
	SizeBytes    uint64 `json:"size_bytes"`
	PartNumber   string `json:"part_number"`
	SerialNumber string `json:"serial_number"`
}

type diskResponse struct {
	Model         string `json:"model"`
	Serial        string `json:"serial"`
	InterfaceType string `json:"interface_type"`
	MediaType     string `json:"media_type"`
	SizeBytes     uint64 `json:"size_bytes"`
}

type specsResponse struct {
	Model         string                 `json:"model"`
	Vendor        string                 `json:"vendor,omitempty"`
	Cores         int32                  `json:"cores"`
	Threads       int32                  `json:"threads"`
	Features      []string               `json:"features,omitempty"`
	Motherboard   motherboardResponse    `json:"motherboard"`
	RAM           ramResponse            `json:"ram"`
	RAMSpeed      string                 `json:"ram_speed"`
	MemoryModules []memoryModuleResponse `json:"memory_modules"`
	Disks         []diskResponse         `json:"disks"`
}

type metricsResponse struct {
	CPUTemp       string      `json:"cpu_temp"`
	CPUWattage    string      `json:"cpu_wattage,omitempty"`
	CPUPercent    float64     `json:"cpu_percent"`
	PerCPUPercent []float64   `json:"per_cpu_percent"`
	RAM           ramResponse `json:"ram"`
	Time          time.Time   `json:"time"`
}

// resultResponse is a benchmark result as displayed: elapsed seconds as a
// two-decimal string and throughput rounded to two decimals.
type resultResponse struct {
	Workers         int     `json:"workers"`
	ElapsedSeconds  string  `json:"elapsed_seconds"`
	TotalOperations int64   `json:"total_operations"`
	Throughput      float64 `json:"throughput"`
}

type reportResponse struct {
	ID         string          `json:"id"`
	Algorithm  string          `json:"algorithm"`
	HashCount  int             `json:"hash_count"`
	Threads    int             `json:"threads"`
	State      string          `json:"state"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Single     *resultResponse `json:"single,omitempty"`
	Multi      *resultResponse `json:"multi,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type benchmarkResponse struct {
	State  string          `json:"state"`
	Active string          `json:"active,omitempty"`
	Single *resultResponse `json:"single,omitempty"`
	Multi  *resultResponse `json:"multi,omitempty"`
	Last   *reportResponse `json:"last,omitempty"`
}

type startResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type historyResponse struct {
	Count   int32            `json:"count"`
	Reports []reportResponse `json:"reports"`
}

func (s *Server) GetHealth(ctx echo.Context) error {
	health := s.service.Health()
	return ctx.JSON(nethttp.StatusOK, healthResponse{
		Status: health.Status,
		Time:   health.Time,
	})
}

func (s *Server) GetMetrics(ctx echo.Context) error {
	metrics, err := s.service.Metrics(ctx.Request().Context())
	if err != nil {
		observability.CaptureError(err, map[string]string{
			"component": "http",
			"handler":   "metrics",
		}, nil)
		return ctx.JSON(nethttp.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	perCPU := metrics.PerCPUPercent
	if perCPU == nil {
		perCPU = []float64{}
	}
	return ctx.JSON(nethttp.StatusOK, metricsResponse{
		CPUTemp:       metrics.CPUTemp,
		CPUWattage:    metrics.CPUWattage,
		CPUPercent:    metrics.CPUPercent,
		PerCPUPercent: perCPU,
		RAM:           toRAMResponse(metrics.RAM),
		Time:          metrics.Time,
	})
}

func (s *Server) GetSpecs(ctx echo.Context) error {
	specs, err := s.service.Specs(ctx.Request().Context())
	if err != nil {
		observability.CaptureError(err, map[string]string{
			"component": "http",
			"handler":   "specs",
		}, nil)
		return ctx.JSON(nethttp.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	disks := make([]diskResponse, 0, len(specs.Disks))
	for _, disk := range specs.Disks {
		disks = append(disks, diskResponse{
			Model:         disk.Model,
			Serial:        disk.Serial,
			InterfaceType: disk.InterfaceType,
			MediaType:     disk.MediaType,
			SizeBytes:     disk.SizeBytes,
		})
	}
	modules := make([]memoryModuleResponse, 0, len(specs.MemoryModules))
	for _, module := range specs.MemoryModules {
		modules = append(modules, memoryModuleResponse{
			Locator:      module.Locator,
			Manufacturer: module.Manufacturer,
			SpeedMHz:     module.SpeedMHz,
			SizeBytes:    module.SizeBytes,
			PartNumber:   module.PartNumber,
			SerialNumber: module.SerialNumber,
		})
	}
	return ctx.JSON(nethttp.StatusOK, specsResponse{
		Model:    specs.Model,
		Vendor:   specs.Vendor,
		Cores:    int32(specs.Cores),
		Threads:  int32(specs.Threads),
		Features: specs.Features,
		Motherboard: motherboardResponse{
			Manufacturer: specs.Motherboard.Manufacturer,
			ProductName:  specs.Motherboard.ProductName,
			Version:      specs.Motherboard.Version,
			SerialNumber: specs.Motherboard.SerialNumber,
		},
		RAM:           toRAMResponse(specs.RAM),
		RAMSpeed:      specs.RAMSpeed,
		MemoryModules: modules,
		Disks:         disks,
	})
}

func (s *Server) PostBenchmark(ctx echo.Context) error {
	id, err := s.service.StartBenchmark(nil)
	if errors.Is(err, bench.ErrAlreadyRunning) {
		return ctx.JSON(nethttp.StatusConflict, errorResponse{Error: err.Error()})
	}
	if err != nil {
		observability.CaptureError(err, map[string]string{
			"component": "http",
			"handler":   "start_benchmark",
		}, nil)
		return ctx.JSON(nethttp.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	s.logger.Info("benchmark requested", zap.String("run", id))
	return ctx.JSON(nethttp.StatusAccepted, startResponse{
		ID:    id,
		State: domain.RunStateRunning.String(),
	})
}

func (s *Server) GetBenchmark(ctx echo.Context) error {
	status := s.service.BenchmarkStatus()
	response := benchmarkResponse{
		State:  status.State.String(),
		Active: status.Active,
	}
	if single, multi, ok := s.service.LatestBenchmark(); ok {
		response.Single = toResultResponse(&single)
		response.Multi = toResultResponse(&multi)
	}
	if status.Last != nil {
		last := toReportResponse(*status.Last)
		response.Last = &last
	}
	return ctx.JSON(nethttp.StatusOK, response)
}

func (s *Server) GetBenchmarkHistory(ctx echo.Context) error {
	limit, err := s.historyCount(ctx.QueryParam("n"))
	if err != nil {
		return ctx.JSON(nethttp.StatusBadRequest, errorResponse{Error: "invalid n"})
	}
	reports, err := s.service.BenchmarkHistory(ctx.Request().Context(), limit)
	if errors.Is(err, app.ErrHistoryUnavailable) {
		return ctx.JSON(nethttp.StatusNotFound, errorResponse{Error: err.Error()})
	}
	if err != nil {
		observability.CaptureError(err, map[string]string{
			"component": "http",
			"handler":   "benchmark_history",
		}, nil)
		return ctx.JSON(nethttp.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	response := historyResponse{
		Count:   int32(len(reports)),
		Reports: make([]reportResponse, 0, len(reports)),
	}
	for _, report := range reports {
		response.Reports = append(response.Reports, toReportResponse(report))
	}
	return ctx.JSON(nethttp.StatusOK, response)
}

func (s *Server) historyCount(raw string) (int, error) {
	if raw == "" {
		return s.historyLimit, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if count <= 0 {
		return 0, errInvalidHistoryCount
	}
	if count > s.historyLimit {
		return s.historyLimit, nil
	}
	return count, nil
}

var errInvalidHistoryCount = errors.New("invalid history count")

func toRAMResponse(ram domain.RAM) ramResponse {
	return ramResponse{
		TotalBytes:     ram.TotalBytes,
		AvailableBytes: ram.AvailableBytes,
		UsedBytes:      ram.UsedBytes,
		UsedPercent:    ram.UsedPercent,
		InstalledBytes: ram.InstalledBytes,
	}
}

func toResultResponse(result *domain.BenchmarkResult) *resultResponse {
	if result == nil {
		return nil
	}
	return &resultResponse{
		Workers:         result.Workers,
		ElapsedSeconds:  FormatSeconds(result.Elapsed),
		TotalOperations: result.TotalOperations,
		Throughput:      result.RoundedThroughput(),
	}
}

func toReportResponse(report domain.BenchmarkReport) reportResponse {
	response := reportResponse{
		ID:        report.ID,
		Algorithm: report.Algorithm,
		HashCount: report.HashCount,
		Threads:   report.Threads,
		State:     report.State.String(),
		StartedAt: report.StartedAt,
		Single:    toResultResponse(report.Single),
		Multi:     toResultResponse(report.Multi),
		Error:     report.Error,
	}
	if !report.FinishedAt.IsZero() {
		finished := report.FinishedAt
		response.FinishedAt = &finished
	}
	return response
}

// FormatSeconds renders a duration as seconds with two decimals.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Seconds())
}

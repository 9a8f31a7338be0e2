package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/restartfu/grid-bench/internal/domain"
	"github.com/stretchr/testify/require"
)

func completedReport() domain.BenchmarkReport {
	return domain.BenchmarkReport{
		ID:        "run-1",
		Algorithm: "sha256",
		HashCount: 1000,
		Threads:   4,
		State:     domain.RunStateCompleted,
		Single: &domain.BenchmarkResult{
			Workers: 1, HashCount: 1000, Elapsed: 2 * time.Second,
			TotalOperations: 1000, Throughput: 500,
		},
		Multi: &domain.BenchmarkResult{
			Workers: 4, HashCount: 1000, Elapsed: 1250 * time.Millisecond,
			TotalOperations: 4000, Throughput: 3200,
		},
	}
}

func TestGenerateCompleted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, completedReport()))

	output := buf.String()
	require.Contains(t, output, "State: **completed**")
	require.Contains(t, output, "| single | 1 | 2.00 | 1000 | 500.00 |")
	require.Contains(t, output, "| multi | 4 | 1.25 | 4000 | 3200.00 |")
	require.Contains(t, output, "6.40x")
}

func TestGenerateFailed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, domain.BenchmarkReport{
		ID:    "run-2",
		State: domain.RunStateFailed,
		Error: "single-threaded run: worker 0 failed: boom",
	}))

	output := buf.String()
	require.Contains(t, output, "State: **failed**")
	require.Contains(t, output, "worker 0 failed")
	require.NotContains(t, output, "| Mode |")
}

func TestGenerateCompletedWithoutResults(t *testing.T) {
	r := completedReport()
	r.Multi = nil

	var buf bytes.Buffer
	require.Error(t, Generate(&buf, r))
}

func TestGenerateJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateJSON(&buf, completedReport()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "completed", decoded["state"])

	single := decoded["single"].(map[string]any)
	require.Equal(t, "2.00", single["elapsed_seconds"])
	require.EqualValues(t, 500, single["throughput"])
}

func TestGenerateSpecs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateSpecs(&buf, domain.Specs{
		Model:   "Test CPU",
		Cores:   8,
		Threads: 16,
		RAM:     domain.RAM{TotalBytes: 16 << 30},
		Motherboard: domain.Motherboard{
			Manufacturer: "N/A",
			ProductName:  "N/A",
			Version:      "N/A",
			SerialNumber: "N/A",
		},
		MemoryModules: []domain.MemoryModule{
			{Locator: "DIMM_A1", Manufacturer: "Samsung", SpeedMHz: 3200, SizeBytes: 16 << 30, PartNumber: "M378A2K43DB1-CTD"},
			{Locator: "DIMM_B1", SizeBytes: 8 << 30},
		},
		Disks: []domain.Disk{{Model: "Disk", MediaType: "SSD", SizeBytes: 1 << 30}},
	}))

	output := buf.String()
	require.Contains(t, output, "| CPU | Test CPU |")
	require.Contains(t, output, "| RAM total | 16.00 GB |")
	require.Contains(t, output, "| RAM speed | N/A |")
	require.Contains(t, output, "| Disk | N/A | SSD | 1.00 GB |")
	require.Contains(t, output, "| DIMM_A1 | Samsung | 3200 MHz | 16.00 GB | M378A2K43DB1-CTD |")
	require.Contains(t, output, "| DIMM_B1 | N/A | N/A | 8.00 GB | N/A |")
}

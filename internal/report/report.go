// Package report formats benchmark reports and host specs for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/restartfu/grid-bench/internal/domain"
	"github.com/restartfu/grid-bench/internal/specs"
)

// Generate writes a markdown table for a finished benchmark report.
func Generate(w io.Writer, r domain.BenchmarkReport) error {
	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run: %s\n", r.ID)
	fmt.Fprintf(w, "State: **%s**\n", r.State)
	fmt.Fprintf(w, "Algorithm: %s, %d hashes per worker\n", r.Algorithm, r.HashCount)

	if r.State != domain.RunStateCompleted {
		if r.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", r.Error)
		}
		return nil
	}
	if r.Single == nil || r.Multi == nil {
		return fmt.Errorf("completed report %s has no results", r.ID)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Mode | Workers | Elapsed (s) | Operations | Throughput (H/s) |")
	fmt.Fprintln(w, "|------|---------|-------------|------------|------------------|")
	writeRow(w, "single", r.Single)
	writeRow(w, "multi", r.Multi)
	fmt.Fprintln(w)

	speedup := 0.0
	if r.Single.Throughput > 0 {
		speedup = r.Multi.Throughput / r.Single.Throughput
	}
	fmt.Fprintf(w, "Multi-threaded speedup: %.2fx\n", speedup)
	return nil
}

func writeRow(w io.Writer, mode string, result *domain.BenchmarkResult) {
	fmt.Fprintf(w, "| %s | %d | %.2f | %d | %.2f |\n",
		mode,
		result.Workers,
		result.ElapsedSeconds(),
		result.TotalOperations,
		result.RoundedThroughput(),
	)
}

type jsonResult struct {
	Workers         int     `json:"workers"`
	ElapsedSeconds  string  `json:"elapsed_seconds"`
	TotalOperations int64   `json:"total_operations"`
	Throughput      float64 `json:"throughput"`
}

type jsonReport struct {
	ID        string      `json:"id"`
	Algorithm string      `json:"algorithm"`
	HashCount int         `json:"hash_count"`
	Threads   int         `json:"threads"`
	State     string      `json:"state"`
	Single    *jsonResult `json:"single,omitempty"`
	Multi     *jsonResult `json:"multi,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// GenerateJSON writes the report as indented JSON with display-rounded
// figures.
func GenerateJSON(w io.Writer, r domain.BenchmarkReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(jsonReport{
		ID:        r.ID,
		Algorithm: r.Algorithm,
		HashCount: r.HashCount,
		Threads:   r.Threads,
		State:     r.State.String(),
		Single:    toJSONResult(r.Single),
		Multi:     toJSONResult(r.Multi),
		Error:     r.Error,
	})
}

func toJSONResult(result *domain.BenchmarkResult) *jsonResult {
	if result == nil {
		return nil
	}
	return &jsonResult{
		Workers:         result.Workers,
		ElapsedSeconds:  fmt.Sprintf("%.2f", result.ElapsedSeconds()),
		TotalOperations: result.TotalOperations,
		Throughput:      result.RoundedThroughput(),
	}
}

// GenerateSpecs writes the host facts as a two-column table.
func GenerateSpecs(w io.Writer, s domain.Specs) error {
	fmt.Fprintln(w, "## Host")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Field | Value |")
	fmt.Fprintln(w, "|-------|-------|")

	rows := [][2]string{
		{"CPU", s.Model},
		{"Vendor", orNA(s.Vendor)},
		{"Cores", fmt.Sprintf("%d", s.Cores)},
		{"Threads", fmt.Sprintf("%d", s.Threads)},
		{"RAM total", specs.FormatBytes(s.RAM.TotalBytes)},
		{"RAM used", fmt.Sprintf("%s (%.1f%%)", specs.FormatBytes(s.RAM.UsedBytes), s.RAM.UsedPercent)},
		{"RAM speed", orNA(s.RAMSpeed)},
		{"Motherboard", strings.TrimSpace(s.Motherboard.Manufacturer + " " + s.Motherboard.ProductName)},
		{"Board version", s.Motherboard.Version},
		{"Board serial", s.Motherboard.SerialNumber},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "| %s | %s |\n", row[0], row[1])
	}

	if len(s.MemoryModules) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Module | Manufacturer | Speed | Capacity | Part Number |")
		fmt.Fprintln(w, "|--------|--------------|-------|----------|-------------|")
		for _, m := range s.MemoryModules {
			speed := "N/A"
			if m.SpeedMHz > 0 {
				speed = fmt.Sprintf("%d MHz", m.SpeedMHz)
			}
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				orNA(m.Locator),
				orNA(m.Manufacturer),
				speed,
				specs.FormatBytes(m.SizeBytes),
				orNA(m.PartNumber),
			)
		}
	}

	if len(s.Disks) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Disk | Interface | Media | Size |")
	fmt.Fprintln(w, "|------|-----------|-------|------|")
	for _, d := range s.Disks {
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			orNA(d.Model),
			orNA(d.InterfaceType),
			orNA(d.MediaType),
			specs.FormatBytes(d.SizeBytes),
		)
	}
	return nil
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}

package specs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v4/cpu"
)

type cpuFacts struct {
	model    string
	vendor   string
	cores    int
	threads  int
	features []string
}

func readCPU(ctx context.Context) (cpuFacts, error) {
	facts := cpuFacts{
		model:    strings.TrimSpace(cpuid.CPU.BrandName),
		vendor:   cpuid.CPU.VendorString,
		cores:    cpuid.CPU.PhysicalCores,
		threads:  cpuid.CPU.LogicalCores,
		features: cpuid.CPU.FeatureSet(),
	}

	if facts.model == "" {
		if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
			facts.model = strings.TrimSpace(infos[0].ModelName)
			if facts.vendor == "" {
				facts.vendor = infos[0].VendorID
			}
		}
	}
	if facts.model == "" {
		model, cores, err := readCPUInfo()
		if err != nil {
			return cpuFacts{}, err
		}
		facts.model = model
		if facts.cores == 0 {
			facts.cores = cores
		}
	}

	if cores := countCPUs(ctx, false); cores > 0 {
		facts.cores = cores
	}
	if threads := countCPUs(ctx, true); threads > 0 {
		facts.threads = threads
	}
	if facts.threads == 0 {
		facts.threads = runtime.NumCPU()
	}
	if facts.cores == 0 {
		facts.cores = facts.threads
	}
	return facts, nil
}

func countCPUs(ctx context.Context, logical bool) int {
	count, err := cpu.CountsWithContext(ctx, logical)
	if err != nil {
		return 0
	}
	return count
}

// ReadUtilization samples CPU usage over interval and returns the overall
// percentage followed by one percentage per logical thread.
func ReadUtilization(ctx context.Context, interval time.Duration) (float64, []float64, error) {
	perCPU, err := cpu.PercentWithContext(ctx, interval, true)
	if err != nil {
		return 0, nil, fmt.Errorf("sample cpu usage: %w", err)
	}
	if len(perCPU) == 0 {
		return 0, nil, errNotFound("cpu usage sample")
	}
	var sum float64
	for _, value := range perCPU {
		sum += value
	}
	return sum / float64(len(perCPU)), perCPU, nil
}

func readCPUInfo() (string, int, error) {
	file, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return "", 0, fmt.Errorf("failed to open /proc/cpuinfo: %w", err)
	}
	defer file.Close()

	info, err := readFirstCPUInfoBlock(file)
	if err != nil {
		return "", 0, err
	}

	model := info["model name"]
	if model == "" {
		return "", 0, fmt.Errorf("CPU model name not found in /proc/cpuinfo")
	}

	cores := parseInt(info["cpu cores"])
	return model, cores, nil
}

func readFirstCPUInfoBlock(r io.Reader) (map[string]string, error) {
	info := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key != "" {
			info[key] = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading /proc/cpuinfo: %w", err)
	}

	return info, nil
}

func parseInt(value string) int {
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(strings.Fields(value)[0])
	if err != nil {
		return 0
	}
	return parsed
}

package specs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/mem"
)

type Memory struct {
	TotalBytes     uint64
	AvailableBytes uint64
	UsedBytes      uint64
	UsedPercent    float64
	// InstalledBytes is the sum of the DIMM sizes reported by dmidecode. Only
	// ReadSpecs fills it; it is zero when dmidecode is unavailable.
	InstalledBytes uint64
	// Modules is filled by ReadSpecs only.
	Modules []MemoryModule
}

// ReadMemory reports RAM totals and current usage without shelling out.
func ReadMemory(ctx context.Context) (Memory, error) {
	stat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		total := readMemTotalKB()
		if total == 0 {
			return Memory{}, fmt.Errorf("read memory: %w", err)
		}
		return Memory{TotalBytes: uint64(total * 1024)}, nil
	}
	return Memory{
		TotalBytes:     stat.Total,
		AvailableBytes: stat.Available,
		UsedBytes:      stat.Used,
		UsedPercent:    stat.UsedPercent,
	}, nil
}

func readMemTotalKB() float64 {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "MemTotal:") {
			parts := strings.Fields(line)
			if len(parts) >= 2 {
				kb, err := strconv.ParseFloat(parts[1], 64)
				if err != nil {
					return 0
				}
				return kb
			}
		}
	}
	return 0
}

func readDMIMemory() []byte {
	out, err := runDMIDecode("memory", isUsableDMIMemoryOutput)
	if err != nil {
		return nil
	}
	return out
}

func parseDMIMemoryCapacityKB(out []byte) float64 {
	var totalKB float64
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Size:") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, "Size:"))
		if value == "" || strings.EqualFold(value, "no module installed") {
			continue
		}
		amount, unit := parseDMIUnit(value)
		if amount == 0 || unit == "" {
			continue
		}
		switch unit {
		case "kb":
			totalKB += amount
		case "mb":
			totalKB += amount * 1024
		case "gb":
			totalKB += amount * 1024 * 1024
		}
	}

	return totalKB
}

func parseDMIUnit(value string) (float64, string) {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return 0, ""
	}
	amount, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, ""
	}
	unit := strings.ToLower(fields[1])
	return amount, unit
}

// readRAMSpeed prefers the EDAC sysfs speeds and falls back on the speeds
// listed in dmiMemory.
func readRAMSpeed(dmiMemory []byte) string {
	values := readSysfsValues([]string{
		"/sys/devices/system/edac/mc/mc*/dimm*/dimm_speed",
	})
	if len(values) == 0 {
		values = parseDMIMemorySpeeds(dmiMemory)
	}
	if len(values) == 0 {
		return "unknown"
	}
	for i, value := range values {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			values[i] = fmt.Sprintf("%d MHz", parsed)
		}
	}
	return strings.Join(values, ", ")
}

func readSysfsValues(patterns []string) []string {
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
		for _, match := range matches {
			data, err := os.ReadFile(match)
			if err != nil {
				continue
			}
			value := strings.TrimSpace(string(data))
			if value == "" || strings.EqualFold(value, "unknown") {
				continue
			}
			seen[value] = struct{}{}
		}
	}
	return setToSlice(seen)
}

func parseDMIMemorySpeeds(out []byte) []string {
	speedSet := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if speed := parseDMISpeed(line); speed != "" {
			speedSet[speed] = struct{}{}
		}
	}

	return setToSlice(speedSet)
}

// runDMIDecode runs `dmidecode -t kind`, retrying known install paths and
// then passwordless sudo. Output that usable accepts is returned even when
// dmidecode exits non-zero.
func runDMIDecode(kind string, usable func([]byte) bool) ([]byte, error) {
	commands := [][]string{
		{"dmidecode", "-t", kind},
		{"/usr/bin/dmidecode", "-t", kind},
		{"/usr/sbin/dmidecode", "-t", kind},
		{"/sbin/dmidecode", "-t", kind},
	}

	for _, args := range commands {
		out, err := exec.Command(args[0], args[1:]...).Output()
		if err == nil {
			return out, nil
		}
		if usable(out) {
			return out, nil
		}
	}

	for _, args := range commands {
		sudoArgs := append([]string{"-n", args[0]}, args[1:]...)
		out, err := exec.Command("sudo", sudoArgs...).Output()
		if err == nil {
			return out, nil
		}
		if usable(out) {
			return out, nil
		}
	}

	return nil, fmt.Errorf("dmidecode unavailable")
}

func isUsableDMIMemoryOutput(out []byte) bool {
	if len(out) == 0 {
		return false
	}
	text := string(out)
	return strings.Contains(text, "Memory Device") || strings.Contains(text, "Physical Memory Array")
}

func parseDMISpeed(line string) string {
	if !strings.HasPrefix(line, "Speed:") {
		return ""
	}
	value := strings.TrimSpace(strings.TrimPrefix(line, "Speed:"))
	if value == "" || strings.EqualFold(value, "unknown") || strings.Contains(value, "No Module") {
		return ""
	}
	return normalizeSpeedValue(value)
}

func normalizeSpeedValue(value string) string {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return value
	}
	number := fields[0]
	unit := fields[1]
	if unit == "MT/s" || unit == "MHz" {
		return number + " MHz"
	}
	return value
}

func setToSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	values := make([]string, 0, len(set))
	for value := range set {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}

// FormatBytes renders a byte count the way the RAM and disk panels show it.
func FormatBytes(size uint64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if value < 1024 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.2f PB", value)
}

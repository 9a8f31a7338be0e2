package domain

import (
	"math"
	"time"
)

type Health struct {
	Status string
	Time   time.Time
}

type Specs struct {
	Model       string
	Vendor      string
	Cores       int
	Threads     int
	Features    []string
	Motherboard   Motherboard
	RAM           RAM
	RAMSpeed      string
	MemoryModules []MemoryModule
	Disks         []Disk
}

type Motherboard struct {
	Manufacturer string
	ProductName  string
	Version      string
	SerialNumber string
}

type RAM struct {
	TotalBytes     uint64
	AvailableBytes uint64
	UsedBytes      uint64
	UsedPercent    float64
	InstalledBytes uint64
}

// MemoryModule is one installed DIMM. SpeedMHz and SizeBytes are zero when
// unknown.
type MemoryModule struct {
	Locator      string
	Manufacturer string
	SpeedMHz     int
	SizeBytes    uint64
	PartNumber   string
	SerialNumber string
}

type Disk struct {
	Model         string
	Serial        string
	InterfaceType string
	MediaType     string
	SizeBytes     uint64
}

type Metrics struct {
	CPUTemp       string
	CPUWattage    string
	CPUPercent    float64
	PerCPUPercent []float64
	RAM           RAM
	Time          time.Time
}

// RunState is the lifecycle of a benchmark runner. A new run may start from
// any state except Running.
type RunState int32

const (
	RunStateIdle RunState = iota
	RunStateRunning
	RunStateCompleted
	RunStateFailed
	RunStateCancelled
)

func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "idle"
	case RunStateRunning:
		return "running"
	case RunStateCompleted:
		return "completed"
	case RunStateFailed:
		return "failed"
	case RunStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// BenchmarkResult is one completed run of a worker cohort.
type BenchmarkResult struct {
	Workers         int
	HashCount       int
	Elapsed         time.Duration
	TotalOperations int64
	Throughput      float64
}

func (r BenchmarkResult) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

// RoundedThroughput is the score as displayed, rounded to two decimals.
// Throughput keeps the unrounded value.
func (r BenchmarkResult) RoundedThroughput() float64 {
	return math.Round(r.Throughput*100) / 100
}

type BenchmarkReport struct {
	ID         string
	Algorithm  string
	HashCount  int
	Threads    int
	State      RunState
	StartedAt  time.Time
	FinishedAt time.Time
	Single     *BenchmarkResult
	Multi      *BenchmarkResult
	Error      string
}

type BenchmarkStatus struct {
	State  RunState
	Last   *BenchmarkReport
	Active string
}

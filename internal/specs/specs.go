package specs

import (
	"context"
	"fmt"
	"runtime"
)

type Specs struct {
	Model       string
	Vendor      string
	Cores       int
	Threads     int
	Features    []string
	Motherboard Motherboard
	Memory      Memory
	RAMSpeed    string
	Disks       []Disk
}

// ReadSpecs collects the static facts about the host. Only a missing CPU
// model is an error; every other field is best effort.
func ReadSpecs(ctx context.Context) (Specs, error) {
	cpu, err := readCPU(ctx)
	if err != nil {
		return Specs{}, err
	}
	if err := ctx.Err(); err != nil {
		return Specs{}, err
	}

	memory, err := ReadMemory(ctx)
	if err != nil {
		memory = Memory{}
	}
	dmiMemory := readDMIMemory()
	memory.InstalledBytes = uint64(parseDMIMemoryCapacityKB(dmiMemory) * 1024)
	memory.Modules = readMemoryModules(dmiMemory)

	return Specs{
		Model:       cpu.model,
		Vendor:      cpu.vendor,
		Cores:       cpu.cores,
		Threads:     cpu.threads,
		Features:    cpu.features,
		Motherboard: readMotherboard(),
		Memory:      memory,
		RAMSpeed:    readRAMSpeed(dmiMemory),
		Disks:       readDisks(),
	}, nil
}

// LogicalThreads is the number of schedulable hardware threads, falling back
// to the runtime's view when the OS query fails.
func LogicalThreads(ctx context.Context) int {
	if threads := countCPUs(ctx, true); threads > 0 {
		return threads
	}
	return runtime.NumCPU()
}

func notAvailable(value string) string {
	if !isUsefulDMIValue(value) {
		return "N/A"
	}
	return value
}

func errNotFound(what string) error {
	return fmt.Errorf("%s not found", what)
}

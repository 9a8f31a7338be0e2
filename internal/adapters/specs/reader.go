package specsadapter

import (
	"context"
	"time"

	"github.com/restartfu/grid-bench/internal/domain"
	"github.com/restartfu/grid-bench/internal/observability"
	"github.com/restartfu/grid-bench/internal/specs"
)

const defaultSampleInterval = 500 * time.Millisecond

type Reader struct {
	sampleInterval time.Duration
}

// NewReader returns a reader that samples CPU utilisation over
// sampleInterval when metrics are read.
func NewReader(sampleInterval time.Duration) *Reader {
	if sampleInterval <= 0 {
		sampleInterval = defaultSampleInterval
	}
	return &Reader{sampleInterval: sampleInterval}
}

func (r *Reader) ReadSpecs(ctx context.Context) (domain.Specs, error) {
	if err := ctx.Err(); err != nil {
		return domain.Specs{}, err
	}
	current, err := specs.ReadSpecs(ctx)
	if err != nil {
		observability.CaptureError(err, map[string]string{
			"component": "specs",
			"operation": "read_specs",
		}, nil)
		return domain.Specs{}, err
	}
	disks := make([]domain.Disk, 0, len(current.Disks))
	for _, disk := range current.Disks {
		disks = append(disks, domain.Disk{
			Model:         disk.Model,
			Serial:        disk.Serial,
			InterfaceType: disk.InterfaceType,
			MediaType:     disk.MediaType,
			SizeBytes:     disk.SizeBytes,
		})
	}
	modules := make([]domain.MemoryModule, 0, len(current.Memory.Modules))
	for _, module := range current.Memory.Modules {
		modules = append(modules, domain.MemoryModule{
			Locator:      module.Locator,
			Manufacturer: module.Manufacturer,
			SpeedMHz:     module.SpeedMHz,
			SizeBytes:    module.SizeBytes,
			PartNumber:   module.PartNumber,
			SerialNumber: module.SerialNumber,
		})
	}
	return domain.Specs{
		Model:    current.Model,
		Vendor:   current.Vendor,
		Cores:    current.Cores,
		Threads:  current.Threads,
		Features: current.Features,
		Motherboard: domain.Motherboard{
			Manufacturer: current.Motherboard.Manufacturer,
			ProductName:  current.Motherboard.ProductName,
			Version:      current.Motherboard.Version,
			SerialNumber: current.Motherboard.SerialNumber,
		},
		RAM:           toDomainRAM(current.Memory),
		RAMSpeed:      current.RAMSpeed,
		MemoryModules: modules,
		Disks:         disks,
	}, nil
}

func (r *Reader) ReadMetrics(ctx context.Context) (domain.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return domain.Metrics{}, err
	}
	metrics := domain.Metrics{
		CPUTemp:    specs.ReadCPUTemp(),
		CPUWattage: specs.ReadCPUWattage(),
	}

	overall, perCPU, err := specs.ReadUtilization(ctx, r.sampleInterval)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Metrics{}, ctxErr
		}
		observability.CaptureError(err, map[string]string{
			"component": "specs",
			"operation": "read_utilization",
		}, nil)
	}
	metrics.CPUPercent = overall
	metrics.PerCPUPercent = perCPU

	if memory, err := specs.ReadMemory(ctx); err == nil {
		metrics.RAM = toDomainRAM(memory)
	}
	metrics.Time = time.Now().UTC()
	return metrics, nil
}

func toDomainRAM(memory specs.Memory) domain.RAM {
	return domain.RAM{
		TotalBytes:     memory.TotalBytes,
		AvailableBytes: memory.AvailableBytes,
		UsedBytes:      memory.UsedBytes,
		UsedPercent:    memory.UsedPercent,
		InstalledBytes: memory.InstalledBytes,
	}
}

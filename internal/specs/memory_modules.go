package specs

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/jaypipes/ghw"
)

// MemoryModule is one populated DIMM slot. SpeedMHz and SizeBytes are zero
// when unknown.
type MemoryModule struct {
	Locator      string
	Manufacturer string
	SpeedMHz     int
	SizeBytes    uint64
	PartNumber   string
	SerialNumber string
}

// readMemoryModules lists the installed modules from ghw and fills what ghw
// leaves out (speed, part number) from the dmidecode output. When ghw reports
// no modules, as on Linux, the dmidecode modules are used as they are.
func readMemoryModules(dmiMemory []byte) []MemoryModule {
	var modules []MemoryModule
	if info, err := ghw.Memory(); err == nil && info != nil {
		for _, module := range info.Modules {
			if module == nil {
				continue
			}
			locator := module.Location
			if locator == "" {
				locator = module.Label
			}
			var size uint64
			if module.SizeBytes > 0 {
				size = uint64(module.SizeBytes)
			}
			modules = append(modules, MemoryModule{
				Locator:      collapseSpaces(locator),
				Manufacturer: collapseSpaces(module.Vendor),
				SizeBytes:    size,
				SerialNumber: strings.TrimSpace(module.SerialNumber),
			})
		}
	}

	modules = mergeMemoryModules(modules, parseDMIMemoryModules(dmiMemory))
	for i := range modules {
		modules[i].Locator = notAvailable(modules[i].Locator)
		modules[i].Manufacturer = notAvailable(modules[i].Manufacturer)
		modules[i].PartNumber = notAvailable(modules[i].PartNumber)
		modules[i].SerialNumber = notAvailable(modules[i].SerialNumber)
	}
	return modules
}

// mergeMemoryModules fills the gaps in primary from the fallback module with
// the same locator, or from the one at the same position when primary has no
// locator.
func mergeMemoryModules(primary, fallback []MemoryModule) []MemoryModule {
	if len(primary) == 0 {
		return fallback
	}
	for i := range primary {
		match, ok := matchMemoryModule(primary[i], i, fallback)
		if !ok {
			continue
		}
		module := &primary[i]
		if !isUsefulDMIValue(module.Manufacturer) {
			module.Manufacturer = match.Manufacturer
		}
		if module.SpeedMHz == 0 {
			module.SpeedMHz = match.SpeedMHz
		}
		if module.SizeBytes == 0 {
			module.SizeBytes = match.SizeBytes
		}
		if !isUsefulDMIValue(module.PartNumber) {
			module.PartNumber = match.PartNumber
		}
		if !isUsefulDMIValue(module.SerialNumber) {
			module.SerialNumber = match.SerialNumber
		}
	}
	return primary
}

func matchMemoryModule(module MemoryModule, index int, candidates []MemoryModule) (MemoryModule, bool) {
	if module.Locator != "" {
		for _, candidate := range candidates {
			if strings.EqualFold(candidate.Locator, module.Locator) {
				return candidate, true
			}
		}
		return MemoryModule{}, false
	}
	if index < len(candidates) {
		return candidates[index], true
	}
	return MemoryModule{}, false
}

// parseDMIMemoryModules walks the "Memory Device" blocks of `dmidecode -t
// memory` and skips empty slots.
func parseDMIMemoryModules(out []byte) []MemoryModule {
	var (
		modules []MemoryModule
		current *MemoryModule
	)
	flush := func() {
		if current != nil && current.SizeBytes > 0 {
			modules = append(modules, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "Memory Device" {
			flush()
			current = &MemoryModule{}
			continue
		}
		if strings.HasPrefix(line, "Handle ") {
			flush()
			continue
		}
		if current == nil {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Size":
			current.SizeBytes = parseDMISizeBytes(value)
		case "Locator":
			current.Locator = collapseSpaces(value)
		case "Manufacturer":
			if isUsefulDMIValue(value) {
				current.Manufacturer = collapseSpaces(value)
			}
		case "Part Number":
			if isUsefulDMIValue(value) {
				current.PartNumber = collapseSpaces(value)
			}
		case "Serial Number":
			if isUsefulDMIValue(value) {
				current.SerialNumber = collapseSpaces(value)
			}
		case "Speed":
			if speed := parseDMISpeedMHz(value); speed > 0 {
				current.SpeedMHz = speed
			}
		case "Configured Memory Speed", "Configured Clock Speed":
			if current.SpeedMHz == 0 {
				current.SpeedMHz = parseDMISpeedMHz(value)
			}
		}
	}
	flush()

	return modules
}

func parseDMISizeBytes(value string) uint64 {
	amount, unit := parseDMIUnit(value)
	if amount <= 0 {
		return 0
	}
	switch unit {
	case "kb":
		return uint64(amount * 1024)
	case "mb":
		return uint64(amount * 1024 * 1024)
	case "gb":
		return uint64(amount * 1024 * 1024 * 1024)
	case "tb":
		return uint64(amount * 1024 * 1024 * 1024 * 1024)
	}
	return 0
}

func parseDMISpeedMHz(value string) int {
	fields := strings.Fields(value)
	if len(fields) < 2 || (fields[1] != "MT/s" && fields[1] != "MHz") {
		return 0
	}
	speed, err := strconv.Atoi(fields[0])
	if err != nil || speed <= 0 {
		return 0
	}
	return speed
}

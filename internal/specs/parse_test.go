package specs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSensorsOutputPrefersCoreZero(t *testing.T) {
	out := []byte(`coretemp-isa-0000
Adapter: ISA adapter
Package id 0:  +58.0°C  (high = +80.0°C, crit = +100.0°C)
Core 0:        +47.0°C  (high = +80.0°C, crit = +100.0°C)
Core 1:        +55.0°C  (high = +80.0°C, crit = +100.0°C)
`)
	value, ok := parseSensorsOutput(out)
	require.True(t, ok)
	require.InDelta(t, 47.0, value, 0.001)
}

func TestParseSensorsOutputHottestCPULine(t *testing.T) {
	out := []byte(`k10temp-pci-00c3
Adapter: PCI adapter
Tctl:         +61.2°C
Tccd1:        +52.5°C
`)
	value, ok := parseSensorsOutput(out)
	require.True(t, ok)
	require.InDelta(t, 61.2, value, 0.001)
}

func TestParseSensorsOutputEmpty(t *testing.T) {
	_, ok := parseSensorsOutput([]byte("Adapter: ISA adapter\n"))
	require.False(t, ok)
}

func TestNormalizeTemp(t *testing.T) {
	require.InDelta(t, 45.0, normalizeTemp(45000), 0.001)
	require.InDelta(t, 45.0, normalizeTemp(45), 0.001)
}

func TestParseTurbostatPkgWatt(t *testing.T) {
	out := []byte(`turbostat version 2023.03.17
PkgWatt
12.34
`)
	require.InDelta(t, 12.34, parseTurbostatPkgWatt(out), 0.001)
	require.Zero(t, parseTurbostatPkgWatt([]byte("")))
}

func TestParseBaseboard(t *testing.T) {
	out := []byte(`# dmidecode 3.3
Handle 0x0002, DMI type 2, 15 bytes
Base Board Information
	Manufacturer: ASUSTeK COMPUTER INC.
	Product Name: ROG STRIX B550-F GAMING
	Version: Rev X.0x
	Serial Number: 200164453401234
`)
	require.True(t, isUsableBaseboardOutput(out))
	board := parseBaseboard(out)
	require.Equal(t, Motherboard{
		Manufacturer: "ASUSTeK COMPUTER INC.",
		ProductName:  "ROG STRIX B550-F GAMING",
		Version:      "Rev X.0x",
		SerialNumber: "200164453401234",
	}, board)
}

func TestNotAvailable(t *testing.T) {
	require.Equal(t, "N/A", notAvailable(""))
	require.Equal(t, "N/A", notAvailable("Default string"))
	require.Equal(t, "N/A", notAvailable("To Be Filled By O.E.M."))
	require.Equal(t, "N/A", notAvailable("unknown"))
	require.Equal(t, "MSI", notAvailable("MSI"))
}

func TestParseDMIMemory(t *testing.T) {
	out := []byte(`Memory Device
	Size: 16 GB
	Speed: 3200 MT/s
Memory Device
	Size: No Module Installed
	Speed: Unknown
Memory Device
	Size: 8192 MB
	Speed: 3200 MT/s
`)
	require.True(t, isUsableDMIMemoryOutput(out))
	require.InDelta(t, float64(24*1024*1024), parseDMIMemoryCapacityKB(out), 0.001)
	require.Equal(t, []string{"3200 MHz"}, parseDMIMemorySpeeds(out))
}

func TestParseDMIMemoryModules(t *testing.T) {
	out := []byte(`# dmidecode 3.5
Handle 0x0040, DMI type 17, 92 bytes
Memory Device
	Total Width: 64 bits
	Size: 16 GB
	Locator: DIMM_A1
	Bank Locator: BANK 0
	Type: DDR4
	Speed: 3200 MT/s
	Manufacturer: Samsung
	Serial Number: 1A2B3C4D
	Part Number: M378A2K43DB1-CTD    
	Configured Memory Speed: 3200 MT/s

Handle 0x0041, DMI type 17, 92 bytes
Memory Device
	Size: No Module Installed
	Locator: DIMM_A2
	Speed: Unknown
	Manufacturer: Not Specified

Handle 0x0042, DMI type 17, 92 bytes
Memory Device
	Size: 8192 MB
	Locator: DIMM_B1
	Speed: Unknown
	Manufacturer: Unknown
	Part Number: Unknown
	Configured Memory Speed: 2666 MT/s

Handle 0x0050, DMI type 20, 35 bytes
Memory Device Mapped Address
	Starting Address: 0x00000000000
`)
	modules := parseDMIMemoryModules(out)
	require.Equal(t, []MemoryModule{
		{
			Locator:      "DIMM_A1",
			Manufacturer: "Samsung",
			SpeedMHz:     3200,
			SizeBytes:    16 << 30,
			PartNumber:   "M378A2K43DB1-CTD",
			SerialNumber: "1A2B3C4D",
		},
		{
			Locator:   "DIMM_B1",
			SpeedMHz:  2666,
			SizeBytes: 8 << 30,
		},
	}, modules)
	require.Empty(t, parseDMIMemoryModules(nil))
}

func TestMergeMemoryModules(t *testing.T) {
	fromDMI := []MemoryModule{
		{Locator: "DIMM_A1", Manufacturer: "Samsung", SpeedMHz: 3200, SizeBytes: 16 << 30, PartNumber: "M378A2K43DB1-CTD"},
		{Locator: "DIMM_B1", SpeedMHz: 2666, SizeBytes: 8 << 30, PartNumber: "KHX2666C16/8G"},
	}

	require.Equal(t, fromDMI, mergeMemoryModules(nil, fromDMI))

	merged := mergeMemoryModules([]MemoryModule{
		{Locator: "dimm_b1", Manufacturer: "Kingston", SizeBytes: 8 << 30, SerialNumber: "99AA"},
		{Locator: "DIMM_C1", Manufacturer: "Unknown", SizeBytes: 4 << 30},
	}, fromDMI)
	require.Equal(t, []MemoryModule{
		{Locator: "dimm_b1", Manufacturer: "Kingston", SpeedMHz: 2666, SizeBytes: 8 << 30, PartNumber: "KHX2666C16/8G", SerialNumber: "99AA"},
		{Locator: "DIMM_C1", Manufacturer: "Unknown", SizeBytes: 4 << 30},
	}, merged)

	merged = mergeMemoryModules([]MemoryModule{{Manufacturer: "Samsung"}}, fromDMI)
	require.Equal(t, 3200, merged[0].SpeedMHz)
	require.Equal(t, uint64(16<<30), merged[0].SizeBytes)
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "512.00 B", FormatBytes(512))
	require.Equal(t, "1.50 KB", FormatBytes(1536))
	require.Equal(t, "16.00 GB", FormatBytes(16*1024*1024*1024))
}

func TestIsVirtualDisk(t *testing.T) {
	require.True(t, isVirtualDisk("loop0"))
	require.True(t, isVirtualDisk("zram0"))
	require.False(t, isVirtualDisk("nvme0n1"))
	require.False(t, isVirtualDisk("sda"))
}

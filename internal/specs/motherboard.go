package specs

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/jaypipes/ghw"
)

type Motherboard struct {
	Manufacturer string
	ProductName  string
	Version      string
	SerialNumber string
}

// readMotherboard tries ghw, then the DMI sysfs files, then dmidecode.
// Fields that stay unknown are reported as "N/A".
func readMotherboard() Motherboard {
	var board Motherboard
	if info, err := ghw.Baseboard(); err == nil && info != nil {
		board = Motherboard{
			Manufacturer: info.Vendor,
			ProductName:  info.Product,
			Version:      info.Version,
			SerialNumber: info.SerialNumber,
		}
	}

	if !isUsefulDMIValue(board.Manufacturer) && !isUsefulDMIValue(board.ProductName) {
		board = Motherboard{
			Manufacturer: readDMIFile("/sys/devices/virtual/dmi/id/board_vendor"),
			ProductName:  readDMIFile("/sys/devices/virtual/dmi/id/board_name"),
			Version:      readDMIFile("/sys/devices/virtual/dmi/id/board_version"),
			SerialNumber: readDMIFile("/sys/devices/virtual/dmi/id/board_serial"),
		}
	}

	if !isUsefulDMIValue(board.Manufacturer) && !isUsefulDMIValue(board.ProductName) {
		if out, err := runDMIDecode("baseboard", isUsableBaseboardOutput); err == nil {
			board = parseBaseboard(out)
		}
	}

	return Motherboard{
		Manufacturer: notAvailable(collapseSpaces(board.Manufacturer)),
		ProductName:  notAvailable(collapseSpaces(board.ProductName)),
		Version:      notAvailable(collapseSpaces(board.Version)),
		SerialNumber: notAvailable(collapseSpaces(board.SerialNumber)),
	}
}

func readDMIFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func isUsefulDMIValue(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	lower := strings.ToLower(value)
	if lower == "unknown" || lower == "default string" || lower == "n/a" || strings.Contains(lower, "to be filled") {
		return false
	}
	return true
}

func parseBaseboard(out []byte) Motherboard {
	var board Motherboard
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Manufacturer:"):
			board.Manufacturer = strings.TrimSpace(strings.TrimPrefix(line, "Manufacturer:"))
		case strings.HasPrefix(line, "Product Name:"):
			board.ProductName = strings.TrimSpace(strings.TrimPrefix(line, "Product Name:"))
		case strings.HasPrefix(line, "Version:"):
			board.Version = strings.TrimSpace(strings.TrimPrefix(line, "Version:"))
		case strings.HasPrefix(line, "Serial Number:"):
			board.SerialNumber = strings.TrimSpace(strings.TrimPrefix(line, "Serial Number:"))
		}
	}
	return board
}

func isUsableBaseboardOutput(out []byte) bool {
	if len(out) == 0 {
		return false
	}
	text := string(out)
	return strings.Contains(text, "Base Board Information") || strings.Contains(text, "Baseboard")
}

func collapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

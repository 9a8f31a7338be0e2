package specs

import (
	"strings"

	"github.com/jaypipes/ghw"
)

type Disk struct {
	Model         string
	Serial        string
	InterfaceType string
	MediaType     string
	SizeBytes     uint64
}

func readDisks() []Disk {
	info, err := ghw.Block()
	if err != nil || info == nil {
		return nil
	}
	disks := make([]Disk, 0, len(info.Disks))
	for _, disk := range info.Disks {
		if disk == nil || isVirtualDisk(disk.Name) {
			continue
		}
		disks = append(disks, Disk{
			Model:         notAvailable(collapseSpaces(disk.Model)),
			Serial:        notAvailable(strings.TrimSpace(disk.SerialNumber)),
			InterfaceType: notAvailable(disk.StorageController.String()),
			MediaType:     notAvailable(disk.DriveType.String()),
			SizeBytes:     disk.SizeBytes,
		})
	}
	return disks
}

// isVirtualDisk filters kernel block devices that are not drives.
func isVirtualDisk(name string) bool {
	for _, prefix := range []string{"loop", "ram", "zram", "dm-", "md", "sr"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

//go:build windows

package preflight

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// DiskProbe reads free-space ratios from the volume holding a path.
type DiskProbe struct{}

func NewDiskProbe() *DiskProbe {
	return &DiskProbe{}
}

func (p *DiskProbe) FreeRatio(path string) (float64, error) {
	p16, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("invalid path %s: %w", path, err)
	}

	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p16, &free, &total, &totalFree); err != nil {
		return 0, fmt.Errorf("disk free space %s: %w", path, err)
	}

	if total == 0 {
		return 0, fmt.Errorf("disk free space %s: zero total bytes", path)
	}

	return float64(free) / float64(total), nil
}

//go:build !windows

package preflight

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DiskProbe reads free-space ratios from the filesystem holding a path.
type DiskProbe struct{}

func NewDiskProbe() *DiskProbe {
	return &DiskProbe{}
}

func (p *DiskProbe) FreeRatio(path string) (float64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}

	if st.Blocks == 0 {
		return 0, fmt.Errorf("statfs %s: zero total blocks", path)
	}

	return float64(st.Bavail) / float64(st.Blocks), nil
}

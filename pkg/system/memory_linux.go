package system

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func sysinfoMemory() ([]string, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return nil, err
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return []string{
		fmt.Sprintf("MemTotal: %d kB", uint64(info.Totalram)*unit/1024),
		fmt.Sprintf("MemFree: %d kB", uint64(info.Freeram)*unit/1024),
		fmt.Sprintf("Buffers: %d kB", uint64(info.Bufferram)*unit/1024),
		fmt.Sprintf("SwapTotal: %d kB", uint64(info.Totalswap)*unit/1024),
		fmt.Sprintf("SwapFree: %d kB", uint64(info.Freeswap)*unit/1024),
	}, nil
}

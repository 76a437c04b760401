package system

import "golang.org/x/sys/windows"

func DiskUsage(path string) (Usage, error) {
	dir, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return Usage{}, err
	}
	var avail, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(dir, &avail, &total, &free); err != nil {
		return Usage{}, err
	}
	return Usage{Total: total, Used: total - free, Free: avail}, nil
}

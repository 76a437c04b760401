//go:build !linux && !darwin && !freebsd && !windows

package system

func DiskUsage(path string) (Usage, error) {
	return Usage{}, ErrUnavailable
}

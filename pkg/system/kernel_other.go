//go:build !linux && !darwin && !freebsd

package system

func kernelRelease() string {
	return ""
}

//go:build !linux

package system

func sysinfoMemory() ([]string, error) {
	return nil, ErrUnavailable
}

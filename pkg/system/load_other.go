//go:build !linux && !darwin

package system

func LoadAverage() (Load, error) {
	return Load{}, ErrUnavailable
}

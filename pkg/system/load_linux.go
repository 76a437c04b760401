package system

import "golang.org/x/sys/unix"

// sysinfo load figures are fixed point with SI_LOAD_SHIFT of 16.
const loadScale = 1 << 16

func LoadAverage() (Load, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return Load{}, err
	}
	return Load{
		One:     float64(info.Loads[0]) / loadScale,
		Five:    float64(info.Loads[1]) / loadScale,
		Fifteen: float64(info.Loads[2]) / loadScale,
	}, nil
}

package system

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// LoadAverage decodes struct loadavg { fixpt_t ldavg[3]; long fscale; }.
func LoadAverage() (Load, error) {
	raw, err := unix.SysctlRaw("vm.loadavg")
	if err != nil {
		return Load{}, err
	}
	if len(raw) < 24 {
		return Load{}, fmt.Errorf("vm.loadavg: short read of %d bytes", len(raw))
	}
	scale := float64(binary.LittleEndian.Uint64(raw[16:24]))
	if scale == 0 {
		return Load{}, fmt.Errorf("vm.loadavg: zero scale")
	}
	return Load{
		One:     float64(binary.LittleEndian.Uint32(raw[0:4])) / scale,
		Five:    float64(binary.LittleEndian.Uint32(raw[4:8])) / scale,
		Fifteen: float64(binary.LittleEndian.Uint32(raw[8:12])) / scale,
	}, nil
}

package system

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned when the host offers no source for a metric.
var ErrUnavailable = errors.New("not available on this platform")

const gib = 1 << 30

// Load holds the 1, 5 and 15 minute load averages.
type Load struct {
	One, Five, Fifteen float64
}

func (l Load) String() string {
	return fmt.Sprintf("loadavg: 1m=%.2f 5m=%.2f 15m=%.2f", l.One, l.Five, l.Fifteen)
}

// Usage is a filesystem capacity snapshot in bytes.
type Usage struct {
	Total uint64
	Used  uint64
	Free  uint64
}

func (u Usage) String() string {
	return fmt.Sprintf("total=%.2fG used=%.2fG free=%.2fG",
		float64(u.Total)/gib, float64(u.Used)/gib, float64(u.Free)/gib)
}

// SnapshotHeader is the first line of a sysmon report.
func SnapshotHeader(now time.Time) string {
	return "Snapshot @ " + now.Format("2006-01-02 15:04:05")
}

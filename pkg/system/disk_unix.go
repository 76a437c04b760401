//go:build linux || darwin || freebsd

package system

import "golang.org/x/sys/unix"

// DiskUsage reports the filesystem holding path. Free is the space
// available to unprivileged users.
func DiskUsage(path string) (Usage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Usage{}, err
	}
	bsize := uint64(st.Bsize)
	return Usage{
		Total: uint64(st.Blocks) * bsize,
		Used:  (uint64(st.Blocks) - uint64(st.Bfree)) * bsize,
		Free:  uint64(st.Bavail) * bsize,
	}, nil
}

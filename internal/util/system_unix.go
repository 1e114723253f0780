//go:build unix

package util

import "golang.org/x/sys/unix"

// FreeDiskBytes returns the bytes available to unprivileged users on the
// filesystem holding path.
func FreeDiskBytes(path string) (uint64, bool) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, false
	}
	return uint64(st.Bavail) * uint64(st.Bsize), true
}

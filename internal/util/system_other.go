//go:build !unix

package util

// FreeDiskBytes is not implemented on this platform.
func FreeDiskBytes(path string) (uint64, bool) {
	return 0, false
}

package util

import (
	"os"
	"runtime"
)

// SystemInfo contains information about the host system.
type SystemInfo struct {
	Hostname string
	NumCPU   int
	OS       string
	Arch     string
}

// GetSystemInfo collects system information.
func GetSystemInfo() SystemInfo {
	hostname, _ := os.Hostname()
	return SystemInfo{
		Hostname: hostname,
		NumCPU:   runtime.NumCPU(),
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
	}
}

// LowDiskSpace reports whether the filesystem holding path has fewer than
// minFree bytes available. It returns false when free space cannot be
// determined.
func LowDiskSpace(path string, minFree uint64) (free uint64, low bool) {
	free, ok := FreeDiskBytes(path)
	if !ok {
		return 0, false
	}
	return free, free < minFree
}

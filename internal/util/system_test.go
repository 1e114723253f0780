package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestGetSystemInfo(t *testing.T) {
	info := GetSystemInfo()
	if info.NumCPU <= 0 {
		t.Errorf("NumCPU = %d, want > 0", info.NumCPU)
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("OS/Arch = %s/%s, want %s/%s", info.OS, info.Arch, runtime.GOOS, runtime.GOARCH)
	}
}

func TestFreeDiskBytes(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("statfs-specific test")
	}

	free, ok := FreeDiskBytes(t.TempDir())
	if !ok {
		t.Fatal("FreeDiskBytes() could not stat temp dir")
	}
	if free == 0 {
		t.Error("FreeDiskBytes() = 0 for temp dir")
	}

	if _, ok := FreeDiskBytes("/nonexistent/flashbang/path"); ok {
		t.Error("FreeDiskBytes() should fail for a missing path")
	}
}

func TestLowDiskSpace(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("statfs-specific test")
	}

	dir := t.TempDir()
	if _, low := LowDiskSpace(dir, 0); low {
		t.Error("LowDiskSpace(dir, 0) should never be low")
	}
	if _, low := LowDiskSpace(dir, ^uint64(0)); !low {
		t.Error("LowDiskSpace(dir, max) should always be low")
	}
	if _, low := LowDiskSpace("/nonexistent/flashbang/path", ^uint64(0)); low {
		t.Error("LowDiskSpace() should report false when free space is unknown")
	}
}

func TestEnsureDirectoryWritable(t *testing.T) {
	tmpDir := t.TempDir()
	if err := EnsureDirectoryWritable(tmpDir); err != nil {
		t.Errorf("Expected no error for writable dir, got %v", err)
	}

	if err := EnsureDirectoryWritable("/nonexistent/directory/path"); err == nil {
		t.Error("Expected error for non-existent directory")
	}

	tmpFile := filepath.Join(tmpDir, "testfile")
	if err := os.WriteFile(tmpFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDirectoryWritable(tmpFile); err == nil {
		t.Error("Expected error for file instead of directory")
	}

	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 1 {
		t.Errorf("write probe left %d entries behind, want 1", len(entries))
	}
}

func TestRemovePath(t *testing.T) {
	dir := t.TempDir()
	frames := filepath.Join(dir, "frames")
	if err := EnsureDirectory(frames); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(frames, "frame_0000.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := RemovePath(frames); err != nil {
		t.Fatalf("RemovePath() error = %v", err)
	}
	if DirectoryExists(frames) {
		t.Error("frames directory should be removed")
	}
	if err := RemovePath(frames); err != nil {
		t.Errorf("RemovePath() on missing path error = %v", err)
	}
}

func TestHasVideoExtension(t *testing.T) {
	for path, want := range map[string]bool{
		"video.mp4":      true,
		"/x/Clip.MOV":    true,
		"audio.wav":      false,
		"no_extension":   false,
		"archive.tar.gz": false,
	} {
		if got := HasVideoExtension(path); got != want {
			t.Errorf("HasVideoExtension(%q) = %v, want %v", path, got, want)
		}
	}
}

package fsutil

import (
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/mem"
)

func TestImageClassification(t *testing.T) {
	cases := []struct {
		path      string
		wantImage bool
		wantRAW   bool
	}{
		{"IMG_0001.JPG", true, false},
		{"frame.tiff", true, false},
		{"DSC_0042.NEF", true, true},
		{"capture.cr3", true, true},
		{"notes.txt", false, false},
	}
	for _, tc := range cases {
		if got := IsImageFile(tc.path); got != tc.wantImage {
			t.Errorf("IsImageFile(%q) = %v", tc.path, got)
		}
		if got := IsRAWFile(tc.path); got != tc.wantRAW {
			t.Errorf("IsRAWFile(%q) = %v", tc.path, got)
		}
	}
}

func TestCheckFrameMemory(t *testing.T) {
	orig := virtualMemory
	defer func() { virtualMemory = orig }()

	virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Available: 100 << 20}, nil
	}
	if err := CheckFrameMemory(1920, 1080); err != nil {
		t.Fatalf("1080p frames should fit in 100MB: %v", err)
	}
	if err := CheckFrameMemory(8000, 6000); err == nil {
		t.Fatalf("expected 48MP frames to exceed 100MB")
	}

	virtualMemory = func() (*mem.VirtualMemoryStat, error) { return nil, errors.New("boom") }
	if err := CheckFrameMemory(1, 1); err == nil {
		t.Fatalf("expected error to propagate")
	}
}

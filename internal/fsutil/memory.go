package fsutil

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// frameBytesPerPixel is one float32 per RGB channel.
const frameBytesPerPixel = 3 * 4

// virtualMemory is swapped in tests.
var virtualMemory = mem.VirtualMemory

// FrameMemory estimates the resident size of a run: the accumulator plus one
// decoded source frame.
func FrameMemory(width, height int) uint64 {
	return 2 * uint64(width) * uint64(height) * frameBytesPerPixel
}

// GetSystemMemory returns available memory in bytes.
func GetSystemMemory() (uint64, error) {
	vm, err := virtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// CheckFrameMemory returns an error when the frames of a run would not fit in
// the currently available memory.
func CheckFrameMemory(width, height int) error {
	need := FrameMemory(width, height)
	avail, err := GetSystemMemory()
	if err != nil {
		return fmt.Errorf("read system memory: %w", err)
	}
	if need > avail {
		return fmt.Errorf("%dx%d frames need %d MB, only %d MB available",
			width, height, need>>20, avail>>20)
	}
	return nil
}

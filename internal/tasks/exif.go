package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// CaptureTime reads DateTimeOriginal with exiftool -json. ok is false when the
// tool is missing or the file carries no capture time.
func CaptureTime(ctx context.Context, path string) (time.Time, bool) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		return time.Time{}, false
	}
	cmd := exec.CommandContext(ctx, "exiftool", "-json", "-DateTimeOriginal", "-SubSecTimeOriginal", path)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return time.Time{}, false
	}
	var parsed []map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil || len(parsed) == 0 {
		return time.Time{}, false
	}
	m := parsed[0]
	v, ok := m["DateTimeOriginal"].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(exifTimeLayout, v)
	if err != nil {
		return time.Time{}, false
	}
	switch sub := m["SubSecTimeOriginal"].(type) {
	case float64:
		t = t.Add(subSeconds(strconv.FormatFloat(sub, 'f', -1, 64)))
	case string:
		t = t.Add(subSeconds(sub))
	}
	return t, true
}

// subSeconds turns the digits of SubSecTimeOriginal ("42" means 0.42s) into a duration.
func subSeconds(digits string) time.Duration {
	f, err := strconv.ParseFloat("0."+strings.TrimSpace(digits), 64)
	if err != nil {
		return 0
	}
	return time.Duration(math.Round(f * float64(time.Second)))
}

// CaptureClock orders frames by camera capture time. Files without a capture
// time sort first, by path among themselves.
type CaptureClock struct {
	lookup func(path string) (time.Time, bool)
	log    *slog.Logger

	mu    sync.Mutex
	cache map[string]time.Time
}

// NewCaptureClock reads capture times through exiftool.
func NewCaptureClock(ctx context.Context, log *slog.Logger) *CaptureClock {
	return &CaptureClock{
		lookup: func(path string) (time.Time, bool) { return CaptureTime(ctx, path) },
		log:    log,
	}
}

// Less is a trails.SelectOptions comparator.
func (c *CaptureClock) Less(a, b string) bool {
	ta, tb := c.timeOf(a), c.timeOf(b)
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return a < b
}

func (c *CaptureClock) timeOf(path string) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		c.cache = make(map[string]time.Time)
	}
	if t, ok := c.cache[path]; ok {
		return t
	}
	t, ok := c.lookup(path)
	if !ok && c.log != nil {
		c.log.Debug("no capture time, ordering by name", "path", path)
	}
	c.cache[path] = t
	return t
}

package tasks

import (
	"sort"
	"strings"
	"testing"
	"time"
)

func TestCaptureClockOrdersByTime(t *testing.T) {
	base := time.Date(2024, 8, 12, 23, 0, 0, 0, time.UTC)
	times := map[string]time.Time{
		"b.jpg": base,
		"a.jpg": base.Add(2 * time.Second),
		"c.jpg": base.Add(time.Second),
	}
	calls := 0
	clock := &CaptureClock{lookup: func(p string) (time.Time, bool) {
		calls++
		t, ok := times[p]
		return t, ok
	}}

	files := []string{"a.jpg", "b.jpg", "c.jpg", "z.jpg", "y.jpg"}
	sort.SliceStable(files, func(i, j int) bool { return clock.Less(files[i], files[j]) })

	want := "y.jpg,z.jpg,b.jpg,c.jpg,a.jpg"
	if got := strings.Join(files, ","); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if calls != 5 {
		t.Fatalf("expected one lookup per file, got %d", calls)
	}
}

func TestSubSeconds(t *testing.T) {
	cases := map[string]time.Duration{
		"42":  420 * time.Millisecond,
		"05":  50 * time.Millisecond,
		"5":   500 * time.Millisecond,
		"bad": 0,
	}
	for in, want := range cases {
		if got := subSeconds(in); got != want {
			t.Fatalf("subSeconds(%q) = %v, want %v", in, got, want)
		}
	}
}

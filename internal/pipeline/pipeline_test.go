package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"startrails/internal/storage"
	"startrails/internal/trails"
)

type stubRunner struct {
	mu    sync.Mutex
	jobs  []string
	err   error
	block chan struct{}
}

func (s *stubRunner) Run(ctx context.Context, job Job, observe func(trails.Event)) (trails.Result, error) {
	s.mu.Lock()
	s.jobs = append(s.jobs, job.ID)
	s.mu.Unlock()
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return trails.Result{}, ctx.Err()
		}
	}
	observe(trails.Event{Phase: trails.PhaseTrail, Index: 0, Total: 1, Path: "a.jpg"})
	if s.err != nil {
		return trails.Result{}, s.err
	}
	return trails.Result{Selected: 1, Merged: 1, FinalPath: "/out/trails_final.jpg"}, nil
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func waitOutcome(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for job")
	}
	return Outcome{}
}

func TestPipelineRecordsAndBroadcasts(t *testing.T) {
	store := newTestStore(t)
	p := New(context.Background(), 1, slog.Default(), store, &stubRunner{})
	defer p.Stop()

	events, unsub := p.Subscribe()
	defer unsub()

	done, err := p.Submit(Job{ID: "run-1", Select: trails.SelectOptions{Paths: []string{"a.jpg"}}, OutputDir: "/out", Prefix: "trails"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	out := waitOutcome(t, done)
	if out.Err != nil || out.Result.Merged != 1 {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	var kinds []EventKind
	for len(kinds) < 4 {
		select {
		case ev := <-events:
			kinds = append(kinds, ev.Kind)
		case <-time.After(5 * time.Second):
			t.Fatalf("missing events, got %v", kinds)
		}
	}
	want := []EventKind{EventQueued, EventStarted, EventProgress, EventCompleted}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, kinds)
		}
	}

	rec, err := store.Run("run-1")
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if rec.Status != storage.StatusCompleted {
		t.Fatalf("expected completed, got %s", rec.Status)
	}
	meta, err := store.RunMeta("run-1")
	if err != nil || meta["final"] != "/out/trails_final.jpg" {
		t.Fatalf("unexpected meta %v (%v)", meta, err)
	}
}

func TestPipelineFailureRecorded(t *testing.T) {
	store := newTestStore(t)
	p := New(context.Background(), 1, slog.Default(), store, &stubRunner{err: trails.ErrEmptySelection})
	defer p.Stop()

	done, err := p.Submit(Job{ID: "run-2"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	out := waitOutcome(t, done)
	if !errors.Is(out.Err, trails.ErrEmptySelection) {
		t.Fatalf("expected empty selection error, got %v", out.Err)
	}
	rec, _ := store.Run("run-2")
	if rec.Status != storage.StatusFailed || rec.Error == "" {
		t.Fatalf("failure not recorded: %+v", rec)
	}
}

func TestPipelineRunsJobsInOrder(t *testing.T) {
	runner := &stubRunner{}
	p := New(context.Background(), 1, slog.Default(), nil, runner)
	defer p.Stop()

	var dones []<-chan Outcome
	for _, id := range []string{"a", "b", "c"} {
		done, err := p.Submit(Job{ID: id})
		if err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
		dones = append(dones, done)
	}
	for _, d := range dones {
		waitOutcome(t, d)
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.jobs) != 3 || runner.jobs[0] != "a" || runner.jobs[2] != "c" {
		t.Fatalf("unexpected run order %v", runner.jobs)
	}
}

func TestStopCancelsRunningJob(t *testing.T) {
	runner := &stubRunner{block: make(chan struct{})}
	p := New(context.Background(), 1, slog.Default(), nil, runner)

	done, err := p.Submit(Job{ID: "slow"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	p.Stop()
	out := waitOutcome(t, done)
	if !errors.Is(out.Err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", out.Err)
	}
	if _, err := p.Submit(Job{ID: "late"}); err == nil {
		t.Fatalf("expected submit after stop to fail")
	}
}

func TestTrailsRunnerMergesDirectory(t *testing.T) {
	src := t.TempDir()
	writePNG(t, filepath.Join(src, "a.png"), color.RGBA{10, 200, 30, 255})
	writePNG(t, filepath.Join(src, "b.png"), color.RGBA{50, 5, 60, 255})
	out := filepath.Join(t.TempDir(), "nested", "out")

	var checked image.Point
	r := &TrailsRunner{
		MemoryCheck: true,
		memCheck: func(w, h int) error {
			checked = image.Pt(w, h)
			return errors.New("not enough memory")
		},
	}
	var events int
	res, err := r.Run(context.Background(), Job{
		ID:        "run-3",
		Select:    trails.SelectOptions{Paths: []string{src}, Extensions: []string{"png"}},
		OutputDir: out,
		Prefix:    "night",
		Format:    "png",
	}, func(trails.Event) { events++ })
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Merged != 2 || res.FinalPath != filepath.Join(out, "night_final.png") {
		t.Fatalf("unexpected result %+v", res)
	}
	if checked != image.Pt(3, 2) {
		t.Fatalf("memory check saw %v", checked)
	}
	if events == 0 {
		t.Fatalf("expected progress events")
	}
	if _, err := os.Stat(res.FinalPath); err != nil {
		t.Fatalf("final still missing: %v", err)
	}
}

func TestTrailsRunnerEmptySelection(t *testing.T) {
	r := &TrailsRunner{}
	_, err := r.Run(context.Background(), Job{
		Select:    trails.SelectOptions{Paths: []string{t.TempDir()}},
		OutputDir: t.TempDir(),
	}, func(trails.Event) {})
	if !errors.Is(err, trails.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestTrailsRunnerCaptureOrder(t *testing.T) {
	src := t.TempDir()
	writePNG(t, filepath.Join(src, "a.png"), color.RGBA{10, 10, 10, 255})
	writePNG(t, filepath.Join(src, "b.png"), color.RGBA{20, 20, 20, 255})

	var order []string
	r := &TrailsRunner{captureLess: func(a, b string) bool { return a > b }}
	_, err := r.Run(context.Background(), Job{
		Select:    trails.SelectOptions{Paths: []string{src}},
		OutputDir: t.TempDir(),
		Format:    "png",
		Order:     OrderCapture,
	}, func(ev trails.Event) {
		if ev.Phase == trails.PhaseTrail {
			order = append(order, filepath.Base(ev.Path))
		}
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2 || order[0] != "b.png" {
		t.Fatalf("expected capture comparator to drive order, got %v", order)
	}
}

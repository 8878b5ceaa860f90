package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"startrails/internal/logging"
	"startrails/internal/storage"
	"startrails/internal/trails"
)

// Job is one star-trail run request.
type Job struct {
	ID        string               `json:"id"`
	Select    trails.SelectOptions `json:"select"`
	Options   trails.Options       `json:"options"`
	OutputDir string               `json:"output_dir"`
	Prefix    string               `json:"prefix"`
	Format    string               `json:"format,omitempty"`
	Quality   int                  `json:"quality,omitempty"`
	Order     string               `json:"order,omitempty"`
}

// Frame orders.
const (
	OrderName    = "name"    // lexicographic path order
	OrderCapture = "capture" // EXIF capture time
)

// EventKind enumerates pipeline notifications.
type EventKind string

const (
	EventQueued    EventKind = "queued"
	EventStarted   EventKind = "started"
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event is broadcast to subscribers while jobs move through the queue.
type Event struct {
	Kind     EventKind      `json:"kind"`
	JobID    string         `json:"job_id"`
	Progress *trails.Event  `json:"progress,omitempty"`
	Result   *trails.Result `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
	Time     time.Time      `json:"time"`
}

// Outcome is delivered once per submitted job.
type Outcome struct {
	Job    Job
	Result trails.Result
	Err    error
}

// Runner executes a job, reporting progress through observe.
type Runner interface {
	Run(ctx context.Context, job Job, observe func(trails.Event)) (trails.Result, error)
}

// ErrQueueFull is returned by Submit when no slot is free.
var ErrQueueFull = errors.New("job queue is full")

type queued struct {
	job  Job
	done chan Outcome
}

// Pipeline orchestrates job dispatch across workers.
type Pipeline struct {
	runner    Runner
	log       *slog.Logger
	jobs      chan queued
	wg        sync.WaitGroup
	cancel    context.CancelFunc
	stopOnce  sync.Once
	store     *storage.Store
	mu        sync.Mutex
	subs      map[int]chan Event
	nextSubID int
	stopped   bool
}

// New creates a Pipeline. Runs share the output directory layout, so one worker is
// the usual setting.
func New(ctx context.Context, concurrency int, logger *slog.Logger, store *storage.Store, runner Runner) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pipeline{
		runner: runner,
		log:    logger,
		jobs:   make(chan queued, concurrency*4),
		cancel: cancel,
		store:  store,
		subs:   make(map[int]chan Event),
	}
	for i := 0; i < concurrency; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	return p
}

// Submit adds a job to the processing queue. The returned channel receives the
// outcome exactly once.
func (p *Pipeline) Submit(job Job) (<-chan Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return nil, errors.New("pipeline stopped")
	}

	if p.store != nil {
		optsJSON, _ := json.Marshal(job.Options)
		if err := p.store.RecordRunQueued(storage.RunRecord{
			ID:          job.ID,
			Inputs:      job.Select.Paths,
			OutputDir:   job.OutputDir,
			Prefix:      job.Prefix,
			OptionsJSON: string(optsJSON),
		}); err != nil {
			p.log.Warn("failed to record queued run", "id", job.ID, "error", err)
		}
	}

	q := queued{job: job, done: make(chan Outcome, 1)}
	select {
	case p.jobs <- q:
	default:
		return nil, ErrQueueFull
	}
	p.broadcastLocked(Event{Kind: EventQueued, JobID: job.ID, Time: time.Now()})
	return q.done, nil
}

// Stop cancels running jobs, waits for workers and closes subscriber channels.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		p.cancel()
		close(p.jobs)
		p.wg.Wait()

		p.mu.Lock()
		for id, ch := range p.subs {
			close(ch)
			delete(p.subs, id)
		}
		p.mu.Unlock()
	})
}

func (p *Pipeline) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for q := range p.jobs {
		if ctx.Err() != nil {
			q.done <- Outcome{Job: q.job, Err: ctx.Err()}
			continue
		}
		q.done <- p.run(ctx, q.job)
	}
}

func (p *Pipeline) run(ctx context.Context, job Job) Outcome {
	start := time.Now()
	logging.LogRunStart(p.log, job.ID, job.Select.Paths, job.OutputDir, map[string]any{
		"skip":              job.Options.Skip,
		"keep_intermediate": job.Options.KeepIntermediate,
		"keep_timelapse":    job.Options.KeepTimelapse,
		"save_video":        job.Options.SaveVideo,
		"reverse":           job.Select.Reverse,
		"max_images":        job.Select.MaxCount,
	})
	if p.store != nil {
		_ = p.store.RecordRunStart(job.ID)
	}
	p.broadcast(Event{Kind: EventStarted, JobID: job.ID, Time: time.Now()})

	res, err := p.runner.Run(ctx, job, func(ev trails.Event) {
		p.broadcast(Event{Kind: EventProgress, JobID: job.ID, Progress: &ev, Time: time.Now()})
	})
	duration := time.Since(start)

	if err != nil {
		logging.LogRunError(p.log, job.ID, duration, err, map[string]any{
			"inputs": job.Select.Paths,
			"output": job.OutputDir,
		})
		if p.store != nil {
			_ = p.store.RecordRunResult(job.ID, storage.StatusFailed, ResultMeta(res), err.Error())
		}
		p.broadcast(Event{Kind: EventFailed, JobID: job.ID, Error: err.Error(), Time: time.Now()})
		return Outcome{Job: job, Result: res, Err: err}
	}

	meta := ResultMeta(res)
	logging.LogRunComplete(p.log, job.ID, duration, meta)
	if p.store != nil {
		_ = p.store.RecordRunResult(job.ID, storage.StatusCompleted, meta, "")
	}
	p.broadcast(Event{Kind: EventCompleted, JobID: job.ID, Result: &res, Time: time.Now()})
	return Outcome{Job: job, Result: res}
}

// Subscribe returns a channel for receiving events and an unsubscribe function.
// Slow subscribers miss events rather than stalling the workers.
func (p *Pipeline) Subscribe() (<-chan Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSubID
	p.nextSubID++
	ch := make(chan Event, 64)
	p.subs[id] = ch
	unsub := func() {
		p.mu.Lock()
		if c, ok := p.subs[id]; ok {
			close(c)
			delete(p.subs, id)
		}
		p.mu.Unlock()
	}
	return ch, unsub
}

func (p *Pipeline) broadcast(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcastLocked(ev)
}

func (p *Pipeline) broadcastLocked(ev Event) {
	for id, ch := range p.subs {
		select {
		case ch <- ev:
		default:
			p.log.Warn("event channel full", "subscriber", id, "job", ev.JobID)
		}
	}
}

// ResultMeta flattens a run result for storage and API responses.
func ResultMeta(res trails.Result) map[string]any {
	meta := map[string]any{
		"selected": res.Selected,
		"merged":   res.Merged,
		"skipped":  res.Skipped,
		"stills":   res.Stills,
		"width":    res.Width,
		"height":   res.Height,
	}
	if res.FinalPath != "" {
		meta["final"] = res.FinalPath
	}
	if res.VideoPath != "" {
		meta["video"] = res.VideoPath
	}
	if res.VideoError != "" {
		meta["video_error"] = res.VideoError
	}
	if len(res.Notices) > 0 {
		meta["notices"] = res.Notices
	}
	return meta
}

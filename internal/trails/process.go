package trails

import (
	"context"
	"image"
	"log/slog"
)

// Phase names the stage a progress Event belongs to.
type Phase string

const (
	PhaseTimelapse Phase = "timelapse"
	PhaseTrail     Phase = "trail"
	PhaseSkip      Phase = "skip"
	PhaseHold      Phase = "hold"
	PhaseVideo     Phase = "video"
	PhaseDone      Phase = "done"
)

// Event reports one step of a run.
type Event struct {
	Phase Phase  `json:"phase"`
	Index int    `json:"index"`
	Total int    `json:"total"`
	Path  string `json:"path,omitempty"`
	Still string `json:"still,omitempty"`
}

// StillWriter persists frames; *Renderer is the production implementation.
type StillWriter interface {
	SaveStill(f *Frame, label string) (string, error)
}

// VideoAssembler encodes the numbered still sequence into a single video.
type VideoAssembler interface {
	AssembleVideo(ctx context.Context, pattern, output string) error
}

// Result summarises a completed run.
type Result struct {
	Selected     int      `json:"selected"`
	Merged       int      `json:"merged"`
	Skipped      int      `json:"skipped"`
	Stills       int      `json:"stills"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	FinalPath    string   `json:"final_path"`
	VideoPath    string   `json:"video_path,omitempty"`
	VideoError   string   `json:"video_error,omitempty"`
	Notices      []string `json:"notices,omitempty"`
	Options      Options  `json:"options"`
	SequencePlan `json:"plan"`
}

// Processor runs the star-trail merge over a selection.
type Processor struct {
	Decoder  Decoder
	Renderer *Renderer
	Writer   StillWriter // defaults to Renderer
	Video    VideoAssembler
	Log      *slog.Logger
	Observer func(Event)
}

// Process merges the selection in order. Every failure except video assembly is
// fatal; a failed encoder is reported in Result.VideoError.
func (p *Processor) Process(ctx context.Context, selection []string, opts Options) (Result, error) {
	if len(selection) == 0 {
		return Result{}, ErrEmptySelection
	}
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	opts, notices, err := opts.Normalize()
	if err != nil {
		return Result{}, err
	}
	for _, n := range notices {
		log.Warn(n)
	}

	writer := p.Writer
	if writer == nil {
		writer = p.Renderer
	}
	dec := p.Decoder
	if dec == nil {
		dec = NativeDecoder{}
	}

	n := len(selection)
	plan := PlanSequence(n, opts)
	res := Result{Selected: n, Notices: notices, Options: opts, SequencePlan: plan}
	var stack Stack

	// The timelapse walks the selection backwards and saves raw frames.
	for k := 0; k < plan.Timelapse.Len; k++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := selection[n-1-k]
		log.Info("processing timelapse image", "index", k, "total", n, "path", path)
		frame, err := dec.Decode(path)
		if err != nil {
			return res, err
		}
		if k == 0 {
			res.Width, res.Height = frame.Width, frame.Height
		}
		if err := checkSize(path, frame, res); err != nil {
			return res, err
		}
		label := SequenceLabel(plan.Timelapse.Start + k)
		out, err := writer.SaveStill(frame, label)
		if err != nil {
			return res, err
		}
		res.Stills++
		p.emit(Event{Phase: PhaseTimelapse, Index: k, Total: n, Path: path, Still: out})
	}

	for i, path := range selection {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log.Info("processing image", "index", i, "total", n, "path", path)
		if !opts.Included(i) {
			log.Debug("skipping image", "index", i, "skip", opts.Skip)
			res.Skipped++
			p.emit(Event{Phase: PhaseSkip, Index: i, Total: n, Path: path})
			continue
		}
		frame, err := dec.Decode(path)
		if err != nil {
			return res, err
		}
		if res.Width == 0 {
			res.Width, res.Height = frame.Width, frame.Height
		}
		if err := checkSize(path, frame, res); err != nil {
			return res, err
		}
		if err := stack.Add(path, frame); err != nil {
			return res, err
		}
		res.Merged++

		var out string
		if opts.KeepIntermediate {
			out, err = writer.SaveStill(stack.Frame(), SequenceLabel(plan.TrailIndex(i)))
			if err != nil {
				return res, err
			}
			res.Stills++
		}
		p.emit(Event{Phase: PhaseTrail, Index: i, Total: n, Path: path, Still: out})
	}

	final, err := writer.SaveStill(stack.Frame(), FinalLabel)
	if err != nil {
		return res, err
	}
	res.FinalPath = final
	log.Info("saved final image", "path", final, "merged", res.Merged, "skipped", res.Skipped)

	if opts.SaveVideo {
		log.Info("generating static hold for the video", "frames", plan.Hold.Len)
		for k := 0; k < plan.Hold.Len; k++ {
			out, err := writer.SaveStill(stack.Frame(), SequenceLabel(plan.Hold.Start+k))
			if err != nil {
				return res, err
			}
			res.Stills++
			p.emit(Event{Phase: PhaseHold, Index: k, Total: plan.Hold.Len, Still: out})
		}
		p.assemble(ctx, log, &res)
	}

	p.emit(Event{Phase: PhaseDone, Index: n, Total: n, Still: final})
	return res, nil
}

// assemble runs the encoder and downgrades any failure to a warning.
func (p *Processor) assemble(ctx context.Context, log *slog.Logger, res *Result) {
	if p.Video == nil || p.Renderer == nil {
		res.VideoError = "no video encoder configured"
		log.Warn("video requested but no encoder is configured")
		return
	}
	output := p.Renderer.VideoPath()
	p.emit(Event{Phase: PhaseVideo, Path: output})
	if err := p.Video.AssembleVideo(ctx, p.Renderer.SequencePattern(), output); err != nil {
		res.VideoError = err.Error()
		log.Warn("an error occurred while saving the video, stills are kept", "error", err)
		return
	}
	res.VideoPath = output
	log.Info("video saved", "path", output)
}

func (p *Processor) emit(ev Event) {
	if p.Observer != nil {
		p.Observer(ev)
	}
}

func checkSize(path string, f *Frame, res Result) error {
	if f.Width != res.Width || f.Height != res.Height {
		return &DimensionMismatchError{
			Path:     path,
			Expected: image.Pt(res.Width, res.Height),
			Got:      f.Size(),
		}
	}
	return nil
}

package trails

import "fmt"

// HoldFrames is the number of copies of the final still appended before encoding:
// three seconds at 30 frames per second.
const HoldFrames = 90

// Options control what a run writes besides the final still.
type Options struct {
	Skip             int  `json:"skip,omitempty"` // keep only positions where i%Skip == 0; 0 keeps all
	KeepIntermediate bool `json:"keep_intermediate,omitempty"`
	KeepTimelapse    bool `json:"keep_timelapse,omitempty"` // only honoured together with KeepIntermediate
	SaveVideo        bool `json:"save_video,omitempty"`
}

// Normalize returns the options actually used for a run together with notices
// describing every flag that was derived or ignored.
func (o Options) Normalize() (Options, []string, error) {
	if o.Skip < 0 {
		return o, nil, fmt.Errorf("skip must be >= 0, got %d", o.Skip)
	}
	var notices []string
	if o.SaveVideo && !o.KeepIntermediate {
		o.KeepIntermediate = true
		notices = append(notices, "save-video needs every intermediate still, enabling keep-intermediate")
	}
	if o.KeepTimelapse && !o.KeepIntermediate {
		o.KeepTimelapse = false
		notices = append(notices, "keep-timelapse has no effect without keep-intermediate")
	}
	return o, notices, nil
}

// Range is a half-open span [Start, Start+Len) of sequence indices.
type Range struct {
	Start int `json:"start"`
	Len   int `json:"len"`
}

// End is the first index after the range.
func (r Range) End() int { return r.Start + r.Len }

// SequencePlan assigns sequence indices to the three producers of numbered stills.
// The timelapse preamble comes first, the trail continues right after it and the
// static hold follows the trail. Trail indices follow the original position of a
// frame in the selection, so skipped frames leave gaps.
type SequencePlan struct {
	Timelapse Range `json:"timelapse"`
	Trail     Range `json:"trail"`
	Hold      Range `json:"hold"`
}

// PlanSequence builds the plan for n selected frames and normalised options.
func PlanSequence(n int, o Options) SequencePlan {
	var p SequencePlan
	if o.KeepTimelapse && o.KeepIntermediate {
		p.Timelapse = Range{Start: 0, Len: n}
	}
	p.Trail = Range{Start: p.Timelapse.End(), Len: n}
	if o.SaveVideo {
		p.Hold = Range{Start: p.Trail.End(), Len: HoldFrames}
	}
	return p
}

// TrailIndex is the sequence index of the frame at selection position i.
func (p SequencePlan) TrailIndex(i int) int { return p.Trail.Start + i }

// Included reports whether selection position i contributes to the trail.
func (o Options) Included(i int) bool {
	return o.Skip == 0 || i%o.Skip == 0
}

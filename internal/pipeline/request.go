package pipeline

import (
	"fmt"
	"math/rand"
	"time"

	"startrails/internal/config"
	"startrails/internal/trails"
)

// Request is the user-facing description of a run shared by the CLI, HTTP and gRPC
// front ends. Zero values fall back to the configured trail defaults.
type Request struct {
	Paths            []string `json:"paths"`
	Extensions       []string `json:"extensions,omitempty"`
	Skip             int      `json:"skip,omitempty"`
	KeepIntermediate bool     `json:"keep_intermediate,omitempty"`
	KeepTimelapse    bool     `json:"keep_timelapse,omitempty"`
	SaveVideo        bool     `json:"save_video,omitempty"`
	Reverse          bool     `json:"reverse,omitempty"`
	MaxImages        int      `json:"max_images,omitempty"`
	Output           string   `json:"output,omitempty"`
	Prefix           string   `json:"prefix,omitempty"`
	Format           string   `json:"format,omitempty"`
	Quality          int      `json:"quality,omitempty"`
	Order            string   `json:"order,omitempty"` // name (default) or capture
}

// Validate rejects requests that can never produce a run.
func (r Request) Validate() error {
	if len(r.Paths) == 0 {
		return fmt.Errorf("at least one input path is required")
	}
	if r.Skip < 0 {
		return fmt.Errorf("skip must be >= 0, got %d", r.Skip)
	}
	if r.MaxImages < 0 {
		return fmt.Errorf("max images must be >= 0, got %d", r.MaxImages)
	}
	switch r.Order {
	case "", OrderName, OrderCapture:
	default:
		return fmt.Errorf("unknown order %q (want %s or %s)", r.Order, OrderName, OrderCapture)
	}
	return nil
}

// Job resolves the request against defaults.
func (r Request) Job(id string, defaults config.Trails) Job {
	exts := r.Extensions
	if len(exts) == 0 {
		exts = defaults.Extensions
	}
	output := firstNonEmpty(r.Output, defaults.OutputDir)
	prefix := firstNonEmpty(r.Prefix, defaults.OutputPrefix, trails.DefaultPrefix)
	quality := r.Quality
	if quality == 0 {
		quality = defaults.Quality
	}
	return Job{
		ID: id,
		Select: trails.SelectOptions{
			Paths:      r.Paths,
			Extensions: exts,
			Reverse:    r.Reverse,
			MaxCount:   r.MaxImages,
		},
		Options: trails.Options{
			Skip:             r.Skip,
			KeepIntermediate: r.KeepIntermediate,
			KeepTimelapse:    r.KeepTimelapse,
			SaveVideo:        r.SaveVideo,
		},
		OutputDir: output,
		Prefix:    prefix,
		Format:    firstNonEmpty(r.Format, defaults.Format),
		Quality:   quality,
		Order:     firstNonEmpty(r.Order, OrderName),
	}
}

// NewID returns a sortable run identifier.
func NewID(prefix string) string {
	ts := time.Now().UTC().Format("20060102T150405")
	return fmt.Sprintf("%s-%s-%04d", prefix, ts, rand.Intn(10000))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

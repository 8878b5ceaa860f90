package trails

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// FinalLabel names the terminal merged still. It is not part of the numbered sequence.
const FinalLabel = "final"

// SequenceLabel formats a sequence index the way the video encoder expects.
func SequenceLabel(i int) string {
	return fmt.Sprintf("%05d", i)
}

// DefaultPrefix names output files when no prefix is given.
const DefaultPrefix = "trails"

// Renderer writes frames as still images named {Prefix}_{label}.{ext} under Dir.
type Renderer struct {
	Dir     string
	Prefix  string
	Format  string // jpg, png or tiff
	Quality int    // jpeg only
}

// Prepare normalises the format and creates the output directory.
func (r *Renderer) Prepare() error {
	switch strings.ToLower(r.Format) {
	case "", "jpg", "jpeg":
		r.Format = "jpg"
	case "png":
		r.Format = "png"
	case "tif", "tiff":
		r.Format = "tiff"
	default:
		return fmt.Errorf("unsupported output format %q", r.Format)
	}
	if r.Quality <= 0 || r.Quality > 100 {
		r.Quality = 95
	}
	if r.Prefix == "" {
		r.Prefix = DefaultPrefix
	}
	if r.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return &FilesystemError{Op: "getwd", Path: ".", Err: err}
		}
		r.Dir = wd
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return &FilesystemError{Op: "mkdir", Path: r.Dir, Err: err}
	}
	return nil
}

// Ext returns the file extension (without dot) of written stills.
func (r *Renderer) Ext() string {
	if r.Format == "" {
		return "jpg"
	}
	return r.Format
}

// Path returns where the still with the given label is written.
func (r *Renderer) Path(label string) string {
	return filepath.Join(r.Dir, fmt.Sprintf("%s_%s.%s", r.Prefix, label, r.Ext()))
}

// SequencePattern is the printf-style input pattern of the numbered stills.
func (r *Renderer) SequencePattern() string {
	return filepath.Join(r.Dir, fmt.Sprintf("%s_%%05d.%s", r.Prefix, r.Ext()))
}

// VideoPath is where the assembled video goes.
func (r *Renderer) VideoPath() string {
	return filepath.Join(r.Dir, r.Prefix+"_"+FinalLabel+".mp4")
}

// SaveStill rounds the frame to 8 bits per channel and writes it.
func (r *Renderer) SaveStill(f *Frame, label string) (string, error) {
	path := r.Path(label)
	out, err := os.Create(path)
	if err != nil {
		return "", &FilesystemError{Op: "create", Path: path, Err: err}
	}
	if err := r.encode(out, f.ToRGBA()); err != nil {
		out.Close()
		return "", &FilesystemError{Op: "encode", Path: path, Err: err}
	}
	if err := out.Close(); err != nil {
		return "", &FilesystemError{Op: "close", Path: path, Err: err}
	}
	return path, nil
}

func (r *Renderer) encode(w io.Writer, img image.Image) error {
	switch r.Ext() {
	case "png":
		return png.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		q := r.Quality
		if q <= 0 {
			q = 95
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	}
}

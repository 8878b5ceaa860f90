// Package magick decodes frames through ImageMagick so camera RAW files and other
// formats without a Go codec can join a star trail.
package magick

import (
	"fmt"
	"strings"
	"sync"

	"gopkg.in/gographics/imagick.v3/imagick"

	"startrails/internal/fsutil"
	"startrails/internal/trails"
)

var (
	initOnce    sync.Once
	initialized bool
)

// Decoder reads any file ImageMagick understands.
type Decoder struct{}

// NewDecoder initialises the ImageMagick environment once per process.
func NewDecoder() *Decoder {
	initOnce.Do(func() {
		imagick.Initialize()
		initialized = true
	})
	return &Decoder{}
}

// Decode exports the image as RGB floats and rescales them to 0..255.
func (d *Decoder) Decode(path string) (*trails.Frame, error) {
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImage(path); err != nil {
		return nil, &trails.DecodeError{Path: path, Err: err}
	}

	width := mw.GetImageWidth()
	height := mw.GetImageHeight()
	pixels, err := mw.ExportImagePixels(0, 0, width, height, "RGB", imagick.PIXEL_FLOAT)
	if err != nil {
		return nil, &trails.DecodeError{Path: path, Err: fmt.Errorf("export pixels: %w", err)}
	}

	frame := trails.NewFrame(int(width), int(height))
	switch v := pixels.(type) {
	case []float32:
		if len(v) != len(frame.Pix) {
			return nil, &trails.DecodeError{Path: path, Err: fmt.Errorf("exported %d values for %dx%d", len(v), width, height)}
		}
		for i, val := range v {
			frame.Pix[i] = val * 255
		}
	case []float64:
		if len(v) != len(frame.Pix) {
			return nil, &trails.DecodeError{Path: path, Err: fmt.Errorf("exported %d values for %dx%d", len(v), width, height)}
		}
		for i, val := range v {
			frame.Pix[i] = float32(val * 255)
		}
	default:
		return nil, &trails.DecodeError{Path: path, Err: fmt.Errorf("unexpected pixel type %T", pixels)}
	}
	return frame, nil
}

// Terminate releases ImageMagick resources if they were ever acquired. Call once
// on shutdown.
func Terminate() {
	if initialized {
		imagick.Terminate()
	}
}

// ForMode returns the decoder for a decoder.mode setting. "auto" routes camera RAW
// extensions through ImageMagick and everything else through the Go codecs.
func ForMode(mode string) (trails.Decoder, error) {
	switch strings.ToLower(mode) {
	case "native":
		return trails.NativeDecoder{}, nil
	case "imagick", "imagemagick":
		return NewDecoder(), nil
	case "", "auto":
		raw := NewDecoder()
		routes := make(map[string]trails.Decoder)
		for _, ext := range fsutil.RAWExtensions() {
			routes[ext] = raw
		}
		return trails.RoutingDecoder{Routes: routes, Fallback: trails.NativeDecoder{}}, nil
	default:
		return nil, fmt.Errorf("unknown decoder mode %q (want auto, native or imagick)", mode)
	}
}

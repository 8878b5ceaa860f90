package trails

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder turns a file into a Frame.
type Decoder interface {
	Decode(path string) (*Frame, error)
}

// NativeDecoder decodes with the registered Go image codecs
// (jpeg, png, gif, bmp, tiff, webp).
type NativeDecoder struct{}

func (NativeDecoder) Decode(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return FrameFromImage(img), nil
}

// DecodeSize reads only the header of path. It returns false when no native codec
// understands the file.
func DecodeSize(path string) (image.Point, bool) {
	f, err := os.Open(path)
	if err != nil {
		return image.Point{}, false
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, false
	}
	return image.Pt(cfg.Width, cfg.Height), true
}

// RoutingDecoder picks a decoder by lower-case file extension (with dot)
// and falls back to Fallback for everything else.
type RoutingDecoder struct {
	Routes   map[string]Decoder
	Fallback Decoder
}

func (d RoutingDecoder) Decode(path string) (*Frame, error) {
	if dec, ok := d.Routes[strings.ToLower(filepath.Ext(path))]; ok {
		return dec.Decode(path)
	}
	return d.Fallback.Decode(path)
}

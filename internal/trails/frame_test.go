package trails

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestSaveStillRoundTrip(t *testing.T) {
	for _, format := range []string{"png", "tiff"} {
		t.Run(format, func(t *testing.T) {
			r := &Renderer{Dir: t.TempDir(), Prefix: "rt", Format: format}
			if err := r.Prepare(); err != nil {
				t.Fatalf("prepare: %v", err)
			}
			f := NewFrame(2, 1)
			f.Set(0, 0, 10.4, 10.5, 254.6)
			f.Set(1, 0, 0, 128.49, 300)

			path, err := r.SaveStill(f, SequenceLabel(7))
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if filepath.Base(path) != "rt_00007."+r.Ext() {
				t.Fatalf("unexpected still name %s", path)
			}
			back, err := NativeDecoder{}.Decode(path)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			want := []float32{10, 11, 255, 0, 128, 255}
			for i, v := range want {
				if back.Pix[i] != v {
					t.Fatalf("channel %d: expected %v, got %v", i, v, back.Pix[i])
				}
			}
		})
	}
}

func TestRendererNames(t *testing.T) {
	r := &Renderer{Dir: "/out", Prefix: "night"}
	if got := r.Path(FinalLabel); got != filepath.Join("/out", "night_final.jpg") {
		t.Fatalf("unexpected final path %s", got)
	}
	if got := r.SequencePattern(); got != filepath.Join("/out", "night_%05d.jpg") {
		t.Fatalf("unexpected pattern %s", got)
	}
	if got := r.VideoPath(); got != filepath.Join("/out", "night_final.mp4") {
		t.Fatalf("unexpected video path %s", got)
	}
}

func TestRendererRejectsUnknownFormat(t *testing.T) {
	r := &Renderer{Dir: t.TempDir(), Prefix: "x", Format: "gif"}
	if err := r.Prepare(); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestFrameFromImageScales16Bit(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA64{R: 0xffff, G: 0x8080, B: 0, A: 0xffff})
	f := FrameFromImage(img)
	r, g, b := f.At(0, 0)
	if r != 255 || g != 128 || b != 0 {
		t.Fatalf("unexpected channels %v %v %v", r, g, b)
	}
}

func TestFrameFromImageHonoursBoundsOffset(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 7, 6))
	img.Set(6, 5, color.RGBA{1, 2, 3, 255})
	f := FrameFromImage(img)
	if f.Width != 2 || f.Height != 1 {
		t.Fatalf("unexpected size %dx%d", f.Width, f.Height)
	}
	r, g, b := f.At(1, 0)
	if r != 1 || g != 2 || b != 3 {
		t.Fatalf("unexpected channels %v %v %v", r, g, b)
	}
}

func TestStackRejectsMismatch(t *testing.T) {
	var s Stack
	if err := s.Add("a", NewFrame(2, 2)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := s.Add("b", NewFrame(2, 3)); err == nil {
		t.Fatalf("expected dimension mismatch")
	}
	if s.Count() != 1 {
		t.Fatalf("expected one merged frame, got %d", s.Count())
	}
}

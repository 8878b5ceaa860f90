package trails

import (
	"image"
	"image/color"
	"math"
)

// Frame is an RGB raster with channel values on a 0..255 scale.
// Pix holds R,G,B triples row by row.
type Frame struct {
	Width  int
	Height int
	Pix    []float32
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Pix: make([]float32, width*height*3)}
}

// Size returns the frame dimensions as a point.
func (f *Frame) Size() image.Point {
	return image.Pt(f.Width, f.Height)
}

// At returns the three channel values of pixel (x, y).
func (f *Frame) At(x, y int) (r, g, b float32) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set stores the channel values of pixel (x, y).
func (f *Frame) Set(x, y int, r, g, b float32) {
	i := (y*f.Width + x) * 3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := &Frame{Width: f.Width, Height: f.Height, Pix: make([]float32, len(f.Pix))}
	copy(c.Pix, f.Pix)
	return c
}

// FrameFromImage converts a decoded image. 8-bit sources keep their exact values,
// 16-bit sources are scaled by 1/257.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.YCbCr:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				yi := src.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := src.COffset(b.Min.X+x, b.Min.Y+y)
				r, g, bl := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				f.Set(x, y, float32(r), float32(g), float32(bl))
			}
		}
	case *image.RGBA:
		fromRGBA8(f, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
	case *image.NRGBA:
		fromRGBA8(f, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
	default:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				f.Set(x, y, float32(c.R)/257, float32(c.G)/257, float32(c.B)/257)
			}
		}
	}
	return f
}

// fromRGBA8 copies the colour channels of a 4-byte-per-pixel buffer, ignoring alpha.
func fromRGBA8(f *Frame, pix []uint8, stride, offset int) {
	for y := 0; y < f.Height; y++ {
		row := pix[offset+y*stride:]
		for x := 0; x < f.Width; x++ {
			p := row[x*4:]
			f.Set(x, y, float32(p[0]), float32(p[1]), float32(p[2]))
		}
	}
}

// ToRGBA rounds every channel to the nearest integer and clamps it to 8 bits.
func (f *Frame) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, n := 0, f.Width*f.Height; i < n; i++ {
		img.Pix[i*4] = to8(f.Pix[i*3])
		img.Pix[i*4+1] = to8(f.Pix[i*3+1])
		img.Pix[i*4+2] = to8(f.Pix[i*3+2])
		img.Pix[i*4+3] = 0xff
	}
	return img
}

func to8(v float32) uint8 {
	r := math.Round(float64(v))
	switch {
	case r <= 0:
		return 0
	case r >= 255:
		return 255
	}
	return uint8(r)
}

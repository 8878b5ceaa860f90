package trails

import (
	"errors"
	"fmt"
	"image"
)

// ErrEmptySelection is returned when no input frame survives selection.
var ErrEmptySelection = errors.New("no images selected")

// DecodeError reports a source file that could not be read as an image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DimensionMismatchError reports a frame whose raster differs from the first frame of the run.
type DimensionMismatchError struct {
	Path     string
	Expected image.Point
	Got      image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s is %dx%d, expected %dx%d like the first frame",
		e.Path, e.Got.X, e.Got.Y, e.Expected.X, e.Expected.Y)
}

// FilesystemError wraps failures creating the output directory or writing a still.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

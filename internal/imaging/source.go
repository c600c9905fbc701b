package imaging

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidInput is returned by FromValue for anything that is neither a path nor an image.
var ErrInvalidInput = errors.New("invalid input type")

// Source is where a Handle gets its pixels from: a Path or a Buffer.
type Source interface {
	isSource()
}

// Path is an image file to decode. Color selects 3-channel color over
// 1-channel grayscale.
type Path struct {
	Name  string
	Color bool
}

// Buffer wraps an already decoded image. The pixels are not copied.
type Buffer struct {
	Image image.Image
}

func (Path) isSource()   {}
func (Buffer) isSource() {}

// FromValue builds a Handle from a string path, an image.Image or a Source.
func FromValue(v any, color bool, opts ...Option) (*Handle, error) {
	switch src := v.(type) {
	case string:
		return New(Path{Name: src, Color: color}, opts...), nil
	case image.Image:
		return New(Buffer{Image: src}, opts...), nil
	case Source:
		return New(src, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidInput, v)
	}
}

// Package imaging loads, displays and resizes a single image.
//
// Decoding understands PNG, JPEG, GIF, BMP, TIFF and WebP. Display happens in
// a terminal viewer rather than a desktop window.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/Dicklesworthstone/diveboard/internal/utils"
	"github.com/charmbracelet/log"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNoImage is returned by operations on a handle whose load failed.
	ErrNoImage = errors.New("no image loaded")
	// ErrInvalidDims is returned by Resize for non-positive dimensions.
	ErrInvalidDims = errors.New("invalid dimensions")
	// ErrUnsupportedFormat is returned by Save for unknown extensions.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Dims is a target size, height first.
type Dims struct {
	Height int
	Width  int
}

// Handle owns one pixel buffer: *image.Gray for one channel, *image.RGBA
// (opaque) for three, or whatever a Buffer source supplied.
type Handle struct {
	img    image.Image
	origin string
	err    error

	logger *log.Logger
	in     io.Reader
	out    io.Writer
	opts   []Option
}

// Option configures a Handle.
type Option func(*Handle)

// WithLogger sets the logger used to report load and display failures.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handle) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithViewerIO redirects the viewer's keyboard input and screen output.
// Without it the viewer uses the controlling terminal.
func WithViewerIO(in io.Reader, out io.Writer) Option {
	return func(h *Handle) {
		h.in = in
		h.out = out
	}
}

// New creates a handle from src. A Path is decoded immediately; a decode
// failure is logged and leaves the handle empty (see Err).
func New(src Source, opts ...Option) *Handle {
	h := &Handle{opts: opts}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = utils.WithPrefix("image")
	}

	switch s := src.(type) {
	case Path:
		h.origin = s.Name
		img, err := load(s)
		if err != nil {
			h.err = err
			h.logger.Error("image load failed", "path", s.Name, "err", err)
			return h
		}
		h.img = img
	case Buffer:
		h.origin = "buffer"
		if isNilImage(s.Image) {
			h.err = ErrNoImage
			return h
		}
		h.img = s.Image
	default:
		h.err = fmt.Errorf("%w: %T", ErrInvalidInput, src)
	}
	return h
}

// isNilImage also catches a typed nil such as (*image.RGBA)(nil).
func isNilImage(img image.Image) bool {
	if img == nil {
		return true
	}
	v := reflect.ValueOf(img)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func load(p Path) (image.Image, error) {
	f, err := os.Open(p.Name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.Name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.Name, err)
	}
	if p.Color {
		return toColor(img), nil
	}
	return toGray(img), nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	xdraw.Draw(gray, b, img, b.Min, xdraw.Src)
	return gray
}

// toColor drops alpha: color channels are kept as stored, not composited.
func toColor(img image.Image) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			rgba.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return rgba
}

// Err returns the load error, if any.
func (h *Handle) Err() error {
	return h.err
}

// Loaded reports whether the handle holds pixels.
func (h *Handle) Loaded() bool {
	return h.img != nil
}

// Image returns the pixel buffer, or nil.
func (h *Handle) Image() image.Image {
	return h.img
}

// Origin is the source path, or "buffer".
func (h *Handle) Origin() string {
	return h.origin
}

// Bounds returns the image bounds, or the empty rectangle.
func (h *Handle) Bounds() image.Rectangle {
	if h.img == nil {
		return image.Rectangle{}
	}
	return h.img.Bounds()
}

// Channels returns 1 for grayscale buffers, 3 for everything else and 0
// when nothing is loaded.
func (h *Handle) Channels() int {
	switch h.img.(type) {
	case nil:
		return 0
	case *image.Gray, *image.Gray16:
		return 1
	default:
		return 3
	}
}

// Resize returns a new handle holding the image scaled to dims with
// bilinear interpolation. The channel count is preserved.
func (h *Handle) Resize(dims Dims) (*Handle, error) {
	if h.img == nil {
		return nil, ErrNoImage
	}
	if dims.Height <= 0 || dims.Width <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDims, dims.Height, dims.Width)
	}

	rect := image.Rect(0, 0, dims.Width, dims.Height)
	var dst xdraw.Image
	if h.Channels() == 1 {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	xdraw.BiLinear.Scale(dst, rect, h.img, h.img.Bounds(), xdraw.Src, nil)

	return New(Buffer{Image: dst}, h.opts...), nil
}

// Save encodes the image to path; the format follows the extension
// (.png, .jpg/.jpeg, .bmp, .tif/.tiff).
func (h *Handle) Save(path string) error {
	if h.img == nil {
		return ErrNoImage
	}

	var encode func(io.Writer, image.Image) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = png.Encode
	case ".jpg", ".jpeg":
		encode = func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
		}
	case ".bmp":
		encode = bmp.Encode
	case ".tif", ".tiff":
		encode = func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, nil)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encode(f, h.img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

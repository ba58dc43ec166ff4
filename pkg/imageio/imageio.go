// Package imageio moves planes between files and memory.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

// ErrUnsupported is returned for files whose extension is not an image type
// this package handles.
var ErrUnsupported = errors.New("unsupported image format")

// Mode selects how decoded images are laid out.
type Mode int

const (
	// Colour loads three channels in R, G, B order.
	Colour Mode = iota
	// Grey loads one luminance channel.
	Grey
)

// Load decodes the image at path, applying any EXIF orientation.
func Load(path string, mode Mode) (plane.Plane, error) {
	if !Supported(path) {
		return plane.Plane{}, fmt.Errorf("load %s: %w", path, ErrUnsupported)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return plane.Plane{}, fmt.Errorf("load %s: %w", path, err)
	}
	return FromImage(img, mode), nil
}

// FromImage converts img to a plane. Alpha is discarded.
func FromImage(img image.Image, mode Mode) plane.Plane {
	if mode == Grey {
		img = imaging.Grayscale(img)
	}
	src := imaging.Clone(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if mode == Grey {
		p := plane.New(h, w, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p.Pix[y*w+x] = src.Pix[src.PixOffset(x+b.Min.X, y+b.Min.Y)]
			}
		}
		return p
	}
	p := plane.New(h, w, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(x+b.Min.X, y+b.Min.Y)
			copy(p.Pix[p.Offset(x, y, 0):p.Offset(x, y, 0)+3], src.Pix[i:i+3])
		}
	}
	return p
}

// ToImage converts p to an opaque image.
func ToImage(p plane.Plane) image.Image {
	if p.C == 1 {
		g := image.NewGray(image.Rect(0, 0, p.W, p.H))
		copy(g.Pix, p.Pix)
		return g
	}
	out := image.NewNRGBA(image.Rect(0, 0, p.W, p.H))
	for i, j := 0, 0; i < len(p.Pix); i, j = i+p.C, j+4 {
		out.Pix[j+0] = p.Pix[i+0]
		out.Pix[j+1] = p.Pix[i+1]
		out.Pix[j+2] = p.Pix[i+2]
		out.Pix[j+3] = 0xff
	}
	return out
}

// Save encodes p to path, choosing the format from the extension and
// creating parent directories as needed.
func Save(path string, p plane.Plane) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("save %s: %w", path, ErrUnsupported)
	}
	if err := imaging.Save(ToImage(p), path, imaging.JPEGQuality(92)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

var extensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// Supported reports whether path has an image extension Load understands.
func Supported(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// SourceKind tells where a Source's pixels come from.
type SourceKind int

const (
	FromFile SourceKind = iota
	FromMemory
)

// Source is an image input: a file to decode or a plane already in memory.
type Source struct {
	Kind  SourceKind
	Path  string
	Plane plane.Plane
}

// FromPath returns a source that decodes path.
func FromPath(path string) Source {
	return Source{Kind: FromFile, Path: path}
}

// FromPlane returns a source for pixels already in memory. name is used for
// logging and output naming.
func FromPlane(name string, p plane.Plane) Source {
	return Source{Kind: FromMemory, Path: name, Plane: p}
}

// Open returns the source's pixels in the requested mode.
func (s Source) Open(mode Mode) (plane.Plane, error) {
	switch s.Kind {
	case FromFile:
		return Load(s.Path, mode)
	case FromMemory:
		if mode == Grey && s.Plane.C == 3 {
			return FromImage(ToImage(s.Plane), Grey), nil
		}
		return s.Plane, nil
	}
	return plane.Plane{}, fmt.Errorf("unknown source kind %d", s.Kind)
}

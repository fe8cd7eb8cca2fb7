package imaging

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/plate-locator/internal/plate"
)

// Annotate returns a copy of img with every accepted cluster drawn on top.
//
// Each member's normalized display rectangle is outlined one pixel wide in
// the cluster's colour, and the cluster's 1-based number is written above
// its first member. The source image is not modified.
func Annotate(img image.Image, clusters []plate.Cluster) *image.NRGBA {
	out := imaging.Clone(img)

	for i, c := range clusters {
		col := clusterColor(c.Color)
		for _, m := range c.Members {
			drawRect(out, m.Display, col)
		}
		if len(c.Members) > 0 {
			first := c.Members[0].Display
			drawLabel(out, first.X, first.Y-2, strconv.Itoa(i+1), col)
		}
	}
	return out
}

// clusterColor parses a "#rrggbb" cluster colour, falling back to green.
func clusterColor(hex string) color.NRGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{G: 255, A: 255}
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// drawRect outlines r on img, clipped to the image bounds. The outline runs
// along the outermost pixels inside r.
func drawRect(img *image.NRGBA, r plate.Rect, c color.NRGBA) {
	x1, y1 := r.X, r.Y
	x2, y2 := r.MaxX()-1, r.MaxY()-1
	for x := x1; x <= x2; x++ {
		setClipped(img, x, y1, c)
		setClipped(img, x, y2, c)
	}
	for y := y1; y <= y2; y++ {
		setClipped(img, x1, y, c)
		setClipped(img, x2, y, c)
	}
}

func setClipped(img *image.NRGBA, x, y int, c color.NRGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}

// drawLabel writes text with its baseline at (x, y).
func drawLabel(img *image.NRGBA, x, y int, text string, c color.NRGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// outputFormat picks the encoder for an output path. Extensions the imaging
// package does not know map onto their family (.jpe is JPEG, .dib is BMP);
// anything else is written as PNG.
func outputFormat(path string) imaging.Format {
	if f, err := imaging.FormatFromFilename(path); err == nil {
		return f
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpe":
		return imaging.JPEG
	case ".dib":
		return imaging.BMP
	default:
		return imaging.PNG
	}
}

// Save encodes img to path, choosing the format from the extension.
func Save(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := imaging.Encode(f, img, outputFormat(path), imaging.JPEGQuality(95)); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

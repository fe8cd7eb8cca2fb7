package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/plate-locator/internal/plate"
)

// CropResult contains a cropped plate region encoded as base64 PNG.
type CropResult struct {
	// Region is the cropped area in source image coordinates.
	Region      plate.Rect `json:"region"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	ImageBase64 string     `json:"image_base64"`
	MimeType    string     `json:"mime_type"`
}

// ClusterBounds returns the smallest rectangle enclosing the measured boxes
// of all members, grown by pad pixels on every side. pad must not be
// negative.
func ClusterBounds(c plate.Cluster, pad int) (plate.Rect, error) {
	if len(c.Members) == 0 {
		return plate.Rect{}, fmt.Errorf("cluster has no members")
	}
	if pad < 0 {
		return plate.Rect{}, fmt.Errorf("padding must not be negative, got %d", pad)
	}
	first := c.Members[0].Rect
	x1, y1, x2, y2 := first.X, first.Y, first.MaxX(), first.MaxY()
	for _, m := range c.Members[1:] {
		x1 = minInt(x1, m.Rect.X)
		y1 = minInt(y1, m.Rect.Y)
		x2 = maxInt(x2, m.Rect.MaxX())
		y2 = maxInt(y2, m.Rect.MaxY())
	}
	return plate.Rect{
		X:      x1 - pad,
		Y:      y1 - pad,
		Width:  x2 - x1 + 2*pad,
		Height: y2 - y1 + 2*pad,
	}, nil
}

// CropCluster extracts the region covered by a cluster, padded by pad pixels
// and clipped to the image, optionally rescaled by scale.
func CropCluster(img image.Image, c plate.Cluster, pad int, scale float64) (*CropResult, error) {
	r, err := ClusterBounds(c, pad)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	rect := image.Rect(r.X, r.Y, r.MaxX(), r.MaxY()).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("cluster region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.X, r.Y, r.MaxX(), r.MaxY(), bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}

	cropped := imaging.Crop(img, rect)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Region: plate.Rect{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
		},
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

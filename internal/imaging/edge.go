package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// EdgeParams controls the edge map the outline tracer runs on.
type EdgeParams struct {
	// BlurRadius is the Gaussian blur radius; 2 gives a 5x5 kernel.
	BlurRadius float64 `yaml:"blur_radius" json:"blur_radius"`

	// SharpenCenter is the center weight of the 3x3 high-pass kernel whose
	// four direct neighbours are -1.
	SharpenCenter float64 `yaml:"sharpen_center" json:"sharpen_center"`

	// ThresholdLow and ThresholdHigh are the Canny hysteresis thresholds on
	// the Sobel gradient magnitude of 8-bit luminance.
	ThresholdLow  float64 `yaml:"threshold_low" json:"threshold_low"`
	ThresholdHigh float64 `yaml:"threshold_high" json:"threshold_high"`
}

// DefaultEdgeParams returns the parameters the clustering thresholds were
// tuned against.
func DefaultEdgeParams() EdgeParams {
	return EdgeParams{
		BlurRadius:    2,
		SharpenCenter: 6,
		ThresholdLow:  200,
		ThresholdHigh: 255,
	}
}

// Validate rejects parameters that cannot produce an edge map.
func (p EdgeParams) Validate() error {
	if p.BlurRadius < 0 {
		return fmt.Errorf("blur_radius must not be negative, got %v", p.BlurRadius)
	}
	if p.ThresholdLow < 0 || p.ThresholdHigh < 0 {
		return fmt.Errorf("canny thresholds must not be negative, got %v/%v", p.ThresholdLow, p.ThresholdHigh)
	}
	if p.ThresholdLow > p.ThresholdHigh {
		return fmt.Errorf("threshold_low %v exceeds threshold_high %v", p.ThresholdLow, p.ThresholdHigh)
	}
	return nil
}

// EdgeMap turns an image into a binary edge map: 255 on edges, 0 elsewhere.
// The result's bounds start at (0, 0).
//
// # Algorithm
//
//  1. Gaussian blur with p.BlurRadius to suppress sensor noise
//  2. High-pass sharpening with the kernel
//     [0 -1 0; -1 c -1; 0 -1 0], c = p.SharpenCenter, clamped to 8 bits
//  3. Luminance conversion
//  4. Canny: Sobel gradients, L2 magnitude, non-maximum suppression and
//     hysteresis between p.ThresholdLow and p.ThresholdHigh
func EdgeMap(img image.Image, p EdgeParams) *image.Gray {
	smoothed := blur.Gaussian(img, p.BlurRadius)

	k := convolution.NewKernel(3, 3)
	copy(k.Matrix, []float64{
		0, -1, 0,
		-1, p.SharpenCenter, -1,
		0, -1, 0,
	})
	sharpened := convolution.Convolve(smoothed, k, &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true})

	return Canny(toGray(effect.Grayscale(sharpened)), p.ThresholdLow, p.ThresholdHigh)
}

// toGray copies an image into an 8-bit gray image with bounds starting at
// (0, 0).
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Canny runs Canny edge detection on a grayscale image.
//
// Gradients are computed with 3x3 Sobel operators on 8-bit values and the
// L2 magnitude sqrt(Gx² + Gy²). A pixel survives non-maximum suppression when
// its magnitude is larger than the neighbour before it and not smaller than
// the one after it along the quantized gradient direction, so plateaus thin
// to one pixel. Pixels at or above high seed edges; pixels at or above
// low are kept when 8-connected to a seed. Border pixels are never edges.
func Canny(gray *image.Gray, low, high float64) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return result
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[y*gray.Stride+x])
	}

	magnitude := make([]float64, width*height)
	direction := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 2*at(x+1, y) -
				at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			i := y*width + x
			magnitude[i] = math.Hypot(gx, gy)
			direction[i] = quantizeDirection(gx, gy)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag < low {
				continue
			}
			var n1, n2 float64
			switch direction[i] {
			case 0: // horizontal gradient, compare left/right
				n1, n2 = magnitude[i-1], magnitude[i+1]
			case 1: // 45°: up-right / down-left
				n1, n2 = magnitude[i-width+1], magnitude[i+width-1]
			case 2: // vertical gradient, compare up/down
				n1, n2 = magnitude[i-width], magnitude[i+width]
			default: // 135°: up-left / down-right
				n1, n2 = magnitude[i-width-1], magnitude[i+width+1]
			}
			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis: grow from strong pixels through weak ones.
	stack := make([]int, 0, 1024)
	for i, v := range suppressed {
		if v >= high && result.Pix[i] == 0 {
			result.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jx, jy := j%width, j/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := jx+dx, jy+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					if result.Pix[n] == 0 && suppressed[n] >= low && suppressed[n] > 0 {
						result.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}

	return result
}

// quantizeDirection maps a gradient to one of four directions:
// 0 = 0°, 1 = 45°, 2 = 90°, 3 = 135°, with y pointing down.
func quantizeDirection(gx, gy float64) uint8 {
	angle := math.Atan2(-gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return 0
	case angle < 67.5:
		return 1
	case angle < 112.5:
		return 2
	default:
		return 3
	}
}

// EdgeMapResult is an edge map encoded for transport.
type EdgeMapResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	EdgePixels  int    `json:"edge_pixels"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeEdgeMap PNG-encodes an edge map as base64.
func EncodeEdgeMap(edges *image.Gray) (*EdgeMapResult, error) {
	count := 0
	for _, v := range edges.Pix {
		if v != 0 {
			count++
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, edges); err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeMapResult{
		Width:       edges.Bounds().Dx(),
		Height:      edges.Bounds().Dy(),
		EdgePixels:  count,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// IsEdge reports whether the edge map has an edge at (x, y).
func IsEdge(edges *image.Gray, x, y int) bool {
	return edges.GrayAt(x, y) != color.Gray{}
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

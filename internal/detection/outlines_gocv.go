//go:build gocv

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/plate-locator/internal/imaging"
	"github.com/ironsheep/plate-locator/internal/plate"
)

func init() {
	register("gocv", func() Extractor { return &GocvExtractor{} })
}

// GocvEdgeMap computes an edge map with OpenCV: Gaussian blur with a
// (2r+1)x(2r+1) kernel, the 3x3 sharpening kernel, grayscale conversion and
// Canny. It is the OpenCV counterpart of imaging.EdgeMap.
func GocvEdgeMap(img image.Image, p imaging.EdgeParams) (*image.Gray, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	if k := 2*int(p.BlurRadius) + 1; k > 1 {
		gocv.GaussianBlur(src, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	} else {
		src.CopyTo(&blurred)
	}

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for i, v := range []float32{0, -1, 0, -1, float32(p.SharpenCenter), -1, 0, -1, 0} {
		kernel.SetFloatAt(i/3, i%3, v)
	}
	sharpened := gocv.NewMat()
	defer sharpened.Close()
	gocv.Filter2D(blurred, &sharpened, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(sharpened, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	// L1 gradient magnitude; imaging.Canny uses L2
	gocv.Canny(gray, &edges, float32(p.ThresholdLow), float32(p.ThresholdHigh))

	out, err := edges.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert edge map: %w", err)
	}
	g, ok := out.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected edge map type %T", out)
	}
	return g, nil
}

// GocvExtractor traces outlines with OpenCV's findContours in tree retrieval
// mode, so its discovery order and hierarchy match OpenCV's exactly.
type GocvExtractor struct{}

// EdgeMap implements EdgeMapper.
func (g *GocvExtractor) EdgeMap(img image.Image, p imaging.EdgeParams) (*image.Gray, error) {
	return GocvEdgeMap(img, p)
}

// Extract implements Extractor.
func (g *GocvExtractor) Extract(edges *image.Gray) ([]plate.Outline, error) {
	if edges == nil {
		return nil, fmt.Errorf("nil edge map")
	}

	src, err := gocv.ImageGrayToMatGray(edges)
	if err != nil {
		return nil, fmt.Errorf("failed to convert edge map: %w", err)
	}
	defer src.Close()

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	contours := gocv.FindContoursWithParams(src, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	min := edges.Bounds().Min
	outlines := make([]plate.Outline, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))

		parent := plate.NoParent
		if !hierarchy.Empty() {
			// [next, previous, first child, parent]
			if p := int(hierarchy.GetVeciAt(0, i)[3]); p >= 0 {
				parent = p
			}
		}

		outlines[i] = plate.Outline{
			ID: i,
			Rect: plate.Rect{
				X:      r.Min.X + min.X,
				Y:      r.Min.Y + min.Y,
				Width:  r.Dx(),
				Height: r.Dy(),
			},
			Parent: parent,
		}
	}
	return outlines, nil
}

package detection

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/ironsheep/plate-locator/internal/imaging"
	"github.com/ironsheep/plate-locator/internal/plate"
)

// Extractor traces the closed outlines of a binary edge map.
//
// Implementations return every outline with its bounding rectangle and the ID
// of its immediately enclosing outline. IDs are the positions in the returned
// slice, and the order must be stable for a given edge map.
type Extractor interface {
	Extract(edges *image.Gray) ([]plate.Outline, error)
}

// EdgeMapper is implemented by extractors that build their own edge map from
// the decoded image instead of using imaging.EdgeMap.
type EdgeMapper interface {
	EdgeMap(img image.Image, p imaging.EdgeParams) (*image.Gray, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Extractor{
		"trace": func() Extractor { return NewTracer() },
	}
)

// register makes an extractor available under name. Build-tagged backends
// call it from init.
func register(name string, factory func() Extractor) {
	registryMu.Lock()
	registry[name] = factory
	registryMu.Unlock()
}

// NewExtractor returns the extractor registered under name. "trace" is always
// available; "gocv" only in binaries built with the gocv tag.
func NewExtractor(name string) (Extractor, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown outline extractor %q (available: %v)", name, Extractors())
	}
	return factory(), nil
}

// Extractors lists the registered extractor names in sorted order.
func Extractors() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// neighbours lists the 8-neighbourhood as (dy, dx) in counterclockwise order
// starting east, with y pointing down.
var neighbours = [8][2]int{
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
}

func neighbourIndex(dy, dx int) int {
	for i, n := range neighbours {
		if n[0] == dy && n[1] == dx {
			return i
		}
	}
	return -1
}

// Tracer is the pure-Go Extractor. It follows every border of the edge map,
// both outer borders and hole borders, with the topological border following
// of Suzuki and Abe (1985) and reports the nesting tree it builds on the way.
//
// Outlines are numbered in the order their starting pixel is met by a
// row-major raster scan.
type Tracer struct{}

// NewTracer returns a Tracer.
func NewTracer() *Tracer {
	return &Tracer{}
}

// border is one traced border, indexed by its sequential border number.
type border struct {
	hole   bool
	parent int
	minX   int
	minY   int
	maxX   int
	maxY   int
}

func (b *border) extend(x, y int) {
	b.minX = minInt(b.minX, x)
	b.minY = minInt(b.minY, y)
	b.maxX = maxInt(b.maxX, x)
	b.maxY = maxInt(b.maxY, y)
}

// Extract implements Extractor. Any non-zero pixel is foreground.
func (t *Tracer) Extract(edges *image.Gray) ([]plate.Outline, error) {
	if edges == nil {
		return nil, fmt.Errorf("nil edge map")
	}
	bounds := edges.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Pad by one zero pixel on every side so neighbour lookups never leave
	// the grid.
	stride := w + 2
	f := make([]int32, stride*(h+2))
	for y := 0; y < h; y++ {
		row := edges.Pix[y*edges.Stride : y*edges.Stride+w]
		for x, v := range row {
			if v != 0 {
				f[(y+1)*stride+x+1] = 1
			}
		}
	}

	// Border 1 is the frame, a hole border without a parent.
	borders := []border{{}, {hole: true, parent: 0}}

	for i := 1; i <= h; i++ {
		lnbd := int32(1)
		for j := 1; j <= w; j++ {
			p := i*stride + j
			v := f[p]
			if v == 0 {
				continue
			}

			var hole bool
			var fromY, fromX int
			switch {
			case v == 1 && f[p-1] == 0:
				hole, fromY, fromX = false, i, j-1
			case v >= 1 && f[p+1] == 0:
				hole, fromY, fromX = true, i, j+1
				if v > 1 {
					lnbd = v
				}
			default:
				if v != 1 {
					lnbd = abs32(v)
				}
				continue
			}

			nbd := int32(len(borders))
			b := border{hole: hole, minX: j, minY: i, maxX: j, maxY: i}
			prev := borders[lnbd]
			if hole == prev.hole {
				b.parent = prev.parent
			} else {
				b.parent = int(lnbd)
			}
			follow(f, stride, i, j, fromY, fromX, nbd, &b)
			borders = append(borders, b)

			if fv := f[p]; fv != 1 {
				lnbd = abs32(fv)
			}
		}
	}

	outlines := make([]plate.Outline, 0, len(borders)-2)
	for n := 2; n < len(borders); n++ {
		b := borders[n]
		parent := plate.NoParent
		if b.parent >= 2 {
			parent = b.parent - 2
		}
		outlines = append(outlines, plate.Outline{
			ID: n - 2,
			Rect: plate.Rect{
				X:      b.minX - 1 + bounds.Min.X,
				Y:      b.minY - 1 + bounds.Min.Y,
				Width:  b.maxX - b.minX + 1,
				Height: b.maxY - b.minY + 1,
			},
			Parent: parent,
		})
	}
	return outlines, nil
}

// follow traces the border that starts at (i, j) and was entered from the
// zero pixel (fromY, fromX), labelling its pixels with nbd in f.
func follow(f []int32, stride, i, j, fromY, fromX int, nbd int32, b *border) {
	at := func(y, x int) int32 { return f[y*stride+x] }

	// Look clockwise around the start for the first foreground neighbour.
	d0 := neighbourIndex(fromY-i, fromX-j)
	first := -1
	for k := 0; k < 8; k++ {
		d := (d0 - k + 8) % 8
		if at(i+neighbours[d][0], j+neighbours[d][1]) != 0 {
			first = d
			break
		}
	}
	if first < 0 {
		// isolated pixel
		f[i*stride+j] = -nbd
		return
	}

	i1, j1 := i+neighbours[first][0], j+neighbours[first][1]
	i2, j2 := i1, j1
	i3, j3 := i, j
	for {
		// Look counterclockwise around (i3, j3), starting after (i2, j2).
		d := neighbourIndex(i2-i3, j2-j3)
		eastZero := false
		i4, j4 := i2, j2
		for k := 1; k <= 8; k++ {
			dd := (d + k) % 8
			ny, nx := i3+neighbours[dd][0], j3+neighbours[dd][1]
			if at(ny, nx) != 0 {
				i4, j4 = ny, nx
				break
			}
			if dd == 0 {
				eastZero = true
			}
		}

		p3 := i3*stride + j3
		if eastZero {
			f[p3] = -nbd
		} else if f[p3] == 1 {
			f[p3] = nbd
		}
		b.extend(j3, i3)

		if i4 == i && j4 == j && i3 == i1 && j3 == j1 {
			return
		}
		i2, j2 = i3, j3
		i3, j3 = i4, j4
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
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

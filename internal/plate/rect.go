package plate

import "math"

// NoParent marks an outline that is not enclosed by any other outline.
const NoParent = -1

// Rect is an axis-aligned rectangle in pixel units.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Area returns Width × Height.
func (r Rect) Area() int {
	return r.Width * r.Height
}

// Aspect returns Width / Height, or 0 for a rectangle without height.
func (r Rect) Aspect() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// MaxX returns the exclusive right edge.
func (r Rect) MaxX() int {
	return r.X + r.Width
}

// MaxY returns the exclusive bottom edge.
func (r Rect) MaxY() int {
	return r.Y + r.Height
}

// NormalizedCenterX returns the left edge the rectangle would have if it kept
// its horizontal center but had the canonical character width
// Height × charAspect.
//
// Partial strokes make measured glyph widths noisy; comparing this value
// instead of X keeps horizontal alignment independent of that noise.
func (r Rect) NormalizedCenterX(charAspect float64) float64 {
	return float64(r.X) + float64(r.Width)/2 - float64(r.Height)*charAspect/2
}

// Normalize redraws r at the canonical character width Height × charAspect,
// centered on the same vertical stroke center.
//
// The width is rounded to whole pixels and the left edge is derived from the
// rounded width, so Normalize(Normalize(r)) == Normalize(r).
func Normalize(r Rect, charAspect float64) Rect {
	w := int(math.Round(float64(r.Height) * charAspect))
	center := float64(r.X) + float64(r.Width)/2
	return Rect{
		X:      int(math.Round(center - float64(w)/2)),
		Y:      r.Y,
		Width:  w,
		Height: r.Height,
	}
}

// Outline is a traced closed shape: its bounding rectangle and a back
// reference to the immediately enclosing outline.
type Outline struct {
	// ID is the outline's discovery index. IDs are unique within one image.
	ID int `json:"id"`

	// Rect is the bounding rectangle of the outline's points.
	Rect Rect `json:"rect"`

	// Parent is the ID of the enclosing outline, or NoParent.
	Parent int `json:"parent"`
}

// HasParent reports whether the outline is nested inside another outline.
func (o Outline) HasParent() bool {
	return o.Parent != NoParent
}

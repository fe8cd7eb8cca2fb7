package detection

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/ironsheep/plate-locator/internal/plate"
)

// createEdgeMap returns an all-zero edge map of the given size.
func createEdgeMap(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

// drawRing draws a one-pixel rectangle outline from (x1,y1) to (x2,y2)
// inclusive.
func drawRing(img *image.Gray, x1, y1, x2, y2 int) {
	for x := x1; x <= x2; x++ {
		img.SetGray(x, y1, color.Gray{255})
		img.SetGray(x, y2, color.Gray{255})
	}
	for y := y1; y <= y2; y++ {
		img.SetGray(x1, y, color.Gray{255})
		img.SetGray(x2, y, color.Gray{255})
	}
}

// fillBlock sets every pixel from (x1,y1) to (x2,y2) inclusive.
func fillBlock(img *image.Gray, x1, y1, x2, y2 int) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			img.SetGray(x, y, color.Gray{255})
		}
	}
}

func contains(outer, inner plate.Rect) bool {
	return inner.X >= outer.X && inner.Y >= outer.Y &&
		inner.MaxX() <= outer.MaxX() && inner.MaxY() <= outer.MaxY()
}

func TestTracer_EmptyMap(t *testing.T) {
	outlines, err := NewTracer().Extract(createEdgeMap(30, 30))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(outlines) != 0 {
		t.Errorf("expected no outlines, got %d", len(outlines))
	}
}

func TestTracer_NilMap(t *testing.T) {
	if _, err := NewTracer().Extract(nil); err == nil {
		t.Error("expected error for nil edge map")
	}
}

func TestTracer_FilledBlock(t *testing.T) {
	edges := createEdgeMap(20, 20)
	fillBlock(edges, 4, 6, 9, 13)

	outlines, err := NewTracer().Extract(edges)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(outlines) != 1 {
		t.Fatalf("outlines: got %d, want 1", len(outlines))
	}

	want := plate.Outline{ID: 0, Rect: plate.Rect{X: 4, Y: 6, Width: 6, Height: 8}, Parent: plate.NoParent}
	if outlines[0] != want {
		t.Errorf("outline: got %+v, want %+v", outlines[0], want)
	}
}

func TestTracer_SinglePixel(t *testing.T) {
	edges := createEdgeMap(10, 10)
	edges.SetGray(3, 7, color.Gray{255})

	outlines, err := NewTracer().Extract(edges)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(outlines) != 1 {
		t.Fatalf("outlines: got %d, want 1", len(outlines))
	}
	want := plate.Rect{X: 3, Y: 7, Width: 1, Height: 1}
	if outlines[0].Rect != want {
		t.Errorf("rect: got %+v, want %+v", outlines[0].Rect, want)
	}
}

func TestTracer_RingHasHole(t *testing.T) {
	edges := createEdgeMap(20, 20)
	drawRing(edges, 5, 5, 14, 14)

	outlines, err := NewTracer().Extract(edges)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(outlines) != 2 {
		t.Fatalf("outlines: got %d, want 2", len(outlines))
	}

	outer, hole := outlines[0], outlines[1]
	if want := (plate.Rect{X: 5, Y: 5, Width: 10, Height: 10}); outer.Rect != want {
		t.Errorf("outer rect: got %+v, want %+v", outer.Rect, want)
	}
	if outer.HasParent() {
		t.Errorf("outer border should be top-level, parent %d", outer.Parent)
	}
	if hole.Parent != outer.ID {
		t.Errorf("hole parent: got %d, want %d", hole.Parent, outer.ID)
	}
	if !contains(outer.Rect, hole.Rect) {
		t.Errorf("hole %+v not inside outer %+v", hole.Rect, outer.Rect)
	}
}

func TestTracer_NestedRings(t *testing.T) {
	edges := createEdgeMap(24, 24)
	drawRing(edges, 2, 2, 17, 17)
	drawRing(edges, 6, 6, 13, 13)

	outlines, err := NewTracer().Extract(edges)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(outlines) != 4 {
		t.Fatalf("outlines: got %d, want 4", len(outlines))
	}

	var inner *plate.Outline
	for i := range outlines {
		if outlines[i].Rect == (plate.Rect{X: 6, Y: 6, Width: 8, Height: 8}) && outlines[i].ID == 2 {
			inner = &outlines[i]
		}
	}
	if inner == nil {
		t.Fatalf("inner ring's outer border not found as outline 2: %+v", outlines)
	}

	// inner outer border -> outer ring's hole -> outer ring
	if inner.Parent != 1 {
		t.Errorf("inner ring parent: got %d, want 1", inner.Parent)
	}
	if outlines[1].Parent != 0 {
		t.Errorf("outer hole parent: got %d, want 0", outlines[1].Parent)
	}
	if outlines[0].HasParent() {
		t.Errorf("outermost border should be top-level")
	}
	if outlines[3].Parent != 2 {
		t.Errorf("inner hole parent: got %d, want 2", outlines[3].Parent)
	}
}

func TestTracer_RasterOrder(t *testing.T) {
	edges := createEdgeMap(40, 20)
	fillBlock(edges, 25, 2, 28, 6)
	fillBlock(edges, 3, 8, 6, 12)
	fillBlock(edges, 12, 8, 15, 12)

	outlines, err := NewTracer().Extract(edges)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	got := make([]int, len(outlines))
	for i, o := range outlines {
		got[i] = o.Rect.X
	}
	want := []int{25, 3, 12}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("discovery order by x: got %v, want %v", got, want)
	}
}

func TestTracer_Deterministic(t *testing.T) {
	edges := createEdgeMap(40, 40)
	drawRing(edges, 1, 1, 30, 30)
	fillBlock(edges, 5, 5, 9, 12)
	drawRing(edges, 12, 4, 20, 20)

	first, err := NewTracer().Extract(edges)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	second, err := NewTracer().Extract(edges)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same edge map differ")
	}
	for i, o := range first {
		if o.ID != i {
			t.Errorf("outline %d has ID %d", i, o.ID)
		}
		if o.HasParent() && (o.Parent < 0 || o.Parent >= len(first)) {
			t.Errorf("outline %d has dangling parent %d", i, o.Parent)
		}
	}
}

func TestTracer_OffsetBounds(t *testing.T) {
	edges := image.NewGray(image.Rect(10, 20, 30, 40))
	for y := 25; y <= 28; y++ {
		for x := 14; x <= 16; x++ {
			edges.SetGray(x, y, color.Gray{255})
		}
	}

	outlines, err := NewTracer().Extract(edges)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(outlines) != 1 {
		t.Fatalf("outlines: got %d, want 1", len(outlines))
	}
	want := plate.Rect{X: 14, Y: 25, Width: 3, Height: 4}
	if outlines[0].Rect != want {
		t.Errorf("rect: got %+v, want %+v", outlines[0].Rect, want)
	}
}

func TestNewExtractor(t *testing.T) {
	ex, err := NewExtractor("trace")
	if err != nil {
		t.Fatalf("NewExtractor(trace) failed: %v", err)
	}
	if _, ok := ex.(*Tracer); !ok {
		t.Errorf("trace extractor: got %T, want *Tracer", ex)
	}

	if _, err := NewExtractor("does-not-exist"); err == nil {
		t.Error("expected error for unknown extractor")
	}

	found := false
	for _, name := range Extractors() {
		if name == "trace" {
			found = true
		}
	}
	if !found {
		t.Errorf("Extractors() = %v, missing trace", Extractors())
	}
}

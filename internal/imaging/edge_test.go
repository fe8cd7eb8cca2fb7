package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createStepImage returns a gray image that is left for x < split and right
// otherwise.
func createStepImage(width, height, split int, left, right uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := right
			if x < split {
				v = left
			}
			img.SetGray(x, y, color.Gray{v})
		}
	}
	return img
}

func countEdges(edges *image.Gray) int {
	n := 0
	for _, v := range edges.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

func TestEdgeParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *EdgeParams)
		wantErr bool
	}{
		{"defaults", func(p *EdgeParams) {}, false},
		{"no blur", func(p *EdgeParams) { p.BlurRadius = 0 }, false},
		{"negative blur", func(p *EdgeParams) { p.BlurRadius = -1 }, true},
		{"negative threshold", func(p *EdgeParams) { p.ThresholdLow = -5 }, true},
		{"inverted thresholds", func(p *EdgeParams) { p.ThresholdLow = 300 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultEdgeParams()
			tt.mutate(&p)
			if err := p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEdgeMap_UniformImage(t *testing.T) {
	edges := EdgeMap(createInMemoryImage(50, 40, color.RGBA{128, 128, 128, 255}), DefaultEdgeParams())

	if edges.Bounds() != image.Rect(0, 0, 50, 40) {
		t.Errorf("bounds: got %v, want 50x40 at origin", edges.Bounds())
	}
	if n := countEdges(edges); n != 0 {
		t.Errorf("uniform image should have no edges, got %d", n)
	}
}

func TestEdgeMap_StrongEdge(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	edges := EdgeMap(img, DefaultEdgeParams())

	edgeFound := false
	for x := 46; x <= 54; x++ {
		if IsEdge(edges, x, 50) {
			edgeFound = true
		}
	}
	if !edgeFound {
		t.Error("strong vertical edge was not detected")
	}
	for x := 0; x < 40; x++ {
		if IsEdge(edges, x, 50) {
			t.Errorf("unexpected edge at x=%d in the flat region", x)
		}
	}
}

func TestEdgeMap_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 110, 80))
	for y := 20; y < 80; y++ {
		for x := 10; x < 110; x++ {
			if x < 60 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	edges := EdgeMap(img, DefaultEdgeParams())
	if edges.Bounds() != image.Rect(0, 0, 100, 60) {
		t.Fatalf("bounds: got %v, want origin-based 100x60", edges.Bounds())
	}
	found := false
	for x := 45; x <= 55; x++ {
		if IsEdge(edges, x, 30) {
			found = true
		}
	}
	if !found {
		t.Error("edge not found near column 50 of the result")
	}
}

func TestToGray(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 8, 7))
	img.Set(5, 5, color.RGBA{200, 200, 200, 255})
	img.Set(7, 6, color.RGBA{0, 0, 0, 255})
	img.Set(6, 5, color.RGBA{255, 255, 255, 255})

	gray := toGray(img)
	if gray.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds: got %v, want 3x2 at origin", gray.Bounds())
	}
	tests := []struct {
		x, y int
		want uint8
	}{
		{0, 0, 200},
		{1, 0, 255},
		{2, 1, 0},
	}
	for _, tt := range tests {
		if got := gray.GrayAt(tt.x, tt.y).Y; got != tt.want {
			t.Errorf("gray at (%d,%d): got %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCanny_PlateauThinned(t *testing.T) {
	// ramp 0, 85, 170, 255: columns 20 and 21 share magnitude 680
	ramp := map[int]uint8{20: 85, 21: 170}
	img := image.NewGray(image.Rect(0, 0, 40, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 40; x++ {
			v, ok := ramp[x]
			switch {
			case ok:
			case x > 21:
				v = 255
			}
			img.SetGray(x, y, color.Gray{v})
		}
	}

	edges := Canny(img, 100, 600)
	for y := 1; y < 9; y++ {
		for x := 0; x < 40; x++ {
			want := x == 20
			if got := IsEdge(edges, x, y); got != want {
				t.Errorf("edge at (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestEdgeMap_SmallImage(t *testing.T) {
	edges := EdgeMap(createInMemoryImage(2, 2, color.White), DefaultEdgeParams())
	if edges.Bounds().Dx() != 2 || edges.Bounds().Dy() != 2 {
		t.Errorf("dimensions: got %v, want 2x2", edges.Bounds())
	}
	if countEdges(edges) != 0 {
		t.Error("tiny image should have no edges")
	}
}

func TestCanny_Step(t *testing.T) {
	edges := Canny(createStepImage(100, 20, 50, 0, 255), 200, 255)

	for y := 1; y < 19; y++ {
		for x := 0; x < 100; x++ {
			want := x == 49
			if got := IsEdge(edges, x, y); got != want {
				t.Errorf("edge at (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
	for x := 0; x < 100; x++ {
		if IsEdge(edges, x, 0) || IsEdge(edges, x, 19) {
			t.Errorf("border pixel at x=%d marked as edge", x)
		}
	}
}

func TestCanny_Hysteresis(t *testing.T) {
	// magnitude 4*50 = 200: between the thresholds, no strong seed
	weak := createStepImage(60, 30, 30, 0, 50)
	if n := countEdges(Canny(weak, 150, 300)); n != 0 {
		t.Errorf("weak edge without a strong seed: got %d edge pixels, want 0", n)
	}

	// upper half strong (magnitude 400), lower half weak
	mixed := createStepImage(60, 30, 30, 0, 50)
	for y := 0; y < 15; y++ {
		for x := 30; x < 60; x++ {
			mixed.SetGray(x, y, color.Gray{100})
		}
	}
	edges := Canny(mixed, 150, 300)
	for y := 18; y < 29; y++ {
		if !IsEdge(edges, 29, y) && !IsEdge(edges, 30, y) {
			t.Errorf("weak edge at row %d not kept although connected to a strong one", y)
		}
	}
}

func TestCanny_Offset(t *testing.T) {
	step := createStepImage(40, 20, 20, 0, 255)
	sub := step.SubImage(image.Rect(10, 5, 30, 15)).(*image.Gray)

	edges := Canny(sub, 200, 255)
	if edges.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Fatalf("bounds: got %v, want origin-based 20x10", edges.Bounds())
	}
	if !IsEdge(edges, 9, 5) || IsEdge(edges, 10, 5) {
		t.Error("step should map to column 9 of the result only")
	}
}

func TestEncodeEdgeMap(t *testing.T) {
	edges := Canny(createStepImage(30, 10, 15, 0, 255), 200, 255)

	result, err := EncodeEdgeMap(edges)
	if err != nil {
		t.Fatalf("EncodeEdgeMap failed: %v", err)
	}
	if result.Width != 30 || result.Height != 10 {
		t.Errorf("dimensions: got %dx%d, want 30x10", result.Width, result.Height)
	}
	if result.EdgePixels != countEdges(edges) || result.EdgePixels != 8 {
		t.Errorf("EdgePixels: got %d, want 8", result.EdgePixels)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	decoded, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(decoded))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	if img.Bounds().Dx() != 30 {
		t.Errorf("decoded width: got %d, want 30", img.Bounds().Dx())
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},   // within range
		{-1, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}

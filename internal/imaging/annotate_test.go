package imaging

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/ironsheep/plate-locator/internal/plate"
)

func TestAnnotate(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	img := createInMemoryImage(120, 80, white)
	r := plate.Rect{X: 30, Y: 30, Width: 10, Height: 20}
	c := testCluster(r)
	c.Color = "#ff0000"

	out := Annotate(img, []plate.Cluster{c})

	if out.Bounds() != img.Bounds() {
		t.Fatalf("bounds: got %v, want %v", out.Bounds(), img.Bounds())
	}

	red := color.NRGBA{255, 0, 0, 255}
	border := []struct{ x, y int }{
		{30, 49}, {39, 49}, {35, 49}, // bottom edge
		{30, 40}, {39, 40}, // sides
	}
	for _, p := range border {
		if got := out.NRGBAAt(p.x, p.y); got != red {
			t.Errorf("border pixel (%d,%d): got %v, want %v", p.x, p.y, got, red)
		}
	}

	inside := []struct{ x, y int }{{35, 40}, {40, 40}, {35, 50}}
	for _, p := range inside {
		if got := out.NRGBAAt(p.x, p.y); got != (color.NRGBA{255, 255, 255, 255}) {
			t.Errorf("pixel (%d,%d) should be untouched, got %v", p.x, p.y, got)
		}
	}

	if img.RGBAAt(30, 49) != white {
		t.Error("Annotate modified the source image")
	}
}

func TestAnnotate_Clipped(t *testing.T) {
	img := createInMemoryImage(20, 20, color.White)
	c := testCluster(plate.Rect{X: -5, Y: 10, Width: 40, Height: 30})

	out := Annotate(img, []plate.Cluster{c})
	if got := out.NRGBAAt(10, 10); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("clipped top edge: got %v", got)
	}
}

func TestClusterColor(t *testing.T) {
	tests := []struct {
		hex  string
		want color.NRGBA
	}{
		{"#ff0000", color.NRGBA{255, 0, 0, 255}},
		{"#00ff80", color.NRGBA{0, 255, 128, 255}},
		{"not a colour", color.NRGBA{0, 255, 0, 255}},
		{"", color.NRGBA{0, 255, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			if got := clusterColor(tt.hex); got != tt.want {
				t.Errorf("clusterColor(%q) = %v, want %v", tt.hex, got, tt.want)
			}
		})
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"car.png", "PNG"},
		{"car.jpg", "JPEG"},
		{"car.JPEG", "JPEG"},
		{"car.jpe", "JPEG"},
		{"car.bmp", "BMP"},
		{"car.dib", "BMP"},
		{"car.tiff", "TIFF"},
		{"car.pgm", "PNG"},
		{"car", "PNG"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := outputFormat(tt.path).String(); got != tt.want {
				t.Errorf("outputFormat(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := createInMemoryImage(40, 30, color.RGBA{10, 200, 30, 255})

	for _, name := range []string{"out.png", "out.jpg", "out.bmp"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(img, path); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			loaded, err := Open(path)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if loaded.Bounds().Dx() != 40 || loaded.Bounds().Dy() != 30 {
				t.Errorf("dimensions: got %v, want 40x30", loaded.Bounds())
			}
		})
	}

	if err := Save(img, filepath.Join(dir, "missing", "out.png")); err == nil {
		t.Error("expected error for missing directory")
	}
}

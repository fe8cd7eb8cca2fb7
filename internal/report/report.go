// Package report writes the results of a batch run.
//
// The text report (output.txt) has one block per processed image: the file
// name on its own line, followed by one "x_min y_min x_max y_max" line per
// member of every accepted cluster, clusters in acceptance order and members
// in append order. Coordinates are the raw bounding box of the outline, with
// exclusive maxima.
//
// The YAML summary carries the same boxes plus cluster colours, image sizes
// and per-file errors for downstream tooling.
package report

import (
	"bufio"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/plate-locator/internal/plate"
)

// Box is a bounding box as [x_min, y_min, x_max, y_max].
type Box [4]int

// BoxOf converts a rectangle to a Box.
func BoxOf(r plate.Rect) Box {
	return Box{r.X, r.Y, r.MaxX(), r.MaxY()}
}

// Writer writes the text report. It is not safe for concurrent use.
type Writer struct {
	w     *bufio.Writer
	files int
	chars int
}

// NewWriter returns a Writer buffering into w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends the block for one image and returns the number of boxes
// written.
func (w *Writer) Write(file string, clusters []plate.Cluster) (int, error) {
	if _, err := fmt.Fprintln(w.w, file); err != nil {
		return 0, err
	}
	n := 0
	for _, c := range clusters {
		for _, m := range c.Members {
			b := BoxOf(m.Rect)
			if _, err := fmt.Fprintf(w.w, "%d %d %d %d\n", b[0], b[1], b[2], b[3]); err != nil {
				return n, err
			}
			n++
		}
	}
	w.files++
	w.chars += n
	return n, nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Files returns the number of image blocks written.
func (w *Writer) Files() int { return w.files }

// Characters returns the total number of boxes written.
func (w *Writer) Characters() int { return w.chars }

// ClusterSummary is one accepted cluster in the YAML summary.
type ClusterSummary struct {
	Color string `yaml:"color"`
	Boxes []Box  `yaml:"boxes,flow"`
}

// ImageSummary is the YAML summary of one input file.
type ImageSummary struct {
	File       string           `yaml:"file"`
	Width      int              `yaml:"width,omitempty"`
	Height     int              `yaml:"height,omitempty"`
	Outlines   int              `yaml:"outlines"`
	Candidates int              `yaml:"candidates"`
	Characters int              `yaml:"characters"`
	Clusters   []ClusterSummary `yaml:"clusters,omitempty"`
	Error      string           `yaml:"error,omitempty"`
}

// Summary is the YAML summary of a batch run.
type Summary struct {
	Input      string         `yaml:"input"`
	Output     string         `yaml:"output"`
	Images     []ImageSummary `yaml:"images"`
	Characters int            `yaml:"characters"`
	Failed     int            `yaml:"failed"`
}

// Summarize builds the summary of one analysed image.
func Summarize(file string, width, height int, res *plate.Result) ImageSummary {
	s := ImageSummary{File: file, Width: width, Height: height}
	if res == nil {
		return s
	}
	s.Outlines = res.Outlines
	s.Candidates = res.Candidates
	s.Characters = res.CharacterCount()
	for _, c := range res.Clusters {
		cs := ClusterSummary{Color: c.Color, Boxes: make([]Box, len(c.Members))}
		for i, m := range c.Members {
			cs.Boxes[i] = BoxOf(m.Rect)
		}
		s.Clusters = append(s.Clusters, cs)
	}
	return s
}

// Add appends an image and updates the totals.
func (s *Summary) Add(img ImageSummary) {
	s.Images = append(s.Images, img)
	s.Characters += img.Characters
	if img.Error != "" {
		s.Failed++
	}
}

// WriteYAML encodes the summary to w.
func WriteYAML(w io.Writer, s *Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}

// ReadYAML decodes a summary written by WriteYAML.
func ReadYAML(r io.Reader) (*Summary, error) {
	var s Summary
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &s, nil
}

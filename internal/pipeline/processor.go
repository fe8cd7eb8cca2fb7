// Package pipeline runs the plate locator over images and folders.
//
// A Processor handles one decoded image: edge map, outline extraction and
// the clustering pass. A Batch drives a Processor over every supported file
// in a folder with bounded concurrency and writes the text report, the
// annotated images and, optionally, the YAML summary.
package pipeline

import (
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/plate-locator/internal/config"
	"github.com/ironsheep/plate-locator/internal/detection"
	"github.com/ironsheep/plate-locator/internal/imaging"
	"github.com/ironsheep/plate-locator/internal/plate"
)

// Analysis holds every intermediate product of one pass.
type Analysis struct {
	Edges    *image.Gray
	Outlines []plate.Outline
	Result   *plate.Result
}

// Processor locates character clusters in single images. It holds no mutable
// state and is safe for concurrent use.
type Processor struct {
	cfg       plate.Config
	edge      imaging.EdgeParams
	extractor detection.Extractor
	debug     bool
}

// NewProcessor validates the settings and resolves the outline extractor.
func NewProcessor(s *config.Settings) (*Processor, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	ex, err := detection.NewExtractor(s.Extractor)
	if err != nil {
		return nil, err
	}
	return &Processor{
		cfg:       s.Plate,
		edge:      s.Edge,
		extractor: ex,
		debug:     s.Debug(),
	}, nil
}

// Config returns the clustering thresholds in use.
func (p *Processor) Config() plate.Config {
	return p.cfg
}

// EdgeMap computes the edge map the outlines are traced on. Extractors that
// implement detection.EdgeMapper build it themselves; if that fails the
// pure-Go edge map is used.
func (p *Processor) EdgeMap(img image.Image) *image.Gray {
	if m, ok := p.extractor.(detection.EdgeMapper); ok {
		edges, err := m.EdgeMap(img, p.edge)
		if err == nil {
			return edges
		}
		log.Printf("Extractor edge map failed, using built-in: %v", err)
	}
	return imaging.EdgeMap(img, p.edge)
}

// Outlines computes the edge map of img and traces its outlines.
func (p *Processor) Outlines(img image.Image) (*image.Gray, []plate.Outline, error) {
	edges := p.EdgeMap(img)
	outlines, err := p.extractor.Extract(edges)
	if err != nil {
		return nil, nil, fmt.Errorf("outline extraction failed: %w", err)
	}
	return edges, outlines, nil
}

// Analyze runs the full pass over one image.
func (p *Processor) Analyze(img image.Image) (*Analysis, error) {
	edges, outlines, err := p.Outlines(img)
	if err != nil {
		return nil, err
	}
	res, err := plate.Analyze(outlines, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %w", err)
	}
	if p.debug {
		log.Printf("%d outlines, %d candidates, %d groups, %d clusters",
			res.Outlines, res.Candidates, res.Groups, len(res.Clusters))
	}
	return &Analysis{Edges: edges, Outlines: outlines, Result: res}, nil
}

// Outcome is the processed form of one input file.
type Outcome struct {
	Path      string
	Width     int
	Height    int
	Result    *plate.Result
	Annotated *image.NRGBA
}

// Process decodes the file at path, analyses it and draws the accepted
// clusters onto a copy. Decode failures are returned as *imaging.DecodeError.
func (p *Processor) Process(path string) (*Outcome, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := p.Analyze(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b := img.Bounds()
	return &Outcome{
		Path:      path,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Result:    a.Result,
		Annotated: imaging.Annotate(img, a.Result.Clusters),
	}, nil
}

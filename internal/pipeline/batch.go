package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/plate-locator/internal/config"
	"github.com/ironsheep/plate-locator/internal/imaging"
	"github.com/ironsheep/plate-locator/internal/report"
)

const (
	// ReportFile is the text report written into the output folder.
	ReportFile = "output.txt"

	// SummaryFile is the optional YAML summary written next to it.
	SummaryFile = "summary.yaml"
)

// Batch processes every supported image of a folder.
type Batch struct {
	proc    *Processor
	workers int
	summary bool
	debug   bool

	// Progress receives the console lines of a run. Nil discards them.
	Progress io.Writer
}

// NewBatch builds a Batch from validated settings.
func NewBatch(s *config.Settings, progress io.Writer) (*Batch, error) {
	proc, err := NewProcessor(s)
	if err != nil {
		return nil, err
	}
	return &Batch{
		proc:     proc,
		workers:  s.Workers,
		summary:  s.Summary,
		debug:    s.Debug(),
		Progress: progress,
	}, nil
}

// slot is the state of one input while the batch runs.
type slot struct {
	path    string
	done    bool
	outcome *Outcome
	err     error
}

// Run processes the supported images directly inside inDir and writes the
// results into outDir, creating it if needed.
//
// Images are processed concurrently, but progress lines and report blocks
// are emitted in file-name order. Files that cannot be decoded are reported
// as "Can't find <path>" and skipped; any other failure stops the run.
func (b *Batch) Run(ctx context.Context, inDir, outDir string) (*report.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths, err := imaging.ListImages(inDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	f, err := os.Create(filepath.Join(outDir, ReportFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	rw := report.NewWriter(f)
	summary := &report.Summary{Input: inDir, Output: outDir}

	slots := make([]slot, len(paths))
	for i, p := range paths {
		slots[i].path = p
	}

	var (
		mu   sync.Mutex
		next int
	)
	// finish records a result and flushes every leading slot that is done,
	// so output order does not depend on scheduling.
	finish := func(i int, out *Outcome, err error) error {
		mu.Lock()
		defer mu.Unlock()
		slots[i].done, slots[i].outcome, slots[i].err = true, out, err
		for next < len(slots) && slots[next].done {
			if err := b.emit(rw, summary, &slots[next]); err != nil {
				return err
			}
			slots[next].outcome = nil
			next++
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := b.proc.Process(path)
			if err != nil {
				var decodeErr *imaging.DecodeError
				if !errors.As(err, &decodeErr) {
					return err
				}
				if b.debug {
					log.Printf("skipping %s: %v", path, err)
				}
				return finish(i, nil, err)
			}
			dst := filepath.Join(outDir, filepath.Base(path))
			if err := imaging.Save(out.Annotated, dst); err != nil {
				return err
			}
			out.Annotated = nil
			return finish(i, out, nil)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := rw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	if b.debug {
		log.Printf("report: %d images, %d characters, %d skipped", rw.Files(), rw.Characters(), summary.Failed)
	}

	if b.summary {
		if err := writeSummary(filepath.Join(outDir, SummaryFile), summary); err != nil {
			return nil, err
		}
	}

	b.printf("Done.\n")
	return summary, nil
}

// emit writes the console lines, report block and summary entry of one
// finished slot.
func (b *Batch) emit(rw *report.Writer, summary *report.Summary, s *slot) error {
	name := filepath.Base(s.path)
	if s.err != nil {
		abs, err := filepath.Abs(s.path)
		if err != nil {
			abs = s.path
		}
		b.printf("Can't find %s\n", abs)
		summary.Add(report.ImageSummary{File: name, Error: s.err.Error()})
		return nil
	}

	b.printf("Recognizing %s\n", name)
	n, err := rw.Write(name, s.outcome.Result.Clusters)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	b.printf("Find %d characters.\n", n)
	summary.Add(report.Summarize(name, s.outcome.Width, s.outcome.Height, s.outcome.Result))
	return nil
}

func (b *Batch) printf(format string, args ...interface{}) {
	if b.Progress != nil {
		fmt.Fprintf(b.Progress, format, args...)
	}
}

func writeSummary(path string, s *report.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	if err := report.WriteYAML(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

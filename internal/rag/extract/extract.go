// Package extract turns uploaded files into normalized text plus structural
// counts. Formats are served by a registry of extractors; an extractor whose
// probe fails at startup takes its formats out of service without affecting
// the others.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/metrics"
	"github.com/akolanti/docqa/pkg/logger_i"
)

type Metadata struct {
	PageCount      int `json:"page_count,omitempty"`
	WordCount      int `json:"word_count"`
	SheetCount     int `json:"sheet_count,omitempty"`
	ParagraphCount int `json:"paragraph_count,omitempty"`
	TableCount     int `json:"table_count,omitempty"`
	CellCount      int `json:"cell_count,omitempty"`
	LineCount      int `json:"line_count,omitempty"`
}

type Result struct {
	Text     string
	Format   docModel.Format
	Metadata Metadata
}

type Extractor interface {
	Formats() []docModel.Format
	Extract(ctx context.Context, path string) (Result, error)
}

// Prober is implemented by extractors that depend on something that may be
// missing at runtime.
type Prober interface {
	Probe() error
}

type Registry struct {
	byFormat map[docModel.Format]Extractor
	logger   *logger_i.Logger
}

func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{
		byFormat: make(map[docModel.Format]Extractor),
		logger:   logger_i.NewLogger("Extractor"),
	}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Default wires every built-in extractor.
func Default() *Registry {
	return NewRegistry(
		pdfExtractor{},
		docxExtractor{},
		excelExtractor{},
		richTextExtractor{},
		textExtractor{},
	)
}

// Register adds e for its formats unless its probe fails. It reports whether
// the extractor was accepted.
func (r *Registry) Register(e Extractor) bool {
	if p, ok := e.(Prober); ok {
		if err := p.Probe(); err != nil {
			r.logger.Warn("extractor unavailable, formats disabled", "formats", e.Formats(), "error", err)
			return false
		}
	}
	for _, f := range e.Formats() {
		r.byFormat[f] = e
	}
	return true
}

func (r *Registry) Supports(ext string) bool {
	_, ok := r.byFormat[docModel.FormatOf(ext)]
	return ok
}

func (r *Registry) Formats() []docModel.Format {
	out := make([]docModel.Format, 0, len(r.byFormat))
	for f := range r.byFormat {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Extract dispatches on the file extension. Errors are UnsupportedFormat or
// ExtractionFailure with a corrupt_file or io_failure reason. Panics inside an
// extractor are recovered.
func (r *Registry) Extract(ctx context.Context, path string) (res Result, err error) {
	format := docModel.FormatOf(path)
	e, ok := r.byFormat[format]
	if !ok {
		return Result{}, ragErrors.Newf(ragErrors.UnsupportedFormat, "extract", "no extractor for %q", format)
	}

	if _, statErr := os.Stat(path); statErr != nil {
		return Result{}, ioFailure("extract", statErr)
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("extraction", time.Since(start)) }()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("extractor panicked", "format", format, "panic", rec)
			res = Result{}
			err = corrupt(string(format), fmt.Errorf("extractor panic: %v", rec))
		}
	}()

	res, err = e.Extract(ctx, path)
	if err != nil {
		var typed *ragErrors.Error
		if !errors.As(err, &typed) {
			err = corrupt(string(format), err)
		}
		return Result{}, err
	}

	res.Format = format
	if res.Metadata.WordCount == 0 {
		res.Metadata.WordCount = len(strings.Fields(res.Text))
	}
	r.logger.Debug("extracted", "format", format, "chars", len(res.Text), "words", res.Metadata.WordCount)
	return res, nil
}

func corrupt(op string, err error) error {
	return &ragErrors.Error{Kind: ragErrors.ExtractionFailure, Reason: ragErrors.ReasonCorruptFile, Op: op, Err: err}
}

func ioFailure(op string, err error) error {
	return &ragErrors.Error{Kind: ragErrors.ExtractionFailure, Reason: ragErrors.ReasonIOFailure, Op: op, Err: err}
}

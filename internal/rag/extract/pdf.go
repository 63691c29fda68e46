package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/pkg/logger_i"
	"github.com/dslipak/pdf"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

type pdfExtractor struct{}

func (pdfExtractor) Formats() []docModel.Format {
	return []docModel.Format{docModel.FormatPDF}
}

func (pdfExtractor) Extract(ctx context.Context, path string) (Result, error) {
	logger := logger_i.NewLogger("Extractor").WithContext(ctx).With("format", "pdf")

	f, err := pdf.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open pdf: %w", err)
	}

	var text strings.Builder
	words := 0
	numPages := f.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, ioFailure("pdf", err)
		}
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			logger.Warn("skipping unreadable page", "page", i, "error", err)
			continue
		}

		content = strings.TrimSpace(whitespaceRun.ReplaceAllString(content, " "))
		if content == "" {
			continue
		}
		fmt.Fprintf(&text, "\n\n[Page %d]\n%s", i, content)
		words += len(strings.Fields(content))
	}

	return Result{
		Text: strings.TrimSpace(text.String()),
		Metadata: Metadata{
			PageCount: numPages,
			WordCount: words,
		},
	}, nil
}

// protectExtract bounds a single page's extraction in time and converts a
// panic inside the pdf library into an error for that page.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resChan <- result{err: fmt.Errorf("page panic: %v", rec)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PageExtractTimeout):
		return "", errors.New("page extraction timed out")
	}
}

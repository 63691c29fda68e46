package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/lu4p/cat"
)

type textExtractor struct{}

func (textExtractor) Formats() []docModel.Format {
	return []docModel.Format{docModel.FormatTXT}
}

func (textExtractor) Extract(_ context.Context, path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, ioFailure("text", err)
	}
	if !utf8.Valid(raw) {
		return Result{}, errors.New("file is not valid UTF-8 text")
	}
	text := string(raw)
	lines := 0
	if text != "" {
		lines = strings.Count(text, "\n") + 1
		if strings.HasSuffix(text, "\n") {
			lines--
		}
	}
	return Result{
		Text: text,
		Metadata: Metadata{
			LineCount: lines,
			WordCount: len(strings.Fields(text)),
		},
	}, nil
}

// richTextExtractor covers formats lu4p/cat understands that the dedicated
// extractors do not.
type richTextExtractor struct{}

func (richTextExtractor) Formats() []docModel.Format {
	return []docModel.Format{docModel.FormatRTF, docModel.FormatODT}
}

func (richTextExtractor) Extract(_ context.Context, path string) (Result, error) {
	text, err := cat.File(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to extract rich text: %w", err)
	}
	text = strings.TrimSpace(text)

	paragraphs := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			paragraphs++
		}
	}
	return Result{
		Text: text,
		Metadata: Metadata{
			ParagraphCount: paragraphs,
			WordCount:      len(strings.Fields(text)),
		},
	}, nil
}

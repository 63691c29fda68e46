// Package chunk splits normalized document text into overlapping pieces sized
// for embedding. Sizes and offsets are counted in runes.
package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/docqa/internal/config"
)

type Strategy string

const (
	Recursive Strategy = config.ChunkStrategyRecursive
	Window    Strategy = config.ChunkStrategyWindow
)

// Piece is one chunk of the source text. Start and End are rune offsets into
// the text passed to Split. For the recursive strategy Start comes from a
// search for the first few runes of the piece, so repeated passages can be
// attributed to their first occurrence.
type Piece struct {
	Index int
	Text  string
	Start int
	End   int
}

type Options struct {
	Size     int
	Overlap  int
	Strategy Strategy
}

func DefaultOptions() Options {
	return Options{
		Size:     config.DefaultChunkSize,
		Overlap:  config.DefaultChunkOverlap,
		Strategy: Recursive,
	}
}

func (o Options) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", o.Size)
	}
	if o.Overlap < 0 || o.Overlap >= o.Size {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", o.Size, o.Overlap)
	}
	switch o.Strategy {
	case Recursive, Window:
	default:
		return fmt.Errorf("unknown chunk strategy %q", o.Strategy)
	}
	return nil
}

type Chunker struct {
	opts Options
}

func New(opts Options) (*Chunker, error) {
	if opts.Strategy == "" {
		opts.Strategy = Recursive
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{opts: opts}, nil
}

func (c *Chunker) Options() Options {
	return c.opts
}

// Split is deterministic. Whitespace-only input yields no pieces.
func (c *Chunker) Split(text string) []Piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.opts.Strategy == Window {
		return c.splitWindow(text)
	}

	texts := c.splitRecursive(text, separators)
	pieces := make([]Piece, 0, len(texts))
	for _, t := range texts {
		start := locate(text, t)
		pieces = append(pieces, Piece{
			Index: len(pieces),
			Text:  t,
			Start: start,
			End:   start + utf8.RuneCountInString(t),
		})
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// locate finds the rune offset of the piece's leading probe in text, or 0.
func locate(text, piece string) int {
	probe := []rune(piece)
	if len(probe) > config.OffsetProbeLength {
		probe = probe[:config.OffsetProbeLength]
	}
	if len(probe) == 0 {
		return 0
	}
	idx := strings.Index(text, string(probe))
	if idx < 0 {
		return 0
	}
	return utf8.RuneCountInString(text[:idx])
}

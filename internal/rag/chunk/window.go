package chunk

import (
	"strings"
	"unicode"
)

var boundaries = []string{". ", "! ", "? ", "\n\n", "\n"}

// splitWindow cuts fixed windows, pulling the cut back to a sentence or line
// break when one sits in the back half of the window. Interior whitespace is
// left untouched.
func (c *Chunker) splitWindow(text string) []Piece {
	src := []rune(text)
	size, overlap := c.opts.Size, c.opts.Overlap

	var pieces []Piece
	start := 0
	for start < len(src) {
		end := start + size
		if end < len(src) {
			end = snapToBoundary(src, start, end, size)
		} else {
			end = len(src)
		}

		raw := string(src[start:end])
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			lead := runeLen(raw) - runeLen(strings.TrimLeftFunc(raw, unicode.IsSpace))
			s := start + lead
			pieces = append(pieces, Piece{
				Index: len(pieces),
				Text:  trimmed,
				Start: s,
				End:   s + runeLen(trimmed),
			})
		}

		if end >= len(src) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return pieces
}

func snapToBoundary(src []rune, start, end, size int) int {
	window := string(src[start:end])
	for _, b := range boundaries {
		idx := strings.LastIndex(window, b)
		if idx == -1 {
			continue
		}
		at := runeLen(window[:idx])
		if at > size/2 {
			return start + at + runeLen(b)
		}
	}
	return end
}

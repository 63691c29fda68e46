package chunk

import "strings"

var separators = []string{"\n\n", "\n", ".", "!", "?", ";", ",", " ", ""}

// splitRecursive breaks text on the coarsest separator present, recursing
// into any piece still too large with the finer separators.
func (c *Chunker) splitRecursive(text string, seps []string) []string {
	var out []string

	separator := seps[len(seps)-1]
	var finer []string
	for i, s := range seps {
		if s == "" {
			separator = ""
			break
		}
		if strings.Contains(text, s) {
			separator = s
			finer = seps[i+1:]
			break
		}
	}

	var good []string
	for _, s := range splitKeepingSeparator(text, separator) {
		if runeLen(s) < c.opts.Size {
			good = append(good, s)
			continue
		}
		if len(good) > 0 {
			out = append(out, c.merge(good)...)
			good = nil
		}
		if len(finer) == 0 {
			out = append(out, s)
		} else {
			out = append(out, c.splitRecursive(s, finer)...)
		}
	}
	if len(good) > 0 {
		out = append(out, c.merge(good)...)
	}
	return out
}

// splitKeepingSeparator keeps each separator at the start of the piece that
// follows it.
func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		parts := make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	raw := strings.Split(text, sep)
	parts := make([]string, 0, len(raw))
	for i, p := range raw {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// merge packs small splits into chunks of at most Size runes, carrying at
// most Overlap runes of trailing splits into the next chunk.
func (c *Chunker) merge(splits []string) []string {
	var docs []string
	var current []string
	total := 0

	flush := func() {
		if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
			docs = append(docs, doc)
		}
	}

	for _, s := range splits {
		l := runeLen(s)
		if total+l > c.opts.Size && len(current) > 0 {
			flush()
			for total > c.opts.Overlap || (total+l > c.opts.Size && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, s)
		total += l
	}
	flush()
	return docs
}

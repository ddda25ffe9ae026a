// Package chunk splits text blobs into overlapping retrieval chunks.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Separators tried in order when looking for a cut point, largest
// natural boundary first.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Split cuts text into chunks of at most size characters. Each chunk
// after the first starts overlap characters before the end of its
// predecessor, so adjacent chunks share that region verbatim. Cuts
// prefer the last paragraph, line, sentence or word boundary inside
// the size budget and fall back to a rune-safe hard cut. A blob that
// fits the budget is returned as a single chunk; an empty blob yields
// nothing.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var out []string
	start := 0
	for {
		end := start + size
		if end >= len(text) {
			out = append(out, text[start:])
			return out
		}
		cut := cutPoint(text, start+overlap+1, end)
		out = append(out, text[start:cut])

		next := cut - overlap
		if next <= start {
			next = cut
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}
}

// cutPoint returns the end offset for the chunk starting before min,
// searching (min, max] for the last occurrence of each separator. The
// lower bound keeps the next chunk's start past the previous one so
// the walk always makes progress.
func cutPoint(text string, min, max int) int {
	if min >= max {
		return hardCut(text, max)
	}
	window := text[min:max]
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return min + i + len(sep)
		}
	}
	return hardCut(text, max)
}

func hardCut(text string, at int) int {
	for at > 0 && !utf8.RuneStart(text[at]) {
		at--
	}
	return at
}

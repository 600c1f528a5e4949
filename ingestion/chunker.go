package ingestion

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200

	paragraphSeparator = "\n\n"
)

// ExtractTitle returns the first markdown heading in content, or fallback.
func ExtractTitle(content, fallback string) string {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			if title := strings.TrimSpace(strings.TrimLeft(trimmed, "#")); title != "" {
				return title
			}
		}
	}
	return fallback
}

// ChunkText packs blank-line separated paragraphs into chunks of roughly
// target characters. When a chunk is closed, trailing paragraphs that fit in
// overlap characters are carried into the next one. A single paragraph longer
// than target is cut into overlapping character windows.
func ChunkText(content string, target, overlap int) []string {
	if target <= 0 {
		target = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= target {
		overlap = target / 2
	}

	clean := strings.ReplaceAll(content, "\r\n", "\n")
	paragraphs := strings.Split(clean, "\n\n")
	chunks := make([]string, 0)
	current := make([]string, 0)
	// currentLen is the rune length of current once joined, separators included.
	currentLen := 0
	// fresh counts paragraphs added since the last flush; a chunk made only
	// of carried-over overlap is never emitted on its own.
	fresh := 0

	flush := func() {
		if fresh == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, paragraphSeparator))
		fresh = 0

		carried := make([]string, 0)
		carriedLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			n := joinedLen(carriedLen, current[i])
			if n > overlap {
				break
			}
			carried = append([]string{current[i]}, carried...)
			carriedLen = n
		}
		current = carried
		currentLen = carriedLen
	}

	for _, paragraph := range paragraphs {
		p := strings.TrimSpace(paragraph)
		if p == "" {
			continue
		}

		pieces := []string{p}
		if utf8.RuneCountInString(p) > target {
			pieces = splitWindow(p, target, overlap)
		}

		for _, piece := range pieces {
			if piece == "" {
				continue
			}
			if joinedLen(currentLen, piece) > target && fresh > 0 {
				flush()
			}
			if joinedLen(currentLen, piece) > target {
				// carried overlap alone would overflow the target
				current = current[:0]
				currentLen = 0
			}
			current = append(current, piece)
			currentLen = joinedLen(currentLen, piece)
			fresh++
		}
	}

	flush()
	return chunks
}

// joinedLen is the rune length of a join of length n after appending piece.
func joinedLen(n int, piece string) int {
	if n == 0 {
		return utf8.RuneCountInString(piece)
	}
	return n + utf8.RuneCountInString(paragraphSeparator) + utf8.RuneCountInString(piece)
}

func splitWindow(text string, size, overlap int) []string {
	runes := []rune(text)
	step := size - overlap
	if step <= 0 {
		step = size
	}

	pieces := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, strings.TrimSpace(string(runes[start:end])))
		if end == len(runes) {
			break
		}
	}
	return pieces
}

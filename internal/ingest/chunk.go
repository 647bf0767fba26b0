package ingest

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ChunkText splits text into windows of at most size runes, each starting overlap runes
// before the previous one ended. Windows end at whitespace when one falls in their second half.
func ChunkText(text string, size, overlap int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	r := []rune(text)
	if len(r) <= size {
		return []string{text}
	}

	var out []string
	for start := 0; start < len(r); {
		end := start + size
		if end >= len(r) {
			out = append(out, strings.TrimSpace(string(r[start:])))
			break
		}
		for cut := end; cut > start+size/2; cut-- {
			if unicode.IsSpace(r[cut]) {
				end = cut
				break
			}
		}
		out = append(out, strings.TrimSpace(string(r[start:end])))
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextShortInputIsOneChunk(t *testing.T) {
	got := ChunkText("  Finance   MBA\nwith  placements ", 1000, 200)
	if len(got) != 1 || got[0] != "Finance MBA with placements" {
		t.Fatalf("got=%q", got)
	}
	if ChunkText("   ", 1000, 200) != nil {
		t.Fatalf("blank input: want nil")
	}
}

func TestChunkTextWindowsOverlap(t *testing.T) {
	words := make([]string, 0, 600)
	for i := 0; i < 600; i++ {
		words = append(words, "word"+strings.Repeat("x", i%5))
	}
	text := strings.Join(words, " ")

	chunks := ChunkText(text, 1000, 200)
	if len(chunks) < 3 {
		t.Fatalf("want several chunks got=%d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 1000 {
			t.Fatalf("chunk %d: %d runes", i, n)
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		head := chunks[i]
		if len(head) > 40 {
			head = head[:40]
		}
		if !strings.Contains(prev, strings.TrimSpace(head[:20])) {
			t.Fatalf("chunk %d does not overlap the previous one", i)
		}
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last) {
		t.Fatalf("final chunk does not reach the end of the text")
	}
}

func TestChunkTextNeverStalls(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := ChunkText(text, 100, 150)
	if len(chunks) != 25 {
		t.Fatalf("overlap >= size is ignored: want 25 chunks got=%d", len(chunks))
	}
}

package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
		want      []string
	}{
		{name: "short text is one chunk", text: "oak desk", chunkSize: 10, overlap: 2, want: []string{"oak desk"}},
		{name: "overlapping windows", text: "abcdefghij", chunkSize: 4, overlap: 1, want: []string{"abcd", "defg", "ghij"}},
		{name: "overlap too large falls back to no overlap", text: "abcdef", chunkSize: 3, overlap: 5, want: []string{"abc", "def"}},
		{name: "counts runes not bytes", text: "ééééé", chunkSize: 5, overlap: 0, want: []string{"ééééé"}},
		{name: "empty", text: "", chunkSize: 5, overlap: 1, want: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitText(tt.text, tt.chunkSize, tt.overlap))
		})
	}
}

func TestSplitText_CoversWholeText(t *testing.T) {
	text := strings.Repeat("linen ", 700)
	chunks := SplitText(text, 1500, 200)

	assert.Len(t, chunks, 4)
	for _, c := range chunks[:len(chunks)-1] {
		assert.Len(t, []rune(c), 1500)
	}
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}

// Package chunker splits document content into fixed-size overlapping
// windows of characters. Window positions depend only on the input, so a
// chunk's index is a stable identity across runs.
package chunker

import "fmt"

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 100
)

// Split cuts text into windows of chunkSize characters, each consecutive
// pair sharing overlap characters. Windows never cut a rune in half, so
// every chunk is valid UTF-8. The final window may be shorter. Empty
// text yields no chunks.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must satisfy 0 <= overlap < chunk size, got overlap=%d size=%d", overlap, chunkSize)
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end >= len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks, nil
}

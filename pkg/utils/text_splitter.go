package utils

// SplitText cuts text into windows of at most chunkSize runes, each
// starting chunkSize-overlap runes after the previous one.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	total := len(runes)
	if chunkSize <= 0 || total <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for i := 0; i < total; i += step {
		end := min(i+chunkSize, total)
		chunks = append(chunks, string(runes[i:end]))
		if end == total {
			break
		}
	}
	return chunks
}

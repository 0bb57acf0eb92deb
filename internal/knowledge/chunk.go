package knowledge

// defaultChunkSize is measured in runes so multi-byte text never splits
// mid-character.
const defaultChunkSize = 1000

// SplitChunks cuts text into fixed-size pieces for embedding.
func SplitChunks(text string, size int) []string {
	if size <= 0 {
		size = defaultChunkSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

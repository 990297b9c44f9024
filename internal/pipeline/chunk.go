package pipeline

import "strings"

const (
	// defaultChunkSize is the target chunk length in characters.
	defaultChunkSize = 2000
	// defaultChunkOverlap is how many trailing characters of one chunk
	// are repeated at the start of the next, so that statements cut at
	// a boundary stay retrievable.
	defaultChunkOverlap = 200
)

// splitText breaks text into chunks of at most maxChars characters,
// preferring line boundaries and carrying overlap characters between
// consecutive chunks. Empty input yields no chunks.
func splitText(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = defaultChunkSize
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) <= maxChars {
		return []string{trimmed}
	}

	lines := strings.Split(trimmed, "\n")
	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		if overlap > 0 && len(chunk) > overlap {
			current.WriteString(chunk[len(chunk)-overlap:])
			current.WriteString("\n")
		}
	}

	for _, line := range lines {
		// A single line longer than the window is cut hard.
		for len(line) > maxChars {
			if current.Len() > 0 {
				flush()
			}
			current.WriteString(line[:maxChars])
			flush()
			line = line[maxChars:]
		}
		if current.Len()+len(line)+1 > maxChars {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	return chunks
}

package openai

import "github.com/tmc/langchaingo/textsplitter"

// newSplitter builds the chunker used for long documents. Splits prefer
// paragraph boundaries, then sentence boundaries, so chunks stay coherent.
func newSplitter(chunkSize, overlap int) textsplitter.RecursiveCharacter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
	)
}

// splitForModel chunks text that exceeds the model's working size.
// Text at or under the limit comes back as a single chunk.
func splitForModel(splitter textsplitter.RecursiveCharacter, text string, chunkSize int) ([]string, error) {
	if len(text) <= chunkSize {
		return []string{text}, nil
	}
	return splitter.SplitText(text)
}

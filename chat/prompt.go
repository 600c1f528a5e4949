package chat

import (
	"fmt"
	"strings"
)

const (
	contextHole = "{context_str}"
	queryHole   = "{query_str}"

	contextSeparator = "\n---\n"
)

// PromptTemplate is the persona text with a context hole and a question hole.
type PromptTemplate struct {
	text string
}

func NewPromptTemplate(text string) (PromptTemplate, error) {
	if !strings.Contains(text, contextHole) {
		return PromptTemplate{}, fmt.Errorf("prompt template is missing %s", contextHole)
	}
	if !strings.Contains(text, queryHole) {
		return PromptTemplate{}, fmt.Errorf("prompt template is missing %s", queryHole)
	}
	return PromptTemplate{text: text}, nil
}

// Render substitutes both holes in a single pass, so braces inside the
// question or the retrieved text are never expanded again.
func (t PromptTemplate) Render(contextText, question string) string {
	return strings.NewReplacer(contextHole, contextText, queryHole, question).Replace(t.text)
}

func buildContext(chunks []ChunkResult) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, strings.TrimSpace(chunk.Content))
	}
	return strings.Join(parts, contextSeparator)
}

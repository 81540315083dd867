package rag

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/discovery/internal/domain/entity"
)

const promptTemplate = `You explain why a search result matches a user's query.

Query: %s

Top results for context:
%s

Result to explain:
%s

Reply with only a JSON object of the form
{"summary": "<one sentence describing the result>", "relevance_explanation": "<one sentence on why it matches the query>"}`

// buildContext renders entities as blank-line separated blocks.
func buildContext(entities []entity.Entity) string {
	blocks := make([]string, 0, len(entities))
	for _, e := range entities {
		blocks = append(blocks, describe(e.Document()))
	}
	return strings.Join(blocks, "\n\n")
}

func describe(d entity.Document) string {
	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
	}
	line("Title", d.Title)
	line("Type", d.Type)
	line("Description", d.Description)
	line("URL", d.URL)
	line("Tags", strings.Join(d.Tags, ", "))
	line("Tools", strings.Join(d.Tools, ", "))
	return b.String()
}

func buildPrompt(query, shared string, e entity.Entity) string {
	return fmt.Sprintf(promptTemplate, query, shared, describe(e.Document()))
}

package summarizer

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/models"
)

const promptTemplate = `You are a concise research assistant. INPUT: a user query and up to %d source excerpts (with URLs).
REQUIREMENTS:
1) Output EXACTLY ONE valid JSON object ONLY (no leading/trailing text).
2) The JSON must have keys:
   - title (string)
   - summary (string, 3-4 sentences)
   - key_points (array of 3 objects with 'point' and 'detail')
   - sources (array of objects with 'url' and 'note')
3) If you cannot produce the required JSON, return a single JSON object with keys:
   - error (string explaining reason)
   - raw_output (the full text you would have returned)

User Query: %q
Sources:
%s

Respond ONLY with a single JSON object. No extra text.
`

// BuildPrompt embeds the query and at most maxSources sources, each excerpt
// capped at excerptChars runes.
func BuildPrompt(query string, sources []models.Source, maxSources, excerptChars int) string {
	if maxSources > 0 && len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	parts := make([]string, 0, len(sources))
	for i, s := range sources {
		parts = append(parts, fmt.Sprintf("SOURCE %d: %s\nEXCERPT:\n%s\n", i+1, s.URL, helpers.Truncate(s.Excerpt, excerptChars)))
	}
	return fmt.Sprintf(promptTemplate, maxSources, query, strings.Join(parts, "\n\n"))
}

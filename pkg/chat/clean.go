package chat

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanResponse turns raw generated text into the reply shown to the user and
// stored in the transcript. Every "{assistantLabel}:" prefix the model echoed
// is removed, HTML entities are decoded and surrounding whitespace trimmed.
func CleanResponse(raw, assistantLabel string) string {
	text := raw
	if assistantLabel != "" {
		text = strings.ReplaceAll(text, assistantLabel+":", "")
	}
	text = html.UnescapeString(text)
	return strings.TrimSpace(text)
}

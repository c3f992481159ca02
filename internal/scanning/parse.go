package scanning

import "strings"

// transcribePrompt is the shared prompt used by the LLM providers. They act as
// OCR engines only; field extraction happens downstream.
const transcribePrompt = `You are an OCR engine. Transcribe all text visible in this scanned document page exactly as printed.

Rules:
- Preserve the original line breaks and reading order, top to bottom
- Do not summarize, translate, correct or reformat anything
- Do not add commentary or any text that is not on the page
- Do not use markdown code blocks
- If the page has no text, return an empty response`

// cleanTranscript strips the markdown fences LLMs sometimes wrap around
// their answer.
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line, which may carry a language tag
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

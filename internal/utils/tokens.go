package utils

// Rough token estimation used to keep prompt samples small.
// Approximates 1 token ~= 4 characters; not tied to any tokenizer.

// CountTokens estimates the number of tokens in the given text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	// Ensure at least 1 token for any non-empty text
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit naively truncates text to roughly fit within a token limit.
// Cuts at the last line break inside the budget when there is one, so sample
// tables lose whole rows rather than half a row.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	// Expand limit to character count using the same 4 chars per token heuristic
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	cut := runes[:charLimit]
	for i := len(cut) - 1; i > 0; i-- {
		if cut[i] == '\n' {
			return string(cut[:i])
		}
	}
	return string(cut)
}

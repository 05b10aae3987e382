package utils

import "strings"

// charsPerToken is the rough estimate used for every model; exact tokenizers
// differ per provider and prompt sizing only needs an upper bound.
const charsPerToken = 4

// CountTokens estimates the tokens in text. Any non-empty text counts as at
// least one token.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return max(len([]rune(text))/charsPerToken, 1)
}

// TruncateToTokenLimit cuts text to roughly limit tokens. When a line break
// falls in the second half of the kept text, the cut happens there, so a
// markdown table loses whole rows instead of half a row.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * charsPerToken
	if charLimit >= len(runes) {
		return text
	}
	kept := string(runes[:charLimit])
	if i := strings.LastIndexByte(kept, '\n'); i >= len(kept)/2 {
		return kept[:i+1]
	}
	return kept
}

package tool

import "strings"

// Text styles accepted by Format.
const (
	StyleUppercase = "uppercase"
	StyleLowercase = "lowercase"
	StyleTitle     = "title"
)

// Format renders text in the requested style. An unknown style returns the
// text unchanged.
func Format(text, style string) string {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case StyleUppercase:
		return strings.ToUpper(text)
	case StyleLowercase:
		return strings.ToLower(text)
	case StyleTitle:
		return titleCase(text)
	default:
		return text
	}
}

func titleCase(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		if len(runes) > 0 && runes[0] >= 'a' && runes[0] <= 'z' {
			runes[0] = runes[0] - 'a' + 'A'
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

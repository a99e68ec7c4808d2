package repositorycache

import (
	"strings"
	"unicode"
)

// toSnake turns a type name into a lower snake_case key namespace:
// CartItems becomes cart_items and HTTPServers becomes http_servers.
// Anything that is not a letter or digit separates words.
func toSnake(s string) string {
	return strings.ToLower(strings.Join(splitWords(s), "_"))
}

// splitWords breaks s on punctuation, lower to upper transitions, the end of
// an acronym and letter to digit transitions.
func splitWords(s string) []string {
	runes := []rune(s)
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			switch {
			case unicode.IsDigit(r) != unicode.IsDigit(prev):
				flush()
			case unicode.IsUpper(r) && unicode.IsLower(prev):
				flush()
			case unicode.IsUpper(r) && unicode.IsUpper(prev) && nextLower:
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

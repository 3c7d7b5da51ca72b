package service

import "strings"

// AnonymousName is shown when no display name can be resolved.
const AnonymousName = "Anonymous"

// MaskName redacts a display name for end-user views: the first rune of
// each whitespace-separated token is kept, the rest become '*'.
// "John Doe" -> "J*** D**". Blank input yields AnonymousName.
func MaskName(fullName string) string {
	tokens := strings.Fields(fullName)
	if len(tokens) == 0 {
		return AnonymousName
	}
	for i, tok := range tokens {
		runes := []rune(tok)
		if len(runes) > 1 {
			tokens[i] = string(runes[0]) + strings.Repeat("*", len(runes)-1)
		}
	}
	return strings.Join(tokens, " ")
}

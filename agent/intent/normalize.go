package intent

import "strings"

// Normalize case-folds and collapses whitespace so recognizer patterns
// only ever see one canonical form.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

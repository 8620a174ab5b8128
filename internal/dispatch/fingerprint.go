package dispatch

import "strings"

// Fingerprint normalizes a reply for repeat detection: whitespace collapsed,
// lower-cased, trailing punctuation stripped. Two consecutive replies to the
// same user must never share a fingerprint.
func Fingerprint(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.ToLower(text)
	return strings.TrimRight(text, " .!?…,")
}

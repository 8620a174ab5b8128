package tts

import (
	"fmt"
	"strings"
)

// BuildSSML wraps an already-escaped body in the speech markup the synthesis
// backend expects. The body may carry its own <lang> and <break> elements;
// everything else in it must be escaped by the caller.
func BuildSSML(body string, p Preset) string {
	inner := fmt.Sprintf("<prosody rate='%s' pitch='%s'>%s</prosody>", p.Rate, p.Pitch, body)
	if style := strings.TrimSpace(p.Style); style != "" {
		inner = fmt.Sprintf("<mstts:express-as style='%s'>%s</mstts:express-as>", style, inner)
	}
	return "<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis'" +
		" xmlns:mstts='https://www.w3.org/2001/mstts' xml:lang='en-US'>" +
		fmt.Sprintf("<voice name='%s'>%s</voice>", p.Voice, inner) +
		"</speak>"
}

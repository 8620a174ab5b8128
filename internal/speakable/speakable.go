// Package speakable derives a TTS-safe variant of an utterance: platform
// tokens, links, and code are stripped, romanized Hindi words are swapped for
// their Devanagari spellings so the synthesizer pronounces them right, and
// the result is escaped for embedding in speech markup.
package speakable

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// WontReadCode replaces any text that still looks like code after stripping.
const WontReadCode = "Arre yeh toh code lag raha hai, main isse padhne waali nahi hoon. 😅"

const (
	maxSpeakChars = 260
	// Fraction of structural characters above which the remaining text is
	// treated as code debris and dropped wholesale.
	symbolDensityLimit = 0.08
	namePauseMarker    = `<break time="250ms"/>`
)

var (
	mentionRe     = regexp.MustCompile(`<@[!&]?\d+>`)
	channelRe     = regexp.MustCompile(`<#\d+>`)
	timestampRe   = regexp.MustCompile(`<t:\d+(?::[a-zA-Z])?>`)
	customEmojiRe = regexp.MustCompile(`<a?:\w+:\d+>`)
	fencedCodeRe  = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe  = regexp.MustCompile("`[^`\n]*`")
	labeledLinkRe = regexp.MustCompile(`\[([^\]]*)\]\((?:https?://)[^)]*\)`)
	bareURLRe     = regexp.MustCompile(`https?://\S+`)
	configLineRe  = regexp.MustCompile(`(?m)^\s*[A-Za-z0-9_.-]+\s*:\s+\S.*$`)
	unicodeEmoji  = regexp.MustCompile("[☀-⛿\U0001F300-\U0001FAFF]")
	devanagariRe  = regexp.MustCompile(`[\x{0900}-\x{097F}]`)
)

var symbolRunes = map[rune]bool{
	'{': true, '}': true, '[': true, ']': true, '(': true, ')': true,
	'<': true, '>': true, '=': true, ';': true, '|': true, '\\': true,
	'/': true, '#': true, '$': true, '%': true, '^': true, '&': true,
	'*': true, '~': true, '+': true, '_': true, '`': true,
}

// Result reports what ToSpeakable produced.
type Result struct {
	Body     string
	UsedName bool
}

// ToSpeakable never fails; worst case the body is the fixed refusal line.
// displayName may be empty; it is cleaned and dropped when too short.
func ToSpeakable(text, displayName string) Result {
	body := extractBody(text)
	name := CleanName(displayName)
	usedName := name != ""

	escaped := EscapeSSML(body)
	if devanagariRe.MatchString(body) {
		escaped = `<lang xml:lang="hi-IN">` + escaped + `</lang>`
	}
	if usedName {
		escaped = EscapeSSML(name) + namePauseMarker + escaped
	}
	return Result{Body: escaped, UsedName: usedName}
}

func extractBody(text string) string {
	original := text

	fencedBlocks := len(fencedCodeRe.FindAllString(original, -1))
	configLines := len(configLineRe.FindAllString(original, -1))

	text = fencedCodeRe.ReplaceAllString(text, " ")
	text = inlineCodeRe.ReplaceAllString(text, " ")
	text = configLineRe.ReplaceAllString(text, " ")
	text = mentionRe.ReplaceAllString(text, " ")
	text = channelRe.ReplaceAllString(text, " ")
	text = timestampRe.ReplaceAllString(text, " ")
	text = customEmojiRe.ReplaceAllString(text, " ")
	text = labeledLinkRe.ReplaceAllString(text, "$1")
	text = bareURLRe.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")

	if text == "" {
		return WontReadCode
	}
	if fencedBlocks > 0 || configLines >= 2 || symbolDensity(text) > symbolDensityLimit {
		return WontReadCode
	}

	text = substituteLexicon(text)
	return truncateAtWord(text, maxSpeakChars)
}

func symbolDensity(text string) float64 {
	total := 0
	symbols := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if symbolRunes[r] {
			symbols++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(symbols) / float64(total)
}

func truncateAtWord(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	cut := string([]rune(text)[:max])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.") + "…"
}

// CleanName strips emoji tokens and punctuation from a display name, keeping
// letters, digits, spaces, and a small allow-list. Names shorter than two
// runes after cleaning are discarded.
func CleanName(name string) string {
	name = customEmojiRe.ReplaceAllString(name, "")
	name = unicodeEmoji.ReplaceAllString(name, "")
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(strings.ReplaceAll(b.String(), "_", " ")), " ")
	cleaned = strings.Trim(cleaned, " .-")
	if utf8.RuneCountInString(cleaned) < 2 {
		return ""
	}
	return cleaned
}

// EscapeSSML escapes text for embedding inside speech markup.
func EscapeSSML(text string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(text)
}

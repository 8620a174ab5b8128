// Package shape clamps raw model output into a short, platform-safe
// utterance. It is a defensive output filter: whatever the backend returns,
// the result is bounded, de-markup'd, and carries at most one emoji.
package shape

import (
	"math/rand"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Fallback is returned for empty input and is the reply of last resort
// everywhere in the bot.
const Fallback = "Arey sun na, kya chal raha hai aajkal? 😉"

const fixedQuestion = "Tum kya soch rahe ho?"

var (
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
	multiSpaceRe    = regexp.MustCompile(`\s{2,}`)
	markupRe        = regexp.MustCompile("[*_#>`~|-]+")
	emojiRe         = regexp.MustCompile("[☀-⛿\U0001F300-\U0001FAFF]")
)

// Light conversational fillers; one is occasionally mixed in so replies do
// not read machine-flat.
var fillers = []string{
	"acha", "arre", "yaar", "na", "matlab", "hmm", "uhh", "bas", "waise", "btw",
}

type Options struct {
	// MaxChars is the hard output ceiling in runes; above it the text is cut
	// at TruncateAt on a word boundary and an ellipsis is appended.
	MaxChars   int
	TruncateAt int
	// MaxSentences keeps only the first N sentence-like segments.
	MaxSentences int
	// ForceQuestion appends a fixed question when the output has none.
	// Off by default: question frequency is steered by the prompt contract.
	ForceQuestion bool
	// FillerRate is the probability of inserting a filler word.
	FillerRate float64
	// Rand drives filler insertion; tests pass a seeded source, a zero
	// FillerRate disables fillers entirely.
	Rand *rand.Rand
}

type Shaper struct {
	opts Options
}

func New(opts Options) *Shaper {
	if opts.MaxChars <= 0 {
		opts.MaxChars = 330
	}
	if opts.TruncateAt <= 0 || opts.TruncateAt > opts.MaxChars {
		opts.TruncateAt = opts.MaxChars - 10
		if opts.TruncateAt < 1 {
			opts.TruncateAt = opts.MaxChars
		}
	}
	if opts.MaxSentences <= 0 {
		opts.MaxSentences = 2
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Shaper{opts: opts}
}

// Shape runs the filter stages in order. It is total: any input, including
// adversarial markup soup, comes out as a bounded utterance.
func (s *Shaper) Shape(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Fallback
	}
	text = normalizeWhitespace(text)
	text = stripMarkup(text)
	text = clampEmoji(text)
	text = clampSentences(text, s.opts.MaxSentences)
	if s.opts.ForceQuestion {
		text = ensureQuestion(text)
	}
	text = clampLength(text, s.opts.MaxChars, s.opts.TruncateAt)
	if strings.TrimSpace(text) == "" {
		return Fallback
	}
	text = s.maybeAddFiller(text)
	return strings.TrimSpace(text)
}

func normalizeWhitespace(text string) string {
	text = trailingSpaceRe.ReplaceAllString(text, "\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func stripMarkup(text string) string {
	return strings.TrimSpace(markupRe.ReplaceAllString(text, ""))
}

// clampEmoji keeps only the first emoji and moves it to the end of the text.
func clampEmoji(text string) string {
	found := emojiRe.FindAllString(text, -1)
	if len(found) <= 1 {
		return text
	}
	stripped := strings.TrimSpace(emojiRe.ReplaceAllString(text, ""))
	return strings.TrimSpace(stripped + " " + found[0])
}

// clampSentences splits on sentence-terminal punctuation followed by
// whitespace and keeps the first max segments.
func clampSentences(text string, max int) string {
	parts := splitSentences(text)
	if len(parts) == 0 {
		return strings.TrimSpace(text)
	}
	if len(parts) > max {
		parts = parts[:max]
	}
	return strings.Join(parts, " ")
}

func splitSentences(text string) []string {
	var parts []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		// Run to the end of consecutive terminal punctuation.
		j := i
		for j+1 < len(runes) && (runes[j+1] == '.' || runes[j+1] == '!' || runes[j+1] == '?') {
			j++
		}
		if j+1 >= len(runes) || runes[j+1] == ' ' || runes[j+1] == '\n' || runes[j+1] == '\t' {
			seg := strings.TrimSpace(string(runes[start : j+1]))
			if seg != "" {
				parts = append(parts, seg)
			}
			start = j + 1
		}
		i = j
	}
	if start < len(runes) {
		seg := strings.TrimSpace(string(runes[start:]))
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}

func ensureQuestion(text string) string {
	if strings.Contains(text, "?") {
		return text
	}
	return strings.TrimRight(text, ".! ") + ". " + fixedQuestion
}

func clampLength(text string, maxChars, truncateAt int) string {
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	if truncateAt > len(runes) {
		truncateAt = len(runes)
	}
	cut := strings.TrimRight(string(runes[:truncateAt]), " ")
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.") + "…"
}

// maybeAddFiller occasionally prepends or embeds a small filler word. A
// filler inserted before an existing question replaces its question mark, so
// the output never gains a second one.
func (s *Shaper) maybeAddFiller(text string) string {
	if s.opts.FillerRate <= 0 {
		return text
	}
	if utf8.RuneCountInString(text) >= 180 || s.opts.Rand.Float64() >= s.opts.FillerRate {
		return text
	}
	filler := fillers[s.opts.Rand.Intn(len(fillers))]
	if s.opts.Rand.Float64() < 0.5 {
		return filler + ", " + text
	}
	if before, after, ok := strings.Cut(text, "?"); ok {
		return strings.TrimSpace(strings.TrimSpace(before) + ", " + filler + "?" + after)
	}
	return text + ", " + filler
}

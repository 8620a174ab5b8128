package speakable

import (
	"regexp"
	"strings"
)

// Romanized Hinglish words the synthesizer mispronounces when read as
// English. Mapping them to Devanagari makes the hi-IN voices say them right.
var lexicon = map[string]string{
	"acha":    "अच्छा",
	"accha":   "अच्छा",
	"arre":    "अरे",
	"arey":    "अरे",
	"bas":     "बस",
	"batao":   "बताओ",
	"bilkul":  "बिल्कुल",
	"chal":    "चल",
	"chalo":   "चलो",
	"haan":    "हाँ",
	"hai":     "है",
	"ho":      "हो",
	"hoon":    "हूँ",
	"kaise":   "कैसे",
	"karti":   "करती",
	"kya":     "क्या",
	"kyun":    "क्यों",
	"main":    "मैं",
	"matlab":  "मतलब",
	"mood":    "मूड",
	"na":      "ना",
	"nahi":    "नहीं",
	"nahin":   "नहीं",
	"sahi":    "सही",
	"scene":   "सीन",
	"soch":    "सोच",
	"sun":     "सुन",
	"sunao":   "सुनाओ",
	"theek":   "ठीक",
	"thik":    "ठीक",
	"thoda":   "थोड़ा",
	"tum":     "तुम",
	"tumhara": "तुम्हारा",
	"waise":   "वैसे",
	"yaar":    "यार",
	"yahin":   "यहीं",
	"yeh":     "यह",
}

var wordRe = regexp.MustCompile(`[A-Za-z]+`)

// substituteLexicon swaps whole romanized words for their native-script
// spellings. Matching ignores case; anything not in the table is untouched.
func substituteLexicon(text string) string {
	return wordRe.ReplaceAllStringFunc(text, func(word string) string {
		if native, ok := lexicon[strings.ToLower(word)]; ok {
			return native
		}
		return word
	})
}

package speakable

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestToSpeakableRefusesFencedCode(t *testing.T) {
	in := "dekho yeh function:\n```go\nfunc main() { panic(\"x\") }\n```\nsamajh aaya?"
	res := ToSpeakable(in, "")
	if !strings.Contains(res.Body, EscapeSSML(WontReadCode)) {
		t.Fatalf("fenced code should produce the refusal line, got %q", res.Body)
	}
	if strings.Contains(res.Body, "panic") {
		t.Fatalf("code content leaked into speakable body: %q", res.Body)
	}
}

func TestToSpeakableRefusesSymbolSoup(t *testing.T) {
	res := ToSpeakable("x = {a: [1,2]} && (b | c) >= d; // wat", "")
	if !strings.Contains(res.Body, EscapeSSML(WontReadCode)) {
		t.Fatalf("symbol-dense text should be refused, got %q", res.Body)
	}
}

func TestToSpeakableRefusesConfigLines(t *testing.T) {
	in := "host: example.com\nport: 8080\nyeh meri config hai"
	res := ToSpeakable(in, "")
	if !strings.Contains(res.Body, EscapeSSML(WontReadCode)) {
		t.Fatalf("two config lines should be refused, got %q", res.Body)
	}
}

func TestToSpeakableStripsPlatformTokens(t *testing.T) {
	in := "<@123456> dekho <#987> pe <t:1700000000:R> ko <:blob:555> kya hua"
	res := ToSpeakable(in, "")
	for _, tok := range []string{"@123456", "#987", "1700000000", "blob"} {
		if strings.Contains(res.Body, tok) {
			t.Fatalf("platform token %q leaked: %q", tok, res.Body)
		}
	}
}

func TestToSpeakableLinks(t *testing.T) {
	res := ToSpeakable("padho [yeh article](https://example.com/a) aur https://example.com/b bhi", "")
	if strings.Contains(res.Body, "example.com") {
		t.Fatalf("URL leaked into speakable body: %q", res.Body)
	}
	if !strings.Contains(res.Body, "article") {
		t.Fatalf("link label should be kept: %q", res.Body)
	}
}

func TestToSpeakableLexiconAndLangHint(t *testing.T) {
	res := ToSpeakable("yaar kya scene hai", "")
	if !strings.Contains(res.Body, "यार") || !strings.Contains(res.Body, "क्या") {
		t.Fatalf("lexicon substitution missing: %q", res.Body)
	}
	if !strings.Contains(res.Body, `<lang xml:lang="hi-IN">`) {
		t.Fatalf("native-script body should carry a language hint: %q", res.Body)
	}
}

func TestToSpeakableTruncates(t *testing.T) {
	res := ToSpeakable(strings.Repeat("lambi baat ", 60), "")
	inner := res.Body
	if utf8.RuneCountInString(inner) > maxSpeakChars+len(`<lang xml:lang="hi-IN"></lang>`)+3 {
		t.Fatalf("speakable body too long: %d runes", utf8.RuneCountInString(inner))
	}
	if !strings.Contains(inner, "…") {
		t.Fatalf("truncation marker missing: %q", inner)
	}
}

func TestToSpeakableNamePrefix(t *testing.T) {
	res := ToSpeakable("kaise ho", "Rohan 😎")
	if !res.UsedName {
		t.Fatalf("expected a cleaned name prefix")
	}
	if !strings.HasPrefix(res.Body, "Rohan"+namePauseMarker) {
		t.Fatalf("name prefix with pause marker missing: %q", res.Body)
	}
}

func TestToSpeakableEmojiOnlyNameDropped(t *testing.T) {
	res := ToSpeakable("kaise ho", "😎")
	if res.UsedName {
		t.Fatalf("single-emoji name should be dropped after cleaning")
	}
	if strings.Contains(res.Body, namePauseMarker) {
		t.Fatalf("no pause marker expected without a name: %q", res.Body)
	}
}

func TestCleanName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Rohan", "Rohan"},
		{"~!Rohan!!~", "Rohan"},
		{"😎", ""},
		{"<:blob:123>x", ""},
		{"priya_sharma", "priya sharma"},
	}
	for _, tc := range cases {
		if got := CleanName(tc.in); got != tc.want {
			t.Fatalf("CleanName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEscapeSSML(t *testing.T) {
	got := EscapeSSML(`a <b> & "c" 'd'`)
	want := "a &lt;b&gt; &amp; &quot;c&quot; &apos;d&apos;"
	if got != want {
		t.Fatalf("EscapeSSML = %q, want %q", got, want)
	}
}

package voice

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/tts"
)

func testPresets() map[string]tts.Preset {
	return map[string]tts.Preset{
		"swara":  {Voice: "hi-IN-SwaraNeural", Rate: "+0%", Pitch: "+0Hz"},
		"madhur": {Voice: "hi-IN-MadhurNeural", Rate: "+0%", Pitch: "-10Hz"},
	}
}

func TestNewManagerValidatesPreset(t *testing.T) {
	_, err := NewManager(Options{Presets: testPresets(), ActivePreset: "nope"})
	if err == nil {
		t.Fatalf("unknown active preset should be rejected")
	}
	if _, err := NewManager(Options{Presets: testPresets(), ActivePreset: "swara"}); err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
}

func TestSetPreset(t *testing.T) {
	m, err := NewManager(Options{Presets: testPresets(), ActivePreset: "swara"})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if err := m.SetPreset("madhur"); err != nil {
		t.Fatalf("SetPreset(madhur) error = %v", err)
	}
	if err := m.SetPreset("ghost"); err == nil {
		t.Fatalf("unknown preset should be rejected")
	}
	names := m.PresetNames()
	if len(names) != 2 || names[0] != "madhur" {
		t.Fatalf("PresetNames = %v", names)
	}
}

func TestSpeakDisabledIsNoop(t *testing.T) {
	m, err := NewManager(Options{Presets: testPresets(), ActivePreset: "swara", Enabled: false})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if err := m.Speak(context.Background(), "g1", "hello", ""); err != nil {
		t.Fatalf("Speak with synthesis disabled should be a no-op, got %v", err)
	}
}

func TestConnectedDefaultsFalse(t *testing.T) {
	m, err := NewManager(Options{Presets: testPresets(), ActivePreset: "swara"})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.Connected("g1") {
		t.Fatalf("Connected should be false before a join")
	}
}

func TestJitterOffsetsPresetValues(t *testing.T) {
	m, err := NewManager(Options{
		Presets:      testPresets(),
		ActivePreset: "swara",
		Rand:         rand.New(rand.NewSource(3)),
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	inPool := func(v string, unit string, base int, pool []int) bool {
		for _, d := range pool {
			if v == fmt.Sprintf("%+d%s", base+d, unit) {
				return true
			}
		}
		return false
	}
	for i := 0; i < 20; i++ {
		p := m.jitter(tts.Preset{Voice: "v", Rate: "+7%", Pitch: "-3Hz"})
		if !inPool(p.Rate, "%", 7, rateJitterPool) {
			t.Fatalf("rate not an offset of the preset's +7%%: %+v", p)
		}
		if !inPool(p.Pitch, "Hz", -3, pitchJitterPool) {
			t.Fatalf("pitch not an offset of the preset's -3Hz: %+v", p)
		}
		if p.Voice != "v" {
			t.Fatalf("jitter must not change the voice: %+v", p)
		}
	}
}

func TestAddOffset(t *testing.T) {
	cases := []struct {
		value string
		unit  string
		delta int
		want  string
	}{
		{"+0%", "%", 3, "+3%"},
		{"+7%", "%", -2, "+5%"},
		{"-10Hz", "Hz", 20, "+10Hz"},
		{"-10Hz", "Hz", 0, "-10Hz"},
		{"garbage", "%", 5, "+5%"},
	}
	for _, tc := range cases {
		if got := addOffset(tc.value, tc.unit, tc.delta); got != tc.want {
			t.Fatalf("addOffset(%q, %q, %d) = %q, want %q", tc.value, tc.unit, tc.delta, got, tc.want)
		}
	}
}

func TestJitterDisabledWithoutRand(t *testing.T) {
	m, err := NewManager(Options{Presets: testPresets(), ActivePreset: "swara"})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	p := tts.Preset{Voice: "v", Rate: "+7%", Pitch: "-3Hz"}
	if got := m.jitter(p); got != p {
		t.Fatalf("jitter without rand should be identity: %+v", got)
	}
}

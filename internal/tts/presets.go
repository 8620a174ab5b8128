package tts

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is one named voice configuration consumed by speech calls.
type Preset struct {
	Voice string `yaml:"voice"`
	Rate  string `yaml:"rate"`
	Pitch string `yaml:"pitch"`
	Style string `yaml:"style"`
}

//go:embed presets.yaml
var presetsYAML []byte

type presetsFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// LoadPresets parses the embedded voice preset table.
func LoadPresets() (map[string]Preset, error) {
	var f presetsFile
	if err := yaml.Unmarshal(presetsYAML, &f); err != nil {
		return nil, fmt.Errorf("parse voice presets: %w", err)
	}
	if len(f.Presets) == 0 {
		return nil, fmt.Errorf("voice preset table is empty")
	}
	out := make(map[string]Preset, len(f.Presets))
	for name, p := range f.Presets {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || strings.TrimSpace(p.Voice) == "" {
			return nil, fmt.Errorf("voice preset %q is invalid", name)
		}
		if p.Rate == "" {
			p.Rate = "+0%"
		}
		if p.Pitch == "" {
			p.Pitch = "+0Hz"
		}
		out[name] = p
	}
	return out, nil
}

// PresetNames returns the preset names sorted for stable display.
func PresetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

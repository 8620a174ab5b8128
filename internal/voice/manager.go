// Package voice owns the bot's presence in guild voice channels: joining the
// caller's channel, deriving speakable text, synthesizing it, and playing it
// back. Playback per guild is last-writer-wins: a new utterance interrupts
// whatever is currently playing.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/speakable"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/tts"
)

// ErrNotInVoice is returned by Join when the requesting user is not in any
// voice channel of the guild.
var ErrNotInVoice = errors.New("user is not in a voice channel")

// Per-utterance prosody offsets, so the voice does not sound machine-flat
// across consecutive utterances. Applied on top of the preset's own values.
var (
	rateJitterPool  = []int{0, 3, 5, -2}    // percent
	pitchJitterPool = []int{0, 20, 40, -10} // Hz
)

// Synthesizer turns speech markup into an MP3 stream.
type Synthesizer interface {
	Synthesize(ctx context.Context, ssml string) ([]byte, error)
}

type Options struct {
	Session      *discordgo.Session
	Synth        Synthesizer
	Presets      map[string]tts.Preset
	ActivePreset string
	Enabled      bool
	NameCallout  bool
	Logger       *slog.Logger
	// Rand drives prosody jitter; nil disables it (presets used verbatim).
	Rand *rand.Rand
}

type Manager struct {
	s           *discordgo.Session
	synth       Synthesizer
	enabled     bool
	nameCallout bool
	log         *slog.Logger
	rng         *rand.Rand

	mu      sync.Mutex
	presets map[string]tts.Preset
	active  string
	conns   map[string]*discordgo.VoiceConnection
	stops   map[string]chan struct{}
	playMu  map[string]*sync.Mutex
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.Presets) == 0 {
		return nil, fmt.Errorf("no voice presets configured")
	}
	if _, ok := opts.Presets[opts.ActivePreset]; !ok {
		return nil, fmt.Errorf("unknown active voice preset %q", opts.ActivePreset)
	}
	return &Manager{
		s:           opts.Session,
		synth:       opts.Synth,
		enabled:     opts.Enabled,
		nameCallout: opts.NameCallout,
		log:         opts.Logger,
		rng:         opts.Rand,
		presets:     opts.Presets,
		active:      opts.ActivePreset,
		conns:       make(map[string]*discordgo.VoiceConnection),
		stops:       make(map[string]chan struct{}),
		playMu:      make(map[string]*sync.Mutex),
	}, nil
}

// Join connects to the voice channel the user currently sits in, moving if
// already connected elsewhere in the guild.
func (m *Manager) Join(ctx context.Context, guildID, userID string) error {
	vs, err := m.s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return ErrNotInVoice
	}

	conn, err := m.s.ChannelVoiceJoin(guildID, vs.ChannelID, false, true)
	if err != nil {
		return fmt.Errorf("voice join: %w", err)
	}

	m.mu.Lock()
	m.conns[guildID] = conn
	m.mu.Unlock()
	m.log.Info("voice_joined", "guild_id", guildID, "channel_id", vs.ChannelID)
	return nil
}

// Leave stops playback and disconnects from the guild's voice channel.
func (m *Manager) Leave(ctx context.Context, guildID string) error {
	m.mu.Lock()
	conn := m.conns[guildID]
	if stop := m.stops[guildID]; stop != nil {
		close(stop)
		delete(m.stops, guildID)
	}
	delete(m.conns, guildID)
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Disconnect(); err != nil {
		return fmt.Errorf("voice disconnect: %w", err)
	}
	m.log.Info("voice_left", "guild_id", guildID)
	return nil
}

func (m *Manager) Connected(guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conns[guildID] != nil
}

// SetPreset switches the process-wide voice preset used by future Speak
// calls.
func (m *Manager) SetPreset(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.presets[name]; !ok {
		return fmt.Errorf("unknown voice preset %q", name)
	}
	m.active = name
	return nil
}

func (m *Manager) PresetNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return tts.PresetNames(m.presets)
}

// Speak derives a speakable variant of text, synthesizes it with the active
// preset (plus prosody jitter), and plays it in the guild's voice channel.
// It is a no-op when synthesis is disabled or the bot is not connected.
func (m *Manager) Speak(ctx context.Context, guildID, text, displayName string) error {
	if !m.enabled {
		return nil
	}
	m.mu.Lock()
	conn := m.conns[guildID]
	preset := m.presets[m.active]
	m.mu.Unlock()
	if conn == nil {
		return nil
	}

	if !m.nameCallout {
		displayName = ""
	}
	res := speakable.ToSpeakable(text, displayName)
	ssml := tts.BuildSSML(res.Body, m.jitter(preset))

	audio, err := m.synth.Synthesize(ctx, ssml)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	return m.play(ctx, guildID, conn, audio)
}

// jitter applies a small random prosody variation on top of the preset's own
// rate and pitch.
func (m *Manager) jitter(p tts.Preset) tts.Preset {
	if m.rng == nil {
		return p
	}
	p.Rate = addOffset(p.Rate, "%", rateJitterPool[m.rng.Intn(len(rateJitterPool))])
	p.Pitch = addOffset(p.Pitch, "Hz", pitchJitterPool[m.rng.Intn(len(pitchJitterPool))])
	return p
}

// addOffset shifts a signed prosody value like "+3%" or "-10Hz" by delta,
// keeping the unit and the explicit sign.
func addOffset(value, unit string, delta int) string {
	base, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSuffix(strings.TrimSpace(value), unit), "+"))
	if err != nil {
		base = 0
	}
	return fmt.Sprintf("%+d%s", base+delta, unit)
}

func (m *Manager) play(ctx context.Context, guildID string, conn *discordgo.VoiceConnection, mp3 []byte) error {
	m.mu.Lock()
	if stop := m.stops[guildID]; stop != nil {
		// Interrupt whatever is playing; the old loop drops out on its own.
		close(stop)
	}
	stop := make(chan struct{})
	m.stops[guildID] = stop
	mu := m.playMu[guildID]
	if mu == nil {
		mu = &sync.Mutex{}
		m.playMu[guildID] = mu
	}
	m.mu.Unlock()

	// Serialize actual frame writing per guild; the interrupted loop holds
	// this until it exits.
	mu.Lock()
	defer mu.Unlock()

	err := playMP3(ctx, conn, mp3, stop)

	m.mu.Lock()
	if m.stops[guildID] == stop {
		delete(m.stops, guildID)
	}
	m.mu.Unlock()
	return err
}

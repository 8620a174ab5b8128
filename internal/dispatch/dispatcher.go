// Package dispatch owns the per-event pipeline: decide whether an inbound
// message deserves a reply, keep concurrent deliveries from double-replying,
// generate and shape the utterance, and hand it to the text and voice
// transports. Every path out of HandleEvent ends in a sent message, a spoken
// utterance, or silence; nothing propagates to the transport layer.
package dispatch

import (
	"context"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/engage"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/retryutil"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/session"
)

// Event is one inbound chat message, already lifted out of the transport's
// own types. ID is unique per delivery and reused on redelivery.
type Event struct {
	ID                string
	SenderID          string
	SenderDisplayName string
	SenderIsSelf      bool
	Text              string
	ChannelID         string
	GuildID           string
	IsDirect          bool
	MentionsSelf      bool
	IsReplyToSelf     bool
}

// Sender posts text to a channel. Implementations own transport caps and
// rate-limit recovery; errors returned here are logged and dropped.
type Sender interface {
	SendText(ctx context.Context, channelID, text string) error
	Typing(ctx context.Context, channelID string) error
}

// VoicePort is the voice-channel side of the transport. Speak is expected to
// be a no-op when synthesis is disabled or the bot is not connected in the
// guild.
type VoicePort interface {
	Join(ctx context.Context, guildID, userID string) error
	Leave(ctx context.Context, guildID string) error
	Connected(guildID string) bool
	Speak(ctx context.Context, guildID, text, displayName string) error
	SetPreset(name string) error
	PresetNames() []string
}

const (
	typingDelayCeiling = 1200 * time.Millisecond
	variationClause    = "Waise, tum apna batao na."
)

var mentionRe = regexp.MustCompile(`<@!?\d+>`)

type Options struct {
	Logger     *slog.Logger
	Guard      *engage.Guard
	Sessions   *session.Store
	Replier    *Replier
	Sender     Sender
	Voice      VoicePort
	Cooldown   time.Duration
	InstanceID string
	Rand       *rand.Rand
}

type Controller struct {
	log        *slog.Logger
	guard      *engage.Guard
	sessions   *session.Store
	replier    *Replier
	sender     Sender
	voice      VoicePort
	cooldown   time.Duration
	instanceID string
	rng        *rand.Rand

	mu          sync.Mutex
	lastReplyAt map[string]time.Time
	inFlight    map[string]bool
	lastReply   map[string]string

	now   func() time.Time
	sleep func(time.Duration)
}

func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 3500 * time.Millisecond
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Controller{
		log:         opts.Logger,
		guard:       opts.Guard,
		sessions:    opts.Sessions,
		replier:     opts.Replier,
		sender:      opts.Sender,
		voice:       opts.Voice,
		cooldown:    opts.Cooldown,
		instanceID:  opts.InstanceID,
		rng:         opts.Rand,
		lastReplyAt: make(map[string]time.Time),
		inFlight:    make(map[string]bool),
		lastReply:   make(map[string]string),
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// SetClock overrides the time and sleep sources, for tests.
func (c *Controller) SetClock(now func() time.Time, sleep func(time.Duration)) {
	c.now = now
	c.sleep = sleep
}

// HandleEvent runs one inbound event through the pipeline. Safe for
// concurrent invocation; events for the same user are shed, not queued, while
// a generation is in flight.
func (c *Controller) HandleEvent(ctx context.Context, ev Event) {
	if ev.SenderIsSelf {
		return
	}
	if c.guard.AlreadyProcessed(ev.ID) {
		c.log.Debug("dispatch_drop_duplicate", "event_id", ev.ID, "channel_id", ev.ChannelID)
		return
	}

	text := strings.TrimSpace(ev.Text)
	if c.routeCommand(ctx, ev, text) {
		return
	}

	if !c.guard.Eligible(engage.Address{
		Scope:         ev.ChannelID,
		Sender:        ev.SenderID,
		IsDirect:      ev.IsDirect,
		MentionsSelf:  ev.MentionsSelf,
		IsReplyToSelf: ev.IsReplyToSelf,
	}) {
		return
	}

	c.mu.Lock()
	if since := c.now().Sub(c.lastReplyAt[ev.SenderID]); since < c.cooldown {
		c.mu.Unlock()
		c.log.Debug("dispatch_drop_cooldown", "user_id", ev.SenderID, "since", since.String())
		return
	}
	if c.inFlight[ev.SenderID] {
		c.mu.Unlock()
		c.log.Debug("dispatch_drop_inflight", "user_id", ev.SenderID, "event_id", ev.ID)
		return
	}
	c.inFlight[ev.SenderID] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.inFlight, ev.SenderID)
		c.mu.Unlock()
	}()

	prompt := strings.TrimSpace(mentionRe.ReplaceAllString(text, ""))
	reply := c.replier.Generate(ctx, ev.SenderID, prompt)
	reply = c.avoidRepeat(ev.SenderID, reply)

	c.typeAndSend(ctx, ev, reply)
	c.speak(ctx, ev, reply)

	c.mu.Lock()
	c.lastReplyAt[ev.SenderID] = c.now()
	c.mu.Unlock()
	c.guard.MarkEngaged(ev.ChannelID, ev.SenderID)
}

// avoidRepeat appends a fixed variation clause when the new reply would
// normalize identically to the previous one sent to this user.
func (c *Controller) avoidRepeat(userID, reply string) string {
	fp := Fingerprint(reply)
	c.mu.Lock()
	defer c.mu.Unlock()
	if fp != "" && fp == c.lastReply[userID] {
		reply = strings.TrimSpace(reply) + " " + variationClause
		fp = Fingerprint(reply)
	}
	c.lastReply[userID] = fp
	return reply
}

// typeAndSend simulates a human typing pause proportional to reply length,
// then sends the reply addressed to the user. Send failures are logged and
// swallowed.
func (c *Controller) typeAndSend(ctx context.Context, ev Event, reply string) {
	reply = strings.TrimSpace(reply)
	if err := c.sender.Typing(ctx, ev.ChannelID); err != nil {
		c.log.Debug("typing_indicator_error", "channel_id", ev.ChannelID, "error", err.Error())
	}
	c.sleep(typingDelay(reply))

	out := "<@" + ev.SenderID + "> " + reply
	if err := c.sender.SendText(ctx, ev.ChannelID, out); err != nil {
		c.log.Warn("send_text_error", "channel_id", ev.ChannelID, "error", err.Error())
	}
}

func typingDelay(reply string) time.Duration {
	d := 350*time.Millisecond + time.Duration(float64(len(reply))/80*220)*time.Millisecond
	if d > typingDelayCeiling {
		d = typingDelayCeiling
	}
	return d
}

func (c *Controller) speak(ctx context.Context, ev Event, reply string) {
	if ev.GuildID == "" || c.voice == nil || !c.voice.Connected(ev.GuildID) {
		return
	}
	if err := c.voice.Speak(ctx, ev.GuildID, reply, ev.SenderDisplayName); err != nil {
		c.log.Warn("voice_speak_error", "guild_id", ev.GuildID, "error", err.Error())
		retryutil.AsyncRetry(c.log, "voice_speak", 2*time.Second, 15*time.Second, func(ctx context.Context) error {
			return c.voice.Speak(ctx, ev.GuildID, reply, ev.SenderDisplayName)
		})
	}
}

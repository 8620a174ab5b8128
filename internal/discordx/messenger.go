package discordx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

const (
	// maxMessageRunes stays under the platform's 2000-char hard cap with
	// headroom for the mention prefix.
	maxMessageRunes = 1700
	// retryMessageRunes is the tighter cap used on the single retry after a
	// rate-limit rejection.
	retryMessageRunes = 1500

	rateLimitBackoff = 4 * time.Second
)

// channelAPI is the slice of the session the messenger uses. *discordgo.Session
// satisfies it.
type channelAPI interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

// Messenger posts text to channels with client-side pacing and one retry on a
// rate-limit rejection.
type Messenger struct {
	api     channelAPI
	limiter *rate.Limiter
	log     *slog.Logger
	sleep   func(time.Duration)
}

type MessengerOptions struct {
	Session channelAPI
	// SendsPerSecond caps the outbound message rate; zero means one per
	// second with a burst of three.
	SendsPerSecond float64
	Logger         *slog.Logger
}

func NewMessenger(opts MessengerOptions) *Messenger {
	if opts.SendsPerSecond <= 0 {
		opts.SendsPerSecond = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Messenger{
		api:     opts.Session,
		limiter: rate.NewLimiter(rate.Limit(opts.SendsPerSecond), 3),
		log:     opts.Logger,
		sleep:   time.Sleep,
	}
}

// SendText posts text to the channel, truncating to the platform cap. On a
// rate-limit rejection it waits and retries once with a shorter body.
func (m *Messenger) SendText(ctx context.Context, channelID, text string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send pacing: %w", err)
	}

	_, err := m.api.ChannelMessageSend(channelID, capRunes(text, maxMessageRunes))
	if err == nil {
		return nil
	}

	retryAfter, rateLimited := rateLimitRetryAfter(err)
	if !rateLimited {
		return fmt.Errorf("send message: %w", err)
	}

	backoff := rateLimitBackoff
	if retryAfter > backoff {
		backoff = retryAfter
	}
	m.log.Warn("send_rate_limited", "channel_id", channelID, "retry_after", backoff.String())
	m.sleep(backoff)

	if _, err := m.api.ChannelMessageSend(channelID, capRunes(text, retryMessageRunes)); err != nil {
		return fmt.Errorf("send message retry: %w", err)
	}
	return nil
}

// Typing flips the channel's typing indicator on; failures are harmless.
func (m *Messenger) Typing(ctx context.Context, channelID string) error {
	return m.api.ChannelTyping(channelID)
}

// rateLimitRetryAfter matches both the value and pointer forms of the
// library's rate-limit error.
func rateLimitRetryAfter(err error) (time.Duration, bool) {
	var p *discordgo.RateLimitError
	if errors.As(err, &p) {
		return p.RetryAfter, true
	}
	var v discordgo.RateLimitError
	if errors.As(err, &v) {
		return v.RetryAfter, true
	}
	return 0, false
}

func capRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

package discordx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestFromMessageCreate(t *testing.T) {
	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "ch1",
		GuildID:   "g1",
		Content:   "<@bot> hello",
		Author:    &discordgo.User{ID: "u1", Username: "rohan", GlobalName: "Rohan K"},
		Member:    &discordgo.Member{Nick: "Ro"},
		Mentions:  []*discordgo.User{{ID: "bot"}},
		ReferencedMessage: &discordgo.Message{
			Author: &discordgo.User{ID: "bot"},
		},
	}}

	ev := FromMessageCreate(m, "bot")
	if ev.ID != "m1" || ev.SenderID != "u1" || ev.ChannelID != "ch1" || ev.GuildID != "g1" {
		t.Fatalf("identity fields wrong: %+v", ev)
	}
	if ev.SenderDisplayName != "Ro" {
		t.Fatalf("nick should win: %q", ev.SenderDisplayName)
	}
	if ev.IsDirect {
		t.Fatalf("guild message flagged as direct")
	}
	if !ev.MentionsSelf || !ev.IsReplyToSelf {
		t.Fatalf("addressing flags wrong: %+v", ev)
	}
	if ev.SenderIsSelf {
		t.Fatalf("sender is not the bot")
	}
}

func TestFromMessageCreateDirect(t *testing.T) {
	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m2",
		ChannelID: "dm1",
		Content:   "hi",
		Author:    &discordgo.User{ID: "u1", Username: "rohan"},
	}}
	ev := FromMessageCreate(m, "bot")
	if !ev.IsDirect {
		t.Fatalf("message without a guild must be direct")
	}
	if ev.MentionsSelf || ev.IsReplyToSelf {
		t.Fatalf("addressing flags wrong: %+v", ev)
	}
	if ev.SenderDisplayName != "rohan" {
		t.Fatalf("username fallback broken: %q", ev.SenderDisplayName)
	}
}

func TestFromMessageCreateSelf(t *testing.T) {
	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:     "m3",
		Author: &discordgo.User{ID: "bot", Username: "disha"},
	}}
	if ev := FromMessageCreate(m, "bot"); !ev.SenderIsSelf {
		t.Fatalf("own message not flagged")
	}
}

type fakeChannelAPI struct {
	sent     []string
	channels []string
	errs     []error
	typed    int
}

func (f *fakeChannelAPI) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, content)
	f.channels = append(f.channels, channelID)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &discordgo.Message{}, nil
}

func (f *fakeChannelAPI) ChannelTyping(channelID string, options ...discordgo.RequestOption) error {
	f.typed++
	return nil
}

func newTestMessenger(api channelAPI) *Messenger {
	m := NewMessenger(MessengerOptions{Session: api, SendsPerSecond: 1000})
	m.sleep = func(time.Duration) {}
	return m
}

func TestSendTextCapsLength(t *testing.T) {
	api := &fakeChannelAPI{}
	m := newTestMessenger(api)

	long := strings.Repeat("x", 3000)
	if err := m.SendText(context.Background(), "ch1", long); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if got := len([]rune(api.sent[0])); got != maxMessageRunes {
		t.Fatalf("sent %d runes, want %d", got, maxMessageRunes)
	}
	if api.channels[0] != "ch1" {
		t.Fatalf("wrong channel %q", api.channels[0])
	}
}

func TestSendTextRetriesOnRateLimit(t *testing.T) {
	api := &fakeChannelAPI{errs: []error{
		discordgo.RateLimitError{RateLimit: &discordgo.RateLimit{
			TooManyRequests: &discordgo.TooManyRequests{RetryAfter: time.Millisecond},
		}},
	}}
	m := newTestMessenger(api)

	long := strings.Repeat("y", 3000)
	if err := m.SendText(context.Background(), "ch1", long); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if len(api.sent) != 2 {
		t.Fatalf("got %d attempts, want 2", len(api.sent))
	}
	if got := len([]rune(api.sent[1])); got != retryMessageRunes {
		t.Fatalf("retry sent %d runes, want %d", got, retryMessageRunes)
	}
}

func TestSendTextOtherErrorNoRetry(t *testing.T) {
	api := &fakeChannelAPI{errs: []error{errors.New("403")}}
	m := newTestMessenger(api)
	if err := m.SendText(context.Background(), "ch1", "hi"); err == nil {
		t.Fatalf("hard error should surface")
	}
	if len(api.sent) != 1 {
		t.Fatalf("hard error must not retry: %d attempts", len(api.sent))
	}
}

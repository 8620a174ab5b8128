package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/session"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/shape"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/llm"
)

type ReplierOptions struct {
	Client   llm.Client
	Model    string
	Sessions *session.Store
	Shaper   *shape.Shaper
	Logger   *slog.Logger

	// MaxUserChars caps the raw user text embedded in the prompt.
	MaxUserChars    int
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
}

// Replier turns user text into a shaped utterance. It never returns an
// error: backend failures collapse into a fixed in-persona fallback.
type Replier struct {
	opts ReplierOptions
}

func NewReplier(opts ReplierOptions) *Replier {
	if opts.MaxUserChars <= 0 {
		opts.MaxUserChars = 600
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = 120
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.85
	}
	if opts.TopP <= 0 {
		opts.TopP = 0.85
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Replier{opts: opts}
}

// Generate runs one model round-trip for the user and shapes the result.
// The turn counter moves only on success; failures and empty responses fall
// back without touching the session.
func (r *Replier) Generate(ctx context.Context, userID, userText string) string {
	if r.opts.Client == nil {
		return r.opts.Shaper.Shape(fallbackOffline)
	}

	prompt := formatContract(capRunes(strings.TrimSpace(userText), r.opts.MaxUserChars))
	history := r.opts.Sessions.History(userID)

	req := llm.Request{
		Model:    r.opts.Model,
		Messages: append(history, llm.Message{Role: llm.RoleUser, Content: prompt}),
		Parameters: map[string]any{
			"temperature": r.opts.Temperature,
			"top_p":       r.opts.TopP,
			"max_tokens":  r.opts.MaxOutputTokens,
		},
	}

	res, err := r.opts.Client.Chat(ctx, req)
	if err != nil {
		r.opts.Logger.Warn("llm_chat_error", "user_id", userID, "error", err.Error())
		return r.opts.Shaper.Shape(fallbackGlitch)
	}
	raw := strings.TrimSpace(res.Text)
	if raw == "" {
		r.opts.Logger.Warn("llm_chat_empty", "user_id", userID)
		return r.opts.Shaper.Shape(fallbackGlitch)
	}

	r.opts.Sessions.RecordTurn(userID, prompt, raw)
	r.opts.Logger.Debug("llm_chat_ok",
		"user_id", userID,
		"turns", r.opts.Sessions.Turns(userID),
		"output_tokens", res.Usage.OutputTokens,
		"duration", res.Duration.String(),
	)
	return r.opts.Shaper.Shape(raw)
}

func capRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

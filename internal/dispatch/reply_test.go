package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/session"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/shape"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/llm"
)

func newReplierHarness(client llm.Client) (*Replier, *session.Store) {
	sessions := session.New(18, SeedHistory())
	r := NewReplier(ReplierOptions{
		Client:   client,
		Model:    "gemini-2.0-flash",
		Sessions: sessions,
		Shaper:   shape.New(shape.Options{FillerRate: 0}),
	})
	return r, sessions
}

func TestGenerateOfflineFallback(t *testing.T) {
	r, sessions := newReplierHarness(nil)
	got := r.Generate(context.Background(), "u1", "hi")
	if !strings.Contains(got, "Network thoda off") {
		t.Fatalf("offline fallback missing: %q", got)
	}
	if sessions.Turns("u1") != 0 {
		t.Fatalf("offline path advanced the turn counter")
	}
}

func TestGenerateSuccessRecordsTurn(t *testing.T) {
	client := &fakeLLM{reply: "Mast din tha aaj! Tumhara kaisa gaya?"}
	r, sessions := newReplierHarness(client)

	got := r.Generate(context.Background(), "u1", "kaisi ho")
	if got == "" || got == shape.Fallback {
		t.Fatalf("unexpected reply %q", got)
	}
	if sessions.Turns("u1") != 1 {
		t.Fatalf("turns = %d, want 1", sessions.Turns("u1"))
	}

	last := client.lastReq.Messages[len(client.lastReq.Messages)-1]
	if last.Role != llm.RoleUser {
		t.Fatalf("last message role = %q", last.Role)
	}
	if !strings.Contains(last.Content, "FORMAT CONTRACT") {
		t.Fatalf("contract missing from prompt: %q", last.Content)
	}
	if !strings.Contains(last.Content, "User: kaisi ho") {
		t.Fatalf("user text missing from prompt: %q", last.Content)
	}
	if client.lastReq.Messages[0].Role != llm.RoleSystem {
		t.Fatalf("history does not start with the system instruction")
	}
}

func TestGenerateEmptyResponseFallsBack(t *testing.T) {
	client := &fakeLLM{reply: "   "}
	r, sessions := newReplierHarness(client)

	got := r.Generate(context.Background(), "u1", "hi")
	if !strings.Contains(got, "glitch") {
		t.Fatalf("glitch fallback missing: %q", got)
	}
	if sessions.Turns("u1") != 0 {
		t.Fatalf("empty response advanced the turn counter")
	}
}

func TestGenerateCapsUserText(t *testing.T) {
	client := &fakeLLM{reply: "Acha."}
	r, _ := newReplierHarness(client)

	long := strings.Repeat("x", 1000)
	r.Generate(context.Background(), "u1", long)
	last := client.lastReq.Messages[len(client.lastReq.Messages)-1]
	if strings.Contains(last.Content, strings.Repeat("x", 601)) {
		t.Fatalf("user text not capped at 600 runes")
	}
	if !strings.Contains(last.Content, strings.Repeat("x", 600)) {
		t.Fatalf("capped user text missing")
	}
}

func TestGenerateSessionRotation(t *testing.T) {
	client := &fakeLLM{reply: "Thik hai."}
	sessions := session.New(2, SeedHistory())
	r := NewReplier(ReplierOptions{
		Client:   client,
		Sessions: sessions,
		Shaper:   shape.New(shape.Options{FillerRate: 0}),
	})
	ctx := context.Background()

	r.Generate(ctx, "u1", "one")
	r.Generate(ctx, "u1", "two")
	if sessions.Turns("u1") != 2 {
		t.Fatalf("turns = %d, want 2", sessions.Turns("u1"))
	}

	// Third call hits the cap: history handed to the model is the bare seed.
	r.Generate(ctx, "u1", "three")
	seedLen := len(SeedHistory())
	if got := len(client.lastReq.Messages); got != seedLen+1 {
		t.Fatalf("rotated history length = %d, want seed(%d)+prompt", got, seedLen)
	}
}

// Package engage decides whether an inbound event deserves a reply at all:
// it is the single authority for event de-duplication and tracks short-lived
// "engagement" windows that let a user keep talking without re-addressing the
// bot every message.
package engage

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultSeenCapacity = 10000

type windowKey struct {
	scope string
	user  string
}

// Address carries the addressing facts the guard needs for an eligibility
// decision.
type Address struct {
	Scope         string
	Sender        string
	IsDirect      bool
	MentionsSelf  bool
	IsReplyToSelf bool
}

type Guard struct {
	seen *lru.Cache[string, struct{}]

	mu           sync.Mutex
	windows      map[windowKey]time.Time
	followWindow time.Duration

	now func() time.Time
}

func New(seenCapacity int, followWindow time.Duration) *Guard {
	if seenCapacity <= 0 {
		seenCapacity = defaultSeenCapacity
	}
	cache, err := lru.New[string, struct{}](seenCapacity)
	if err != nil {
		// Only reachable with a non-positive size, which is guarded above.
		panic(err)
	}
	return &Guard{
		seen:         cache,
		windows:      make(map[windowKey]time.Time),
		followWindow: followWindow,
		now:          time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (g *Guard) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// AlreadyProcessed reports whether eventID was handled before. A fresh ID is
// recorded (evicting the oldest entry when the record is full) and reported
// as new. Check and insert happen under the cache's lock, so concurrent
// redeliveries of the same ID see it as new exactly once.
func (g *Guard) AlreadyProcessed(eventID string) bool {
	present, _ := g.seen.ContainsOrAdd(eventID, struct{}{})
	return present
}

// MarkEngaged opens (or extends) the engagement window for the user in the
// given scope.
func (g *Guard) MarkEngaged(scope, user string) {
	if g.followWindow <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.windows[windowKey{scope, user}] = g.now().Add(g.followWindow)
}

// IsEngaged reports whether the user's window in this scope is still open.
// Expired entries are removed lazily on lookup.
func (g *Guard) IsEngaged(scope, user string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := windowKey{scope, user}
	expiry, ok := g.windows[key]
	if !ok {
		return false
	}
	if !g.now().Before(expiry) {
		delete(g.windows, key)
		return false
	}
	return true
}

// Eligible is the sole gate before a reply is attempted (explicit commands
// bypass it): direct message, explicit address, or an open engagement window.
func (g *Guard) Eligible(a Address) bool {
	if a.IsDirect || a.MentionsSelf || a.IsReplyToSelf {
		return true
	}
	return g.IsEngaged(a.Scope, a.Sender)
}

// Package session holds per-session conversation histories in memory.
//
// Each session owns one ordered message sequence whose first entry is
// always the seeded system message. Histories are append-only except for
// Clear. The store serializes turns per session id while allowing full
// concurrency across distinct ids, and bounds process memory with a TTL
// sweep plus a capped-LRU limit; a session with a turn in flight is
// never evicted.
package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mpujadas/gridchat/llm"
)

const (
	defaultTTL         = 6 * time.Hour
	defaultMaxSessions = 256
)

// Store maps session ids to histories.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*entry
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

// entry.refs counts callers holding or waiting on the entry. It is
// guarded by Store.mu and taken before Store.mu is released, so a
// referenced entry can never be evicted between lookup and lock.
type entry struct {
	mu       sync.Mutex
	refs     int
	messages []llm.Message
	lastSeen time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the idle duration after which a session becomes evictable.
// Zero disables the TTL sweep.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		s.ttl = d
	}
}

// WithMaxSessions caps the number of retained sessions; the least
// recently used are evicted first. Zero disables the cap.
func WithMaxSessions(n int) Option {
	return func(s *Store) {
		s.maxSessions = n
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:    make(map[string]*entry),
		ttl:         defaultTTL,
		maxSessions: defaultMaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is an exclusively held handle on one session's history. It is
// valid until Release; all methods assume the holder's exclusivity.
type Session struct {
	s *Store
	e *entry
}

// Acquire locks the session for one turn, creating it if absent. The
// caller must Release when the turn completes. Turns against the same id
// serialize here; distinct ids proceed in parallel. The entry is
// referenced before the store lock drops, so an eviction pass triggered
// by a concurrent Acquire cannot remove it while the caller is still
// waiting on the session lock.
func (s *Store) Acquire(id string) *Session {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if !ok {
		e = &entry{}
		s.sessions[id] = e
	}
	e.refs++
	e.lastSeen = s.now()
	s.evictLocked()
	s.mu.Unlock()

	e.mu.Lock()
	return &Session{s: s, e: e}
}

// Release unlocks the session and drops its reference.
func (sess *Session) Release() {
	sess.e.mu.Unlock()
	sess.s.unpin(sess.e)
}

// Seed initializes an empty history with a single system message. It is
// idempotent: for an existing history the first-seen prompt wins for the
// session's lifetime, even if a later caller passes different text.
func (sess *Session) Seed(systemPrompt string) {
	if len(sess.e.messages) == 0 {
		sess.e.messages = append(sess.e.messages, llm.Message{
			Role:    llm.RoleSystem,
			Content: systemPrompt,
		})
	}
}

// Append adds a message to the history.
func (sess *Session) Append(msg llm.Message) {
	sess.e.messages = append(sess.e.messages, msg)
}

// History returns a copy of the ordered message sequence.
func (sess *Session) History() []llm.Message {
	out := make([]llm.Message, len(sess.e.messages))
	copy(out, sess.e.messages)
	return out
}

// Len reports the number of stored messages.
func (sess *Session) Len() int {
	return len(sess.e.messages)
}

// Clear resets an existing session to its single seeded system message
// and reports whether a session existed. A missing session is left
// untouched. Clear waits for any in-flight turn on the same id.
func (s *Store) Clear(id string) bool {
	e, ok := s.pin(id)
	if !ok {
		return false
	}
	defer s.unpin(e)

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.messages) > 1 {
		e.messages = e.messages[:1]
	}
	return true
}

// Visible returns the user and assistant messages with non-whitespace
// content, in original order, reduced to role and content. System and
// tool messages, and assistant turns that only carried tool calls, are
// filtered out for external display.
func (s *Store) Visible(id string) []llm.Message {
	e, ok := s.pin(id)
	if !ok {
		return nil
	}
	defer s.unpin(e)

	e.mu.Lock()
	defer e.mu.Unlock()

	var out []llm.Message
	for _, msg := range e.messages {
		if msg.Role != llm.RoleUser && msg.Role != llm.RoleAssistant {
			continue
		}
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		out = append(out, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// Count reports the number of retained sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// pin looks up an entry and takes a reference on it under the store
// lock, shielding it from eviction until unpin.
func (s *Store) pin(id string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.refs++
	return e, true
}

func (s *Store) unpin(e *entry) {
	s.mu.Lock()
	e.refs--
	s.mu.Unlock()
}

// evictLocked applies the TTL and LRU policies. Callers hold s.mu.
// Referenced entries, including the one the calling Acquire just
// resolved, are never evicted.
func (s *Store) evictLocked() {
	now := s.now()

	if s.ttl > 0 {
		for id, e := range s.sessions {
			if e.refs > 0 || now.Sub(e.lastSeen) <= s.ttl {
				continue
			}
			delete(s.sessions, id)
		}
	}

	if s.maxSessions > 0 && len(s.sessions) > s.maxSessions {
		type aged struct {
			id   string
			seen time.Time
		}
		candidates := make([]aged, 0, len(s.sessions))
		for id, e := range s.sessions {
			if e.refs > 0 {
				continue
			}
			candidates = append(candidates, aged{id: id, seen: e.lastSeen})
		}
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].seen.Before(candidates[j].seen)
		})
		for _, c := range candidates {
			if len(s.sessions) <= s.maxSessions {
				break
			}
			delete(s.sessions, c.id)
		}
	}
}

// Package session provides the session manager and refresh-token storage.
package session

import (
	"sync"
	"time"
)

// Session is a resolved staff identity for one token.
type Session struct {
	ProfileID string
	Name      string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventRefreshed EventKind = "refreshed"
	EventSignedOut EventKind = "signed_out"
)

type Event struct {
	Kind    EventKind
	Session Session
	At      time.Time
}

// Manager tracks live sessions keyed by token id and broadcasts lifecycle
// changes to subscribers. Callers always go through CurrentSession; there is
// no package-level singleton to reach around it.
type Manager struct {
	mu      sync.RWMutex
	active  map[string]Session
	nextSub int
	subs    map[int]chan Event
}

func NewManager() *Manager {
	return &Manager{
		active: make(map[string]Session),
		subs:   make(map[int]chan Event),
	}
}

// CurrentSession returns the live session for a token id, if any. Expired
// entries are treated as absent and dropped lazily.
func (m *Manager) CurrentSession(jti string) (Session, bool) {
	m.mu.RLock()
	sess, ok := m.active[jti]
	m.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if time.Now().After(sess.ExpiresAt) {
		m.mu.Lock()
		delete(m.active, jti)
		m.mu.Unlock()
		return Session{}, false
	}
	return sess, true
}

// Begin registers a session and notifies subscribers.
func (m *Manager) Begin(sess Session) {
	m.mu.Lock()
	m.active[sess.JTI] = sess
	m.mu.Unlock()
	m.broadcast(Event{Kind: EventSignedIn, Session: sess, At: time.Now()})
}

// Refresh replaces a session under a new token id.
func (m *Manager) Refresh(oldJTI string, sess Session) {
	m.mu.Lock()
	delete(m.active, oldJTI)
	m.active[sess.JTI] = sess
	m.mu.Unlock()
	m.broadcast(Event{Kind: EventRefreshed, Session: sess, At: time.Now()})
}

// End removes a session and notifies subscribers. Ending an unknown token id
// is a no-op.
func (m *Manager) End(jti string) {
	m.mu.Lock()
	sess, ok := m.active[jti]
	if ok {
		delete(m.active, jti)
	}
	m.mu.Unlock()
	if ok {
		m.broadcast(Event{Kind: EventSignedOut, Session: sess, At: time.Now()})
	}
}

// Subscribe returns a channel of session change events and a cancel function.
// Slow subscribers drop events rather than block sign-in.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

func (m *Manager) broadcast(ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

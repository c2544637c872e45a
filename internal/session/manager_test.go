package session

import (
	"testing"
	"time"
)

func TestManagerCurrentSession(t *testing.T) {
	m := NewManager()

	if _, ok := m.CurrentSession("jti-1"); ok {
		t.Fatal("unknown token id resolved")
	}

	m.Begin(Session{ProfileID: "prf-1", Name: "Mira", Role: "manager", JTI: "jti-1", ExpiresAt: time.Now().Add(time.Hour)})

	sess, ok := m.CurrentSession("jti-1")
	if !ok {
		t.Fatal("session not found after Begin")
	}
	if sess.ProfileID != "prf-1" || sess.Role != "manager" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	m.End("jti-1")
	if _, ok := m.CurrentSession("jti-1"); ok {
		t.Fatal("session still resolvable after End")
	}
}

func TestManagerExpiredSessionIsAbsent(t *testing.T) {
	m := NewManager()
	m.Begin(Session{ProfileID: "prf-1", JTI: "jti-1", ExpiresAt: time.Now().Add(-time.Second)})

	if _, ok := m.CurrentSession("jti-1"); ok {
		t.Fatal("expired session resolved")
	}
}

func TestManagerSubscribe(t *testing.T) {
	m := NewManager()
	events, cancel := m.Subscribe()
	defer cancel()

	m.Begin(Session{ProfileID: "prf-1", JTI: "jti-1", ExpiresAt: time.Now().Add(time.Hour)})
	m.Refresh("jti-1", Session{ProfileID: "prf-1", JTI: "jti-2", ExpiresAt: time.Now().Add(time.Hour)})
	m.End("jti-2")

	wantKinds := []EventKind{EventSignedIn, EventRefreshed, EventSignedOut}
	for _, want := range wantKinds {
		select {
		case ev := <-events:
			if ev.Kind != want {
				t.Fatalf("event = %s, want %s", ev.Kind, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestManagerEndUnknownIsNoop(t *testing.T) {
	m := NewManager()
	events, cancel := m.Subscribe()
	defer cancel()

	m.End("never-issued")

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %s", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManagerCancelledSubscriberStopsReceiving(t *testing.T) {
	m := NewManager()
	events, cancel := m.Subscribe()
	cancel()

	m.Begin(Session{ProfileID: "prf-1", JTI: "jti-1", ExpiresAt: time.Now().Add(time.Hour)})

	if _, open := <-events; open {
		t.Fatal("channel still open after cancel")
	}
}

package chat

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/mahaj/chatroom/pkg/model"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "m" + strconv.Itoa(s.n)
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(time.Millisecond)
	return t
}

func testBuilder() Builder {
	return Builder{
		IDs:   &seqIDs{},
		Clock: &stepClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
}

// fakeChannel records sends and lets tests push inbound messages.
type fakeChannel struct {
	mu      sync.Mutex
	sent    []model.Message
	in      chan model.Message
	sendErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{in: make(chan model.Message, 16)}
}

func (f *fakeChannel) Send(_ context.Context, msg model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.sendErr
}

func (f *fakeChannel) Inbound() <-chan model.Message { return f.in }

func (f *fakeChannel) Sent() []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Message(nil), f.sent...)
}

// fakeMembership records leave calls together with the store length at the
// time of the call, so tests can check ordering against the Left message.
type fakeMembership struct {
	mu       sync.Mutex
	store    *Store
	calls    []model.User
	lenAtHit []int
	err      error
}

func (f *fakeMembership) Leave(_ context.Context, user model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, user)
	if f.store != nil {
		f.lenAtHit = append(f.lenAtHit, f.store.Len())
	}
	return f.err
}

func (f *fakeMembership) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// manualShutdown fires registered listeners on demand.
type manualShutdown struct {
	mu        sync.Mutex
	listeners map[int]func()
	next      int
	stops     int
}

func newManualShutdown() *manualShutdown {
	return &manualShutdown{listeners: make(map[int]func())}
}

func (m *manualShutdown) Notify(fn func()) func() {
	m.mu.Lock()
	id := m.next
	m.next++
	m.listeners[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.listeners[id]; ok {
			delete(m.listeners, id)
			m.stops++
		}
	}
}

func (m *manualShutdown) Fire() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (m *manualShutdown) Registered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

var (
	alice = model.User{ID: "u1", Username: "Alice"}
	bob   = model.User{ID: "u2", Username: "Bob", UserAvatar: "https://example.com/bob.png"}
)

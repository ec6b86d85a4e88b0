package chat

import (
	"sync"

	"github.com/mahaj/chatroom/pkg/model"
)

// Appended is delivered to subscribers after every append. Len is the log
// length including Message, which is what the feed scrolls on.
type Appended struct {
	Message model.Message
	Len     int
}

// Store is the append-only message log of the active room.
type Store struct {
	// appendMu serializes Append together with its notifications so that
	// subscribers observe appends in log order.
	appendMu sync.Mutex

	mu       sync.RWMutex
	messages []model.Message
	subs     []subscriber
	nextSub  int
}

type subscriber struct {
	id int
	fn func(Appended)
}

func NewStore() *Store {
	return &Store{}
}

// Append adds msg to the end of the log and notifies subscribers before
// returning. There is no dedup by id. Subscribers must not call Append.
func (s *Store) Append(msg model.Message) {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	n := len(s.messages)
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	ev := Appended{Message: msg, Len: n}
	for _, sub := range subs {
		sub.fn(ev)
	}
}

// Messages returns a copy of the whole log in append order.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// At returns the i-th message of the log (0-based).
func (s *Store) At(i int) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.messages) {
		return model.Message{}, false
	}
	return s.messages[i], true
}

// Subscribe registers fn for every subsequent append, in subscription order.
// The returned func removes it.
func (s *Store) Subscribe(fn func(Appended)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

package chat

import (
	"context"
	"sync"

	"github.com/mahaj/chatroom/pkg/model"
	"github.com/rs/zerolog/log"
)

type State int

const (
	NotJoined State = iota
	Joined
	Left
)

func (s State) String() string {
	switch s {
	case NotJoined:
		return "not_joined"
	case Joined:
		return "joined"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Session drives one user's membership of one room: NotJoined -> Joined ->
// Left. Left is terminal; rejoining takes a new Session.
type Session struct {
	user     model.User
	builder  Builder
	out      Publisher
	members  Membership
	shutdown ShutdownNotifier

	mu    sync.Mutex
	state State
	stop  func()
	done  chan struct{}
}

func NewSession(user model.User, builder Builder, out Publisher, members Membership, shutdown ShutdownNotifier) *Session {
	return &Session{
		user:     user,
		builder:  builder,
		out:      out,
		members:  members,
		shutdown: shutdown,
		done:     make(chan struct{}),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the session has left the room.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start joins the room: it publishes "<username> Joined" and subscribes to
// the shutdown notifier. Only the first call has any effect.
func (s *Session) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.state != NotJoined {
		s.mu.Unlock()
		return false
	}
	s.state = Joined
	s.mu.Unlock()

	s.out.Publish(ctx, s.builder.System(s.user, s.user.Username+" Joined"))
	log.Info().Str("user", s.user.ID).Msg("joined room")

	if s.shutdown == nil {
		return true
	}
	stop := s.shutdown.Notify(func() {
		s.Leave(context.Background())
	})

	s.mu.Lock()
	if s.state == Left {
		// Left while registering; nothing left to listen for.
		s.mu.Unlock()
		stop()
		return true
	}
	s.stop = stop
	s.mu.Unlock()
	return true
}

// Leave moves Joined to Left: it publishes "<username> Left" and then tells
// the membership channel. Whichever trigger comes first wins; every later
// call, and any call before Start, returns false and does nothing.
func (s *Session) Leave(ctx context.Context) bool {
	s.mu.Lock()
	if s.state != Joined {
		s.mu.Unlock()
		return false
	}
	s.state = Left
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	s.out.Publish(ctx, s.builder.System(s.user, s.user.Username+" Left"))
	if s.members != nil {
		if err := s.members.Leave(ctx, s.user); err != nil {
			log.Warn().Err(err).Str("user", s.user.ID).Msg("membership leave failed")
		}
	}
	log.Info().Str("user", s.user.ID).Msg("left room")

	if stop != nil {
		stop()
	}
	close(s.done)
	return true
}

// Close deregisters the shutdown listener without leaving. It is the teardown
// hook of the view that owns the session.
func (s *Session) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

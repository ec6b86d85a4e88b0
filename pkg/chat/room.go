// Package chat holds the client-side message and session state of one room:
// the message log, the reply target, the composer and the join/leave lifecycle.
package chat

import (
	"context"

	"github.com/mahaj/chatroom/pkg/idgen"
	"github.com/mahaj/chatroom/pkg/model"
	"github.com/rs/zerolog/log"
)

// MessageChannel publishes messages to the other participants and delivers
// theirs. Send is fire-and-forget from the caller's point of view.
type MessageChannel interface {
	Send(ctx context.Context, msg model.Message) error
	Inbound() <-chan model.Message
}

// Membership is the room registry. Join is implicit.
type Membership interface {
	Leave(ctx context.Context, user model.User) error
}

// ShutdownNotifier calls fn when the host environment is going away. stop
// deregisters fn.
type ShutdownNotifier interface {
	Notify(fn func()) (stop func())
}

// Publisher is where finished messages go.
type Publisher interface {
	Publish(ctx context.Context, msg model.Message)
}

// Builder constructs messages with injected id and clock sources.
type Builder struct {
	IDs   model.IDGenerator
	Clock model.Clock
}

// DefaultBuilder uses random UUIDs and the wall clock.
func DefaultBuilder() Builder {
	return Builder{IDs: idgen.UUID{}, Clock: model.SystemClock{}}
}

func (b Builder) Text(user model.User, content string, reply *model.MessageDetail) model.Message {
	return model.New(b.IDs, b.Clock, model.TypeText, user, content, reply)
}

func (b Builder) System(user model.User, content string) model.Message {
	return model.New(b.IDs, b.Clock, model.TypeSystem, user, content, nil)
}

// Room ties the local log to the message channel. Local and remote messages
// are treated the same once they reach the store.
type Room struct {
	store   *Store
	channel MessageChannel
}

func NewRoom(store *Store, channel MessageChannel) *Room {
	return &Room{store: store, channel: channel}
}

func (r *Room) Store() *Store { return r.store }

// Publish appends msg locally, then hands it to the channel. Channel errors
// are logged and otherwise ignored.
func (r *Room) Publish(ctx context.Context, msg model.Message) {
	r.store.Append(msg)
	if r.channel == nil {
		return
	}
	if err := r.channel.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Str("msg_id", msg.ID).Msg("send failed")
	}
}

// Receive appends inbound messages in arrival order until the channel closes
// or ctx is done.
func (r *Room) Receive(ctx context.Context) error {
	if r.channel == nil {
		return nil
	}
	in := r.channel.Inbound()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			r.store.Append(msg)
		}
	}
}

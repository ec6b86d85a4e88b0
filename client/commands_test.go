package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mahaj/chatroom/pkg/chat"
	"github.com/mahaj/chatroom/pkg/model"
)

func newPrompt(t *testing.T) (*prompt, *bytes.Buffer) {
	t.Helper()
	me := model.User{ID: "u1", Username: "Alice"}
	store := chat.NewStore()
	reply := chat.NewReplyContext()
	room := chat.NewRoom(store, nil)
	builder := chat.DefaultBuilder()
	var errOut bytes.Buffer
	p := &prompt{
		me:       me.Username,
		store:    store,
		reply:    reply,
		composer: chat.NewComposer(me, builder, room, reply),
		session:  chat.NewSession(me, builder, room, nil, nil),
		errOut:   &errOut,
	}
	return p, &errOut
}

func TestPromptSendsLines(t *testing.T) {
	p, _ := newPrompt(t)
	ctx := context.Background()

	p.handle(ctx, "  hello  ")
	p.handle(ctx, "   ")

	msgs := p.store.Messages()
	if len(msgs) != 1 {
		t.Fatalf("store has %d messages, want 1", len(msgs))
	}
	if msgs[0].Main.Content != "hello" || msgs[0].Type != model.TypeText {
		t.Errorf("message = %+v", msgs[0])
	}
}

func TestPromptContinuationLines(t *testing.T) {
	p, _ := newPrompt(t)
	ctx := context.Background()

	p.handle(ctx, `first\`)
	if p.store.Len() != 0 {
		t.Fatal("continuation line was sent")
	}
	p.handle(ctx, "/not a command")

	msgs := p.store.Messages()
	if len(msgs) != 1 || msgs[0].Main.Content != "first\n/not a command" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestPromptReplyCommands(t *testing.T) {
	p, errOut := newPrompt(t)
	ctx := context.Background()
	p.store.Append(model.Message{ID: "m1", Type: model.TypeText, Main: model.MessageDetail{ID: "u2", Username: "Bob", Content: "lunch?"}})

	p.handle(ctx, "/reply 1")
	if d := p.reply.Pending(); d == nil || d.Username != "Bob" {
		t.Fatalf("pending = %+v", d)
	}
	p.handle(ctx, "/cancel")
	if p.reply.Pending() != nil {
		t.Fatal("/cancel kept the reply")
	}

	p.handle(ctx, "/reply 1")
	p.handle(ctx, "sure")
	last, _ := p.store.At(p.store.Len() - 1)
	if last.Reply == nil || last.Reply.Content != "lunch?" {
		t.Errorf("reply not attached: %+v", last)
	}
	if p.reply.Pending() != nil {
		t.Error("reply still pending after send")
	}

	for _, bad := range []string{"/reply", "/reply x", "/reply 9", "/reply 2", "/dance"} {
		errOut.Reset()
		p.handle(ctx, bad)
		if errOut.Len() == 0 {
			t.Errorf("%q printed no error", bad)
		}
	}
}

func TestPromptQuitLeaves(t *testing.T) {
	p, _ := newPrompt(t)
	ctx := context.Background()
	p.session.Start(ctx)

	p.handle(ctx, "/quit")
	p.handle(ctx, "/quit")

	select {
	case <-p.session.Done():
	default:
		t.Fatal("session not done after /quit")
	}
	var left int
	for _, m := range p.store.Messages() {
		if m.Type == model.TypeSystem && strings.HasSuffix(m.Main.Content, " Left") {
			left++
		}
	}
	if left != 1 {
		t.Errorf("got %d Left messages, want 1", left)
	}
}

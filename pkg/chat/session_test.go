package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/mahaj/chatroom/pkg/model"
)

type sessionFixture struct {
	store    *Store
	channel  *fakeChannel
	members  *fakeMembership
	shutdown *manualShutdown
	session  *Session
	composer *Composer
}

func newSessionFixture() *sessionFixture {
	store := NewStore()
	ch := newFakeChannel()
	room := NewRoom(store, ch)
	members := &fakeMembership{store: store}
	sd := newManualShutdown()
	b := testBuilder()
	return &sessionFixture{
		store:    store,
		channel:  ch,
		members:  members,
		shutdown: sd,
		session:  NewSession(alice, b, room, members, sd),
		composer: NewComposer(alice, b, room, NewReplyContext()),
	}
}

func TestSessionJoinBeforeText(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	if !f.session.Start(ctx) {
		t.Fatal("Start returned false")
	}
	f.composer.SetText("hi all")
	f.composer.Submit(ctx)

	msgs := f.store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	join := msgs[0]
	if join.Type != model.TypeSystem || join.Main.Content != "Alice Joined" || join.Reply != nil {
		t.Errorf("join message = %+v", join)
	}
	if msgs[1].Type != model.TypeText {
		t.Errorf("second message type = %s, want TEXT", msgs[1].Type)
	}
	if f.session.State() != Joined {
		t.Errorf("state = %s, want joined", f.session.State())
	}
	if f.shutdown.Registered() != 1 {
		t.Errorf("shutdown listeners = %d, want 1", f.shutdown.Registered())
	}
	if f.session.Start(ctx) {
		t.Error("second Start returned true")
	}
	if f.store.Len() != 2 {
		t.Error("second Start appended a message")
	}
}

func TestSessionLeaveTriggers(t *testing.T) {
	tests := []struct {
		name  string
		leave func(f *sessionFixture)
	}{
		{"explicit", func(f *sessionFixture) { f.session.Leave(context.Background()) }},
		{"shutdown signal", func(f *sessionFixture) { f.shutdown.Fire() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			f.session.Start(context.Background())

			tt.leave(f)

			msgs := f.store.Messages()
			if len(msgs) != 2 {
				t.Fatalf("len = %d, want 2", len(msgs))
			}
			left := msgs[1]
			if left.Type != model.TypeSystem || left.Main.Content != "Alice Left" || left.Reply != nil {
				t.Errorf("leave message = %+v", left)
			}
			if f.members.Calls() != 1 {
				t.Fatalf("membership calls = %d, want 1", f.members.Calls())
			}
			if f.members.calls[0] != alice {
				t.Errorf("membership leave user = %+v", f.members.calls[0])
			}
			if f.members.lenAtHit[0] != 2 {
				t.Errorf("membership called with store len %d, want the Left message appended first", f.members.lenAtHit[0])
			}
			if f.shutdown.Registered() != 0 {
				t.Error("shutdown listener still registered after leave")
			}
			select {
			case <-f.session.Done():
			default:
				t.Error("Done not closed after leave")
			}

			// Both triggers a second time.
			f.session.Leave(context.Background())
			f.shutdown.Fire()
			if f.store.Len() != 2 || f.members.Calls() != 1 {
				t.Errorf("after repeat: len %d, calls %d; want 2, 1", f.store.Len(), f.members.Calls())
			}
			if sent := f.channel.Sent(); len(sent) != 2 {
				t.Errorf("channel sends = %d, want 2", len(sent))
			}
		})
	}
}

func TestSessionLeaveRace(t *testing.T) {
	f := newSessionFixture()
	f.session.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.session.Leave(context.Background())
		}()
		go func() {
			defer wg.Done()
			f.shutdown.Fire()
		}()
	}
	wg.Wait()

	if f.members.Calls() != 1 {
		t.Errorf("membership calls = %d, want 1", f.members.Calls())
	}
	if f.store.Len() != 2 {
		t.Errorf("store len = %d, want 2", f.store.Len())
	}
}

func TestSessionLeaveBeforeStart(t *testing.T) {
	f := newSessionFixture()
	if f.session.Leave(context.Background()) {
		t.Error("Leave before Start returned true")
	}
	if f.store.Len() != 0 || f.members.Calls() != 0 {
		t.Error("Leave before Start had effects")
	}
	if f.session.State() != NotJoined {
		t.Errorf("state = %s", f.session.State())
	}
}

func TestSessionNoRejoin(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.session.Start(ctx)
	f.session.Leave(ctx)
	if f.session.Start(ctx) {
		t.Error("Start after Left returned true")
	}
	if f.session.State() != Left {
		t.Errorf("state = %s, want left", f.session.State())
	}
}

func TestSessionCloseDeregisters(t *testing.T) {
	f := newSessionFixture()
	f.session.Start(context.Background())
	f.session.Close()

	if f.shutdown.Registered() != 0 {
		t.Fatal("listener still registered after Close")
	}
	f.shutdown.Fire()
	if f.members.Calls() != 0 {
		t.Error("shutdown after Close triggered leave")
	}
	if f.session.State() != Joined {
		t.Errorf("state = %s, want joined", f.session.State())
	}
}

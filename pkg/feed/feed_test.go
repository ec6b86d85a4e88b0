package feed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mahaj/chatroom/pkg/chat"
	"github.com/mahaj/chatroom/pkg/model"
)

const createdAt = 1714564800000

func stamp() string {
	return time.UnixMilli(createdAt).Format(timeLayout)
}

func TestRendererPrintsOnAppend(t *testing.T) {
	var buf bytes.Buffer
	store := chat.NewStore()
	reply := chat.NewReplyContext()
	r := NewRenderer(&buf, "Alice")
	detach := r.Attach(store, reply)

	store.Append(model.Message{ID: "1", Type: model.TypeSystem, Main: model.MessageDetail{Username: "Alice", Content: "Alice Joined"}, CreatedAt: createdAt})
	store.Append(model.Message{ID: "2", Type: model.TypeText, Main: model.MessageDetail{Username: "Bob", Content: "lunch?"}, CreatedAt: createdAt})
	store.Append(model.Message{
		ID:        "3",
		Type:      model.TypeText,
		Main:      model.MessageDetail{Username: "Alice", Content: "sure"},
		Reply:     &model.MessageDetail{Username: "Bob", Content: "lunch?"},
		CreatedAt: createdAt,
	})

	out := buf.String()
	for _, want := range []string{"Alice Joined", "lunch?", "#2", "↪ Bob: lunch?", "sure", stamp()} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "#3") {
		t.Errorf("own message got a reply tag:\n%s", out)
	}

	detach()
	buf.Reset()
	store.Append(model.Message{ID: "4", Type: model.TypeText, Main: model.MessageDetail{Username: "Bob", Content: "after"}})
	if buf.Len() != 0 {
		t.Errorf("renderer still attached: %q", buf.String())
	}
}

func TestRendererReplyPreview(t *testing.T) {
	var buf bytes.Buffer
	reply := chat.NewReplyContext()
	r := NewRenderer(&buf, "Alice")
	r.Attach(chat.NewStore(), reply)

	reply.Set(&model.MessageDetail{Username: "Bob", Content: "multi\nline   text"})
	if !strings.Contains(buf.String(), "replying to Bob: multi line text") {
		t.Errorf("preview = %q", buf.String())
	}

	buf.Reset()
	reply.Clear()
	if buf.Len() != 0 {
		t.Errorf("clearing printed %q", buf.String())
	}
}

func TestViewKeepsLogOrder(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, "Alice")
	view := r.View([]model.Message{
		{Type: model.TypeText, Main: model.MessageDetail{Username: "Bob", Content: "first"}, CreatedAt: createdAt},
		{Type: model.TypeText, Main: model.MessageDetail{Username: "Carol", Content: "second"}, CreatedAt: createdAt},
	})
	if i, j := strings.Index(view, "first"), strings.Index(view, "second"); i < 0 || j < 0 || i > j {
		t.Errorf("view order wrong:\n%s", view)
	}
}

func TestReplyTarget(t *testing.T) {
	store := chat.NewStore()
	store.Append(model.Message{Type: model.TypeSystem, Main: model.MessageDetail{Username: "Bob", Content: "Bob Joined"}})
	store.Append(model.Message{Type: model.TypeText, Main: model.MessageDetail{ID: "u2", Username: "Bob", Content: "hey"}})
	store.Append(model.Message{Type: model.TypeText, Main: model.MessageDetail{ID: "u1", Username: "Alice", Content: "yo"}})

	tests := []struct {
		n       int
		wantErr bool
	}{
		{0, true},
		{1, true},
		{2, false},
		{3, true},
		{4, true},
	}
	for _, tt := range tests {
		d, err := ReplyTarget(store, tt.n, "Alice")
		if (err != nil) != tt.wantErr {
			t.Errorf("ReplyTarget(%d) err = %v, wantErr %v", tt.n, err, tt.wantErr)
			continue
		}
		if err == nil && (d.Username != "Bob" || d.Content != "hey") {
			t.Errorf("ReplyTarget(%d) = %+v", tt.n, d)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("hello world", 6); got != "hello…" {
		t.Errorf("truncate long = %q", got)
	}
}

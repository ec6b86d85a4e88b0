package chat

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mahaj/chatroom/pkg/model"
)

// MaxContentLength caps the input text, in runes.
const MaxContentLength = 500

// Composer is the input surface of a room: the text being typed, the
// composition state and the pending reply that the next message will carry.
type Composer struct {
	user    model.User
	builder Builder
	out     Publisher
	reply   *ReplyContext
	ime     CompositionTracker

	mu   sync.Mutex
	text string
}

func NewComposer(user model.User, builder Builder, out Publisher, reply *ReplyContext) *Composer {
	return &Composer{user: user, builder: builder, out: out, reply: reply}
}

// Composition exposes the tracker so the input surface can forward
// composition start/end signals.
func (c *Composer) Composition() *CompositionTracker { return &c.ime }

// SetText replaces the input text, cut to MaxContentLength runes.
func (c *Composer) SetText(s string) {
	c.mu.Lock()
	c.text = truncate(s, MaxContentLength)
	c.mu.Unlock()
}

func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// HandleKey processes a keystroke. It returns true when the key was taken as
// a submission. Shift+Enter outside a composition inserts a newline; Enter
// during a composition belongs to the input method.
func (c *Composer) HandleKey(ctx context.Context, ev KeyEvent) bool {
	if c.ime.ShouldSubmit(ev) {
		c.Submit(ctx)
		return true
	}
	if ev.Key == KeyEnter && ev.Shift && !c.ime.IsComposing() {
		c.SetText(c.Text() + "\n")
	}
	return false
}

// Submit sends the current text. Whitespace-only text is discarded without
// error. Either way the input text and the pending reply are reset. The
// message carries the trimmed text.
func (c *Composer) Submit(ctx context.Context) (model.Message, bool) {
	c.mu.Lock()
	content := strings.TrimSpace(c.text)
	c.text = ""
	c.mu.Unlock()

	if content == "" {
		c.reply.Clear()
		return model.Message{}, false
	}

	msg := c.builder.Text(c.user, content, c.reply.Take())
	c.out.Publish(ctx, msg)
	return msg, true
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// Package feed renders a room's message log to a terminal.
package feed

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mahaj/chatroom/pkg/chat"
	"github.com/mahaj/chatroom/pkg/model"
)

const (
	timeLayout   = "01/02 15:04:05"
	defaultWidth = 72
	bubbleWidth  = 48
	quoteWidth   = 40
)

var (
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	bodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	quoteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	bubble      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	previewBar  = lipgloss.NewStyle().Background(lipgloss.Color("252")).Foreground(lipgloss.Color("236")).Padding(0, 1)
)

// Renderer prints each appended message as it arrives, which keeps the newest
// entry at the bottom of the terminal, and shows the pending reply.
type Renderer struct {
	mu    sync.Mutex
	out   io.Writer
	me    string
	width int
}

func NewRenderer(out io.Writer, username string) *Renderer {
	return &Renderer{out: out, me: username, width: defaultWidth}
}

// SetWidth changes the terminal width used for alignment.
func (r *Renderer) SetWidth(w int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w > 0 {
		r.width = w
	}
}

// Attach subscribes the renderer to store and reply and returns the func that
// detaches it from the store.
func (r *Renderer) Attach(store *chat.Store, reply *chat.ReplyContext) (detach func()) {
	reply.OnChange(r.showReply)
	return store.Subscribe(func(ev chat.Appended) {
		r.mu.Lock()
		defer r.mu.Unlock()
		fmt.Fprintln(r.out, r.entry(ev.Len, ev.Message))
	})
}

// View renders the whole log, for redraws.
func (r *Renderer) View(msgs []model.Message) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]string, len(msgs))
	for i, m := range msgs {
		entries[i] = r.entry(i+1, m)
	}
	return strings.Join(entries, "\n")
}

func (r *Renderer) showReply(d *model.MessageDetail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d == nil {
		return
	}
	line := fmt.Sprintf("replying to %s: %s  (/cancel)", d.Username, truncate(oneLine(d.Content), quoteWidth))
	fmt.Fprintln(r.out, previewBar.Render(line))
}

// entry renders one message with its 1-based position in the log. The number
// is what /reply takes.
func (r *Renderer) entry(n int, m model.Message) string {
	if m.Type == model.TypeSystem {
		text := systemStyle.Render(fmt.Sprintf("-- %s · %s --", m.Main.Content, m.Time().Format(timeLayout)))
		return lipgloss.PlaceHorizontal(r.width, lipgloss.Center, text)
	}

	mine := m.Main.Username == r.me

	var parts []string
	if m.Reply != nil {
		quote := fmt.Sprintf("↪ %s: %s", m.Reply.Username, truncate(oneLine(m.Reply.Content), quoteWidth))
		parts = append(parts, quoteStyle.Render(quote))
	}
	parts = append(parts,
		nameStyle.Render(m.Main.Username),
		bodyStyle.Width(bubbleWidth).Render(m.Main.Content),
		metaStyle.Render(m.Time().Format(timeLayout)),
	)
	box := bubble.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	if mine {
		return lipgloss.PlaceHorizontal(r.width, lipgloss.Right, box)
	}
	// Only other people's messages can be replied to.
	tag := metaStyle.Render(fmt.Sprintf("#%d", n))
	return lipgloss.JoinHorizontal(lipgloss.Bottom, box, " ", tag)
}

// ReplyTarget returns the detail /reply <n> should select: the n-th entry of
// the log when it is someone else's TEXT message.
func ReplyTarget(store *chat.Store, n int, me string) (*model.MessageDetail, error) {
	m, ok := store.At(n - 1)
	if !ok {
		return nil, fmt.Errorf("no message #%d", n)
	}
	if m.Type != model.TypeText {
		return nil, fmt.Errorf("message #%d is a system message", n)
	}
	if m.Main.Username == me {
		return nil, fmt.Errorf("message #%d is your own", n)
	}
	d := m.Main
	return &d, nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

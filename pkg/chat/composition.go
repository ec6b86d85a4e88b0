package chat

import "sync"

type Key int

const (
	KeyOther Key = iota
	KeyEnter
)

// KeyEvent is a keystroke reported by the input surface.
type KeyEvent struct {
	Key   Key
	Shift bool
}

// CompositionTracker tells a committing Enter apart from an Enter that an input
// method editor uses to confirm a candidate.
type CompositionTracker struct {
	mu        sync.Mutex
	composing bool
}

// Start is called on the composition-start signal.
func (c *CompositionTracker) Start() {
	c.mu.Lock()
	c.composing = true
	c.mu.Unlock()
}

// End is called on the composition-end signal.
func (c *CompositionTracker) End() {
	c.mu.Lock()
	c.composing = false
	c.mu.Unlock()
}

func (c *CompositionTracker) IsComposing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composing
}

// ShouldSubmit reports whether ev is a real submission request. Anything else
// is ordinary text input (newline, candidate confirmation).
func (c *CompositionTracker) ShouldSubmit(ev KeyEvent) bool {
	return ev.Key == KeyEnter && !ev.Shift && !c.IsComposing()
}

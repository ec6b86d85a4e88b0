package chat

import (
	"sync"

	"github.com/mahaj/chatroom/pkg/model"
)

// ReplyContext holds the single pending reply target of a room session.
// Setting a new target replaces the previous one; targets never stack.
type ReplyContext struct {
	mu       sync.Mutex
	pending  *model.MessageDetail
	onChange func(*model.MessageDetail)
}

func NewReplyContext() *ReplyContext {
	return &ReplyContext{}
}

// OnChange installs the observer called after every Set/Clear/Take with the
// new pending value (nil when cleared). The feed uses it for the reply preview.
func (r *ReplyContext) OnChange(fn func(*model.MessageDetail)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Set replaces the pending reply unconditionally. nil clears it.
func (r *ReplyContext) Set(detail *model.MessageDetail) {
	var next *model.MessageDetail
	if detail != nil {
		d := *detail
		next = &d
	}

	r.mu.Lock()
	r.pending = next
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(copyDetail(next))
	}
}

func (r *ReplyContext) Clear() {
	r.Set(nil)
}

// Pending returns a copy of the pending reply, or nil.
func (r *ReplyContext) Pending() *model.MessageDetail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyDetail(r.pending)
}

// Take returns the pending reply and clears it in one step.
func (r *ReplyContext) Take() *model.MessageDetail {
	r.mu.Lock()
	taken := r.pending
	r.pending = nil
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(nil)
	}
	return taken
}

func copyDetail(d *model.MessageDetail) *model.MessageDetail {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

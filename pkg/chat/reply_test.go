package chat

import (
	"testing"

	"github.com/mahaj/chatroom/pkg/model"
)

func TestReplyReplacesWithoutStacking(t *testing.T) {
	r := NewReplyContext()
	if r.Pending() != nil {
		t.Fatal("pending reply not nil initially")
	}

	d := model.MessageDetail{ID: "u2", Username: "Bob", Content: "first"}
	d2 := model.MessageDetail{ID: "u3", Username: "Carol", Content: "second"}
	r.Set(&d)
	r.Set(&d2)

	got := r.Pending()
	if got == nil || *got != d2 {
		t.Fatalf("Pending = %+v, want %+v", got, d2)
	}

	r.Clear()
	if r.Pending() != nil {
		t.Errorf("Pending after Clear = %+v, want nil", r.Pending())
	}
}

func TestReplySetCopiesValue(t *testing.T) {
	r := NewReplyContext()
	d := model.MessageDetail{Content: "original"}
	r.Set(&d)
	d.Content = "edited later"
	if got := r.Pending(); got.Content != "original" {
		t.Errorf("Pending content = %q, want snapshot %q", got.Content, "original")
	}
}

func TestReplyTakeClears(t *testing.T) {
	r := NewReplyContext()
	var seen []*model.MessageDetail
	r.OnChange(func(d *model.MessageDetail) { seen = append(seen, d) })

	r.Set(&model.MessageDetail{Content: "x"})
	taken := r.Take()
	if taken == nil || taken.Content != "x" {
		t.Fatalf("Take = %+v", taken)
	}
	if r.Pending() != nil {
		t.Error("pending reply survived Take")
	}
	if r.Take() != nil {
		t.Error("second Take returned a reply")
	}
	if len(seen) != 3 || seen[0] == nil || seen[1] != nil || seen[2] != nil {
		t.Errorf("OnChange sequence = %+v", seen)
	}
}

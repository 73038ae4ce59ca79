package nav

import (
	"testing"
	"time"
)

func TestNoticesExpire(t *testing.T) {
	now := time.Now()
	n := NewNotices()
	n.now = func() time.Time { return now }

	n.Post("error", "first")
	n.Post("info", "second")
	if got := n.Active(); len(got) != 2 {
		t.Fatalf("expected 2 active notices, got %d", len(got))
	}

	now = now.Add(noticeTTL + time.Second)
	if got := n.Active(); len(got) != 0 {
		t.Fatalf("expected expired notices to drop, got %d", len(got))
	}
}

func TestNoticesDismiss(t *testing.T) {
	n := NewNotices()
	n.Post("info", "pending")
	n.Dismiss()
	if got := n.Active(); len(got) != 0 {
		t.Fatalf("expected no notices after dismiss, got %d", len(got))
	}
}

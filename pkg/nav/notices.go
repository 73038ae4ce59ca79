package nav

import "time"

// How long a posted notice stays visible.
const noticeTTL = 5 * time.Second

// Notice is a dismissible, auto-expiring user-visible message. Failures
// are always delivered this way, never as a blocking dialog; the only
// blocking prompt in the app is the logout confirmation.
type Notice struct {
	Level   string
	Text    string
	Expires time.Time
}

// Notices is the message buffer consulted at render time.
type Notices struct {
	now   func() time.Time
	items []Notice
}

func NewNotices() *Notices {
	return &Notices{now: time.Now}
}

func (n *Notices) Post(level, text string) {
	n.items = append(n.items, Notice{
		Level:   level,
		Text:    text,
		Expires: n.now().Add(noticeTTL),
	})
}

// Active returns unexpired notices, dropping expired ones from the buffer.
func (n *Notices) Active() []Notice {
	now := n.now()
	var live []Notice
	for _, item := range n.items {
		if item.Expires.After(now) {
			live = append(live, item)
		}
	}
	n.items = live
	return live
}

// Dismiss drops every pending notice.
func (n *Notices) Dismiss() {
	n.items = nil
}

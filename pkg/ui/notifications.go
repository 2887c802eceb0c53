package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treepick/pkg/loader"
)

// notificationTTL is how long a notification stays in the status line.
const notificationTTL = 6 * time.Second

// expireNotificationsMsg prunes old notifications.
type expireNotificationsMsg struct{ now time.Time }

// Notifications keeps the recent loader messages for the status line.
type Notifications struct {
	items []NotificationMsg
	limit int
	ttl   time.Duration
}

// NewNotifications keeps at most limit messages.
func NewNotifications(limit int) Notifications {
	if limit <= 0 {
		limit = 20
	}
	return Notifications{limit: limit, ttl: notificationTTL}
}

// Push records msg and schedules its expiry.
func (n *Notifications) Push(msg NotificationMsg) tea.Cmd {
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}
	n.items = append(n.items, msg)
	if len(n.items) > n.limit {
		n.items = n.items[len(n.items)-n.limit:]
	}
	return tea.Tick(n.ttl, func(t time.Time) tea.Msg { return expireNotificationsMsg{now: t} })
}

// Expire drops messages older than the ttl at now.
func (n *Notifications) Expire(now time.Time) {
	kept := n.items[:0]
	for _, m := range n.items {
		if now.Sub(m.Time) < n.ttl {
			kept = append(kept, m)
		}
	}
	n.items = kept
}

// Len returns the number of live messages.
func (n *Notifications) Len() int { return len(n.items) }

// Latest returns the newest live message.
func (n *Notifications) Latest() (NotificationMsg, bool) {
	if len(n.items) == 0 {
		return NotificationMsg{}, false
	}
	return n.items[len(n.items)-1], true
}

// View renders the newest message in width cells.
func (n *Notifications) View(theme Theme, width int) string {
	m, ok := n.Latest()
	if !ok {
		return ""
	}
	text := m.Text
	if more := len(n.items) - 1; more > 0 {
		text = fmt.Sprintf("%s (+%d)", text, more)
	}
	if width > 4 {
		text = runewidth.Truncate(text, width-2, "…")
	}
	style := theme.Renderer.NewStyle().Foreground(theme.SeverityColor(m.Severity))
	if m.Severity == loader.SeverityError {
		style = style.Bold(true)
	}
	return style.Render(" " + text)
}

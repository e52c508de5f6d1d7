package ui

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// TimeAgo renders createdAt relative to now: "42s ago", "5m ago", "3h ago",
// "2d ago", and the plain date from a week on. Unparseable input is
// returned unchanged.
func TimeAgo(createdAt string, now time.Time) string {
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return createdAt
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch sec := int(d / time.Second); {
	case sec < 60:
		return fmt.Sprintf("%ds ago", sec)
	case sec < 3600:
		return fmt.Sprintf("%dm ago", sec/60)
	case sec < 24*3600:
		return fmt.Sprintf("%dh ago", sec/3600)
	case sec < 7*24*3600:
		return fmt.Sprintf("%dd ago", sec/(24*3600))
	}
	return t.Local().Format(dateLayout)
}

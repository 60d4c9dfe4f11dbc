// Package view renders HTML fragments patched into the dashboard over SSE.
package view

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/mantaflow/mantaflow/internal/domain"
)

// ActivityFeedID is the element the stream appends items into.
const ActivityFeedID = "activity-feed"

var activityIcons = map[domain.ActivityKind]string{
	domain.ActivityAccountRegistered: "user-plus",
	domain.ActivitySessionStarted:    "log-in",
	domain.ActivitySessionEnded:      "log-out",
}

// ActivityItem renders one feed entry as a list item.
func ActivityItem(a domain.Activity) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		icon, ok := activityIcons[a.Kind]
		if !ok {
			icon = "activity"
		}
		_, err := fmt.Fprintf(w,
			`<li id="activity-%s" class="activity-item" data-kind="%s"><span class="icon icon-%s"></span><span class="message">%s</span><time datetime="%s">%s</time></li>`,
			templ.EscapeString(a.ID),
			templ.EscapeString(string(a.Kind)),
			icon,
			templ.EscapeString(a.Message),
			a.At.UTC().Format(time.RFC3339),
			templ.EscapeString(a.At.UTC().Format("15:04")),
		)
		return err
	})
}

// ActivityFeed renders the empty container clients stream into.
func ActivityFeed() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<ul id="%s" class="activity-feed"></ul>`, ActivityFeedID)
		return err
	})
}

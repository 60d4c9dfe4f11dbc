package handler

import (
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/mantaflow/mantaflow/internal/activity"
	"github.com/mantaflow/mantaflow/internal/view"
)

// ActivityHandler serves the live activity feed.
type ActivityHandler struct {
	hub *activity.Hub
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(hub *activity.Hub) *ActivityHandler {
	return &ActivityHandler{hub: hub}
}

// HandleFeed renders the empty feed container the stream appends into.
// GET /api/activity
func (h *ActivityHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.ActivityFeed().Render(r.Context(), w); err != nil {
		slog.ErrorContext(r.Context(), "render activity feed", "error", err)
	}
}

// HandleStream streams activities as datastar element patches until the
// client disconnects.
// GET /api/activity/stream
func (h *ActivityHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	events := h.hub.Subscribe(r.Context())
	sse := datastar.NewSSE(w, r)

	for a := range events {
		err := sse.PatchElementTempl(
			view.ActivityItem(a),
			datastar.WithSelectorID(view.ActivityFeedID),
			datastar.WithModeAppend(),
		)
		if err != nil {
			slog.DebugContext(r.Context(), "activity stream closed", "error", err)
			return
		}
	}
}

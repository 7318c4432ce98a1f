package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hyperctl/hypervisor/pkg/events"
)

// handleEvents streams deployment status-transition events as
// Server-Sent Events for as long as the client stays connected. It's the
// observability surface promoted from a debug print statement: every
// admission, preemption, backfill, and completion the Controller commits
// is republished here in real time.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.controller.broker == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream is not configured")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var sub events.Subscriber
	if clusterID := r.URL.Query().Get("cluster_id"); clusterID != "" {
		sub = s.controller.broker.SubscribeCluster(clusterID)
	} else {
		sub = s.controller.broker.Subscribe()
	}
	defer s.controller.broker.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}

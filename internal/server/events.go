// ABOUTME: Server-Sent Events stream of engine events for one conversation
// ABOUTME: Subscribes to the broadcaster and forwards message/composing events until the client disconnects

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// keepaliveInterval is how often an SSE comment is written to hold idle
// connections open through proxies.
const keepaliveInterval = 30 * time.Second

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	convID := r.PathValue("id")
	if _, ok := s.store.Get(convID); !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, subID := s.events.Subscribe(r.Context(), convID)
	s.logger.Debug("sse stream opened", "conversation_id", convID, "sub_id", subID)
	defer s.logger.Debug("sse stream closed", "conversation_id", convID, "sub_id", subID)

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				s.logger.Error("marshaling event failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

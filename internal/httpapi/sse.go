package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleEvents streams flow lifecycle events as server-sent events. Each
// event is one JSON object; the dashboard timeline consumes this directly.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Open the stream immediately so EventSource clients fire onopen
	// before the first flow event arrives.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Step, payload)
			flusher.Flush()
		}
	}
}

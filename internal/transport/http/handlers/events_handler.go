package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	syncbus "github.com/Jelisos/wallpaper-site-sub000/internal/services/sync"
)

type EventsHandler struct {
	bus *syncbus.Bus
}

func NewEventsHandler(bus *syncbus.Bus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

// Stream pushes like/favorite/exile/recall events to the client as
// server-sent events so rendered items can be patched in place. The
// subscription is dropped as soon as the client disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		writeInternal(w, "SYNC_UNAVAILABLE", "event stream is unavailable")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeInternal(w, "STREAMING_UNSUPPORTED", "streaming is not supported")
		return
	}

	events, cancel := h.bus.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload)
			flusher.Flush()
		}
	}
}

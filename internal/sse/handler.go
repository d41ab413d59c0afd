package sse

import (
	"fmt"
	"net/http"
	"time"

	"github.com/debemdeboas/spawnwrite/internal/config"
	"github.com/debemdeboas/spawnwrite/internal/model"
)

const keepAliveInterval = 25 * time.Second

// Serve streams user's events until the request context ends.
func (s *SSEClients) Serve(w http.ResponseWriter, r *http.Request, user model.UserID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeSSE)
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	client := NewClient(user)
	s.Add(client)
	sseLogger.Debug().Str("user", string(user)).Msg("SSE client connected")

	defer func() {
		s.Delete(client)
		sseLogger.Debug().Str("user", string(user)).Msg("SSE client disconnected")
	}()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-client.Msg:
			if !ok {
				return
			}
			data, err := encode(ev)
			if err != nil {
				sseLogger.Error().Err(err).Str("event", ev.Type).Msg("Error encoding event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

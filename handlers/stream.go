package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"ytfree/models"
	"ytfree/services/extractor"
	"ytfree/services/relay"
)

type formatResolver interface {
	Resolve(ctx context.Context, videoID string) (*extractor.Resolution, error)
	StreamURL(ctx context.Context, res *extractor.Resolution, itag int) (string, error)
}

var _ formatResolver = (*extractor.Service)(nil)

type streamRelay interface {
	Stream(ctx context.Context, w http.ResponseWriter, format models.StreamFormat, kind extractor.TrackKind, rangeHeader string) (relay.Outcome, error)
}

var _ streamRelay = (*relay.Service)(nil)

// StreamHandler serves /api/stream: resolve formats, select one under
// policy, relay the origin bytes.
type StreamHandler struct {
	Resolver  formatResolver
	Relay     streamRelay
	MaxHeight int
}

func NewStreamHandler(resolver formatResolver, r streamRelay, maxHeight int) *StreamHandler {
	if maxHeight <= 0 {
		maxHeight = 720
	}
	return &StreamHandler{Resolver: resolver, Relay: r, MaxHeight: maxHeight}
}

func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Missing video ID"})
		return
	}
	kind := extractor.ParseTrackKind(r.URL.Query().Get("type"))
	rangeHeader := r.Header.Get("Range")

	log.Printf("[stream] id=%s kind=%s range=%q", id, kind, rangeHeader)

	// Formats are resolved fresh on every request; origin URLs are
	// short-lived and availability shifts between calls.
	res, err := h.Resolver.Resolve(r.Context(), id)
	if err != nil {
		log.Printf("[stream] extraction failed id=%s: %v", id, err)
		writeStreamError(w, err)
		return
	}

	format, err := extractor.Select(res.Formats, kind, h.MaxHeight)
	if err != nil {
		log.Printf("[stream] no playable format id=%s kind=%s: %v", id, kind, err)
		writeStreamError(w, err)
		return
	}

	// Materialize the origin URL for the picked format only;
	// deciphering and unthrottling are per-format work.
	originURL, err := h.Resolver.StreamURL(r.Context(), res, format.Itag)
	if err != nil {
		log.Printf("[stream] url materialization failed id=%s itag=%d: %v", id, format.Itag, err)
		writeStreamError(w, err)
		return
	}
	format.URL = originURL
	log.Printf("[stream] selected itag=%d height=%d abr=%d for id=%s", format.Itag, format.Height, format.AudioBitrate, id)

	outcome, err := h.Relay.Stream(r.Context(), w, format, kind, rangeHeader)
	if err != nil {
		if !outcome.HeadersSent {
			log.Printf("[stream] relay failed before headers id=%s: %v", id, err)
			writeStreamError(w, err)
			return
		}
		// Bytes are already committed; all we can do is drop the
		// connection short of its declared length.
		log.Printf("[stream] relay failed mid-stream id=%s after %d bytes: %v", id, outcome.BytesSent, err)
	}
}

// writeStreamError maps any pipeline failure onto the uniform contract:
// 500 with a JSON error body. The taxonomy only differs in logs.
func writeStreamError(w http.ResponseWriter, err error) {
	msg := err.Error()
	if errors.Is(err, extractor.ErrNoPlayableFormat) {
		msg = "No suitable format found"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "Failed to stream: " + msg})
}

// HandleOptions handles CORS preflight for the stream endpoint.
func (h *StreamHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Range, Content-Type, Accept, Origin")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges, Content-Type")
	w.WriteHeader(http.StatusOK)
}

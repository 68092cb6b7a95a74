package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ytfree/models"
	"ytfree/services/extractor"
	"ytfree/services/relay"
)

type fakeResolver struct {
	formats  []models.StreamFormat
	err      error
	urls     map[int]string // materialized URL per itag; falls back to the descriptor URL
	urlErr   error
	calls    int
	urlCalls []int
}

func (f *fakeResolver) Resolve(ctx context.Context, videoID string) (*extractor.Resolution, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &extractor.Resolution{Formats: f.formats}, nil
}

func (f *fakeResolver) StreamURL(ctx context.Context, res *extractor.Resolution, itag int) (string, error) {
	f.urlCalls = append(f.urlCalls, itag)
	if f.urlErr != nil {
		return "", f.urlErr
	}
	if u, ok := f.urls[itag]; ok {
		return u, nil
	}
	for _, fm := range res.Formats {
		if fm.Itag == itag {
			return fm.URL, nil
		}
	}
	return "", extractor.ErrNoPlayableFormat
}

type captureRelay struct {
	format models.StreamFormat
	kind   extractor.TrackKind
}

func (c *captureRelay) Stream(ctx context.Context, w http.ResponseWriter, format models.StreamFormat, kind extractor.TrackKind, rangeHeader string) (relay.Outcome, error) {
	c.format = format
	c.kind = kind
	w.WriteHeader(http.StatusOK)
	return relay.Outcome{HeadersSent: true, Status: http.StatusOK}, nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not JSON: %q", rec.Body.String())
	}
	return body["error"]
}

func TestStreamMissingVideoID(t *testing.T) {
	resolver := &fakeResolver{}
	h := NewStreamHandler(resolver, &captureRelay{}, 720)

	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil)
	rec := httptest.NewRecorder()
	h.HandleStream(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec); got != "Missing video ID" {
		t.Errorf("error = %q", got)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times for missing id, want 0", resolver.calls)
	}
}

func TestStreamExtractionFailure(t *testing.T) {
	resolver := &fakeResolver{err: fmt.Errorf("%w: video unavailable", extractor.ErrExtractionFailure)}
	h := NewStreamHandler(resolver, &captureRelay{}, 720)

	req := httptest.NewRequest(http.MethodGet, "/api/stream?id=abc123", nil)
	rec := httptest.NewRecorder()
	h.HandleStream(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	got := decodeError(t, rec)
	if want := "Failed to stream: "; len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("error = %q, want %q prefix", got, want)
	}
}

func TestStreamNoPlayableFormat(t *testing.T) {
	resolver := &fakeResolver{formats: []models.StreamFormat{}}
	h := NewStreamHandler(resolver, &captureRelay{}, 720)

	req := httptest.NewRequest(http.MethodGet, "/api/stream?id=abc123", nil)
	rec := httptest.NewRecorder()
	h.HandleStream(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := decodeError(t, rec); got != "Failed to stream: No suitable format found" {
		t.Errorf("error = %q", got)
	}
}

func TestStreamAudioSelectsHighestBitrate(t *testing.T) {
	resolver := &fakeResolver{formats: []models.StreamFormat{
		{Itag: 249, URL: "https://origin/a", AudioCodec: "opus", VideoCodec: models.CodecNone, AudioBitrate: 128},
		{Itag: 251, URL: "https://origin/b", AudioCodec: "opus", VideoCodec: models.CodecNone, AudioBitrate: 160},
	}}
	rl := &captureRelay{}
	h := NewStreamHandler(resolver, rl, 720)

	req := httptest.NewRequest(http.MethodGet, "/api/stream?id=abc123&type=audio", nil)
	rec := httptest.NewRecorder()
	h.HandleStream(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rl.format.AudioBitrate != 160 || rl.format.Itag != 251 {
		t.Errorf("relayed format = %+v, want abr=160", rl.format)
	}
	if rl.kind != extractor.TrackAudio {
		t.Errorf("kind = %q, want audio", rl.kind)
	}
}

func TestStreamProtectedFormatMaterializedBeforeRelay(t *testing.T) {
	// Cipher-protected formats carry no URL until deciphered. The
	// handler must still select them and relay the materialized URL.
	resolver := &fakeResolver{
		formats: []models.StreamFormat{
			{Itag: 22, URL: "", AudioCodec: "mp4a.40.2", VideoCodec: "avc1.64001F", Height: 720},
		},
		urls: map[int]string{22: "https://origin/deciphered"},
	}
	rl := &captureRelay{}
	h := NewStreamHandler(resolver, rl, 720)

	req := httptest.NewRequest(http.MethodGet, "/api/stream?id=abc123", nil)
	rec := httptest.NewRecorder()
	h.HandleStream(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rl.format.URL != "https://origin/deciphered" {
		t.Errorf("relayed URL = %q, want the materialized one", rl.format.URL)
	}
	if len(resolver.urlCalls) != 1 || resolver.urlCalls[0] != 22 {
		t.Errorf("StreamURL calls = %v, want [22]", resolver.urlCalls)
	}
}

func TestStreamURLMaterializationFailure(t *testing.T) {
	resolver := &fakeResolver{
		formats: []models.StreamFormat{
			{Itag: 22, URL: "", AudioCodec: "mp4a.40.2", VideoCodec: "avc1.64001F", Height: 720},
		},
		urlErr: fmt.Errorf("%w: itag 22: decipher failed", extractor.ErrNoPlayableFormat),
	}
	h := NewStreamHandler(resolver, &captureRelay{}, 720)

	req := httptest.NewRequest(http.MethodGet, "/api/stream?id=abc123", nil)
	rec := httptest.NewRecorder()
	h.HandleStream(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := decodeError(t, rec); got != "Failed to stream: No suitable format found" {
		t.Errorf("error = %q", got)
	}
}

func TestStreamRangePassthroughEndToEnd(t *testing.T) {
	payload := make([]byte, 2000)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "bytes=1000-1999" {
			t.Errorf("origin saw Range %q", r.Header.Get("Range"))
		}
		w.Header().Set("Content-Range", "bytes 1000-1999/2000")
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusPartialContent)
		w.Write(payload[1000:])
	}))
	defer origin.Close()

	resolver := &fakeResolver{formats: []models.StreamFormat{
		{Itag: 22, URL: origin.URL, AudioCodec: "mp4a.40.2", VideoCodec: "avc1.42001E", Height: 720},
	}}
	h := NewStreamHandler(resolver, relay.NewService("test-agent"), 720)

	req := httptest.NewRequest(http.MethodGet, "/api/stream?id=abc123", nil)
	req.Header.Set("Range", "bytes=1000-1999")
	rec := httptest.NewRecorder()
	h.HandleStream(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Errorf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 1000-1999/2000" {
		t.Errorf("Content-Range = %q", got)
	}
	if rec.Body.Len() != 1000 {
		t.Errorf("body length = %d, want 1000", rec.Body.Len())
	}
}

func TestStreamOriginRejectedYields500(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer origin.Close()

	resolver := &fakeResolver{formats: []models.StreamFormat{
		{Itag: 22, URL: origin.URL, AudioCodec: "mp4a.40.2", VideoCodec: "avc1.42001E", Height: 720},
	}}
	h := NewStreamHandler(resolver, relay.NewService("test-agent"), 720)

	req := httptest.NewRequest(http.MethodGet, "/api/stream?id=abc123", nil)
	rec := httptest.NewRecorder()
	h.HandleStream(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected clean JSON error body, got %q", rec.Body.String())
	}
	if body["error"] == "" {
		t.Error("missing error message")
	}
}

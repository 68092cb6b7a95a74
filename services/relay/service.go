package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"ytfree/models"
	"ytfree/services/extractor"
)

var (
	// ErrOriginUnreachable indicates the connection to the origin URL
	// could not be established or timed out before a response arrived.
	ErrOriginUnreachable = errors.New("origin unreachable")
	// ErrOriginRejected indicates the origin answered with a non-success
	// status, typically because the signed URL expired.
	ErrOriginRejected = errors.New("origin rejected")
)

// Service streams media bytes from a format's origin URL to the client.
type Service struct {
	httpClient *http.Client
	userAgent  string
}

// NewService creates a relay. The client has no overall timeout because
// a stream lives as long as playback; dial and TLS are still bounded.
func NewService(userAgent string) *Service {
	return &Service{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   15 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   15 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Outcome reports what the relay managed to deliver.
type Outcome struct {
	// HeadersSent is true once the response status has been written.
	// After that point a failure cannot be turned into a JSON error.
	HeadersSent bool
	Status      int
	BytesSent   int64
}

// Stream opens the origin URL, forwards the inbound Range header
// verbatim, mirrors the origin status (200 or 206) and copies through
// content-length, content-range and accept-ranges. Content-Type is
// fixed by track kind, never sniffed from the origin. The body is
// piped incrementally; a client disconnect cancels the origin read.
func (s *Service) Stream(ctx context.Context, w http.ResponseWriter, format models.StreamFormat, kind extractor.TrackKind, rangeHeader string) (Outcome, error) {
	outcome := Outcome{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, format.URL, nil)
	if err != nil {
		return outcome, fmt.Errorf("%w: %v", ErrOriginUnreachable, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return outcome, fmt.Errorf("%w: %v", ErrOriginUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return outcome, fmt.Errorf("%w: origin status %d for itag %d", ErrOriginRejected, resp.StatusCode, format.Itag)
	}

	if kind == extractor.TrackAudio {
		w.Header().Set("Content-Type", "audio/webm")
	} else {
		w.Header().Set("Content-Type", "video/mp4")
	}
	for _, h := range []string{"Content-Length", "Content-Range", "Accept-Ranges"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	outcome.HeadersSent = true
	outcome.Status = resp.StatusCode

	log.Printf("[relay] streaming itag=%d kind=%s status=%d range=%q", format.Itag, kind, resp.StatusCode, rangeHeader)

	buf := make([]byte, 512*1024) // 512KB buffer
	flusher, _ := w.(http.Flusher)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[relay] client cancelled itag=%d total=%d", format.Itag, outcome.BytesSent)
			return outcome, nil
		default:
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			written, writeErr := w.Write(buf[:n])
			outcome.BytesSent += int64(written)
			if writeErr != nil {
				if isClientGone(writeErr) || ctx.Err() != nil {
					log.Printf("[relay] client disconnected itag=%d total=%d", format.Itag, outcome.BytesSent)
					return outcome, nil
				}
				return outcome, fmt.Errorf("client write failed: %w", writeErr)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				log.Printf("[relay] stream complete itag=%d total=%d", format.Itag, outcome.BytesSent)
				return outcome, nil
			}
			// A cancelled request context aborts the origin read too;
			// that is the client leaving, not an origin failure.
			if ctx.Err() != nil || isClientGone(readErr) {
				log.Printf("[relay] client disconnected itag=%d total=%d", format.Itag, outcome.BytesSent)
				return outcome, nil
			}
			// Headers and possibly bytes are already out; the caller can
			// only terminate the connection abruptly.
			return outcome, fmt.Errorf("origin read failed after %d bytes: %w", outcome.BytesSent, readErr)
		}
	}
}

func isClientGone(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) && netErr.Err != nil {
		if errors.Is(netErr.Err, syscall.EPIPE) || errors.Is(netErr.Err, syscall.ECONNRESET) || errors.Is(netErr.Err, os.ErrClosed) {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset")
}

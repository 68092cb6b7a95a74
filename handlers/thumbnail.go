package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Thumbnail hosts we are willing to proxy. Everything else is refused
// so the endpoint cannot be used as an open proxy.
var allowedThumbnailHosts = map[string]bool{
	"i.ytimg.com":               true,
	"img.youtube.com":           true,
	"yt3.ggpht.com":             true,
	"yt3.googleusercontent.com": true,
}

// ThumbnailHandler proxies video and channel thumbnails so the frontend
// never loads images from Google hosts directly. Fetched thumbnails are
// re-encoded as JPEG and cached on disk.
type ThumbnailHandler struct {
	cacheDir string
	httpc    *http.Client

	mu         sync.Mutex
	inProgress map[string]chan struct{}
}

func NewThumbnailHandler(cacheDir string) *ThumbnailHandler {
	dir := filepath.Join(cacheDir, "thumbs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[thumbs] could not create cache dir %s: %v", dir, err)
	}
	return &ThumbnailHandler{
		cacheDir:   dir,
		httpc:      &http.Client{Timeout: 30 * time.Second},
		inProgress: make(map[string]chan struct{}),
	}
}

// HandleProxy serves /api/images/proxy?url=...&w=...&q=...
func (h *ThumbnailHandler) HandleProxy(w http.ResponseWriter, r *http.Request) {
	sourceURL := r.URL.Query().Get("url")
	if sourceURL == "" {
		http.Error(w, "url parameter required", http.StatusBadRequest)
		return
	}
	parsed, err := url.Parse(sourceURL)
	if err != nil || !allowedThumbnailHosts[parsed.Hostname()] {
		http.Error(w, "URL not allowed", http.StatusForbidden)
		return
	}

	targetWidth := 0
	if wStr := r.URL.Query().Get("w"); wStr != "" {
		if parsed, err := strconv.Atoi(wStr); err == nil && parsed > 0 && parsed <= 2000 {
			targetWidth = parsed
		}
	}
	quality := 80
	if qStr := r.URL.Query().Get("q"); qStr != "" {
		if parsed, err := strconv.Atoi(qStr); err == nil && parsed >= 1 && parsed <= 100 {
			quality = parsed
		}
	}

	key := thumbnailCacheKey(sourceURL, targetWidth, quality)
	cachePath := filepath.Join(h.cacheDir, key+".jpg")

	if h.serveCached(w, cachePath) {
		return
	}

	// Collapse concurrent requests for the same thumbnail into one fetch.
	h.mu.Lock()
	if ch, busy := h.inProgress[key]; busy {
		h.mu.Unlock()
		<-ch
		if h.serveCached(w, cachePath) {
			return
		}
		http.Error(w, "Failed to load thumbnail", http.StatusBadGateway)
		return
	}
	ch := make(chan struct{})
	h.inProgress[key] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.inProgress, key)
		h.mu.Unlock()
		close(ch)
	}()

	img, err := h.fetchAndDecode(sourceURL)
	if err != nil {
		log.Printf("[thumbs] fetch failed for %s: %v", sourceURL, err)
		http.Error(w, "Failed to fetch thumbnail", http.StatusBadGateway)
		return
	}
	if targetWidth > 0 {
		img = scaleToWidth(img, targetWidth)
	}

	if err := writeJPEGAtomic(cachePath, img, quality); err != nil {
		// Serve without caching rather than failing the request.
		log.Printf("[thumbs] cache write failed: %v", err)
		w.Header().Set("Content-Type", "image/jpeg")
		jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
		return
	}
	h.serveCached(w, cachePath)
}

func (h *ThumbnailHandler) serveCached(w http.ResponseWriter, cachePath string) bool {
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return false
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=2592000")
	w.Write(data)
	return true
}

func (h *ThumbnailHandler) fetchAndDecode(sourceURL string) (image.Image, error) {
	resp, err := h.httpc.Get(sourceURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned %s", resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	return img, err
}

func scaleToWidth(img image.Image, targetWidth int) image.Image {
	bounds := img.Bounds()
	if targetWidth >= bounds.Dx() {
		return img
	}
	ratio := float64(targetWidth) / float64(bounds.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, int(float64(bounds.Dy())*ratio)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func writeJPEGAtomic(path string, img image.Image, quality int) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func thumbnailCacheKey(sourceURL string, width, quality int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", sourceURL, width, quality)))
	return hex.EncodeToString(sum[:16])
}

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"ytfree/models"
)

const (
	innertubeSearchURL = "https://www.youtube.com/youtubei/v1/search?prettyPrint=false"
	// Innertube web client identity; search results come back in the
	// same renderer tree the website consumes.
	innertubeClientName    = "WEB"
	innertubeClientVersion = "2.20240726.00.00"
	// Pre-encoded filter param restricting results to videos.
	videosOnlyParams = "EgIQAQ%3D%3D"
)

var errRetryableStatus = errors.New("retryable upstream status")

// Service performs video search against the Innertube API.
type Service struct {
	httpc      *http.Client
	searchURL  string
	userAgent  string
	maxResults int
}

func NewService(userAgent string, maxResults int) *Service {
	if maxResults <= 0 {
		maxResults = 20
	}
	return &Service{
		httpc:      &http.Client{Timeout: 15 * time.Second},
		searchURL:  innertubeSearchURL,
		userAgent:  userAgent,
		maxResults: maxResults,
	}
}

// Search returns up to maxResults video entries for a query.
func (s *Service) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	payload := map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    innertubeClientName,
				"clientVersion": innertubeClientVersion,
				"hl":            "en",
				"gl":            "US",
			},
		},
		"query":  query,
		"params": videosOnlyParams,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = retry.Do(
		func() error {
			raw, err = s.doSearch(ctx, body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool {
			// A dead request context means the caller gave up; a
			// timeout with the context still live is the per-attempt
			// client timeout and worth another try.
			if ctx.Err() != nil {
				return false
			}
			return errors.Is(err, errRetryableStatus) || isTimeoutError(err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	results, err := parseSearchResponse(raw, s.maxResults)
	if err != nil {
		return nil, err
	}
	log.Printf("[search] query=%q results=%d", query, len(results))
	return results, nil
}

func (s *Service) doSearch(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.searchURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s", errRetryableStatus, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search upstream returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// isTimeoutError reports whether err is a network timeout. The http
// client's own Timeout surfaces as a url.Error that also matches
// context.DeadlineExceeded, so the caller distinguishes its context
// from a per-attempt timeout before calling this.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Innertube renderer tree, trimmed to the fields the frontend uses.
type searchResponse struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer *videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type videoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"title"`
	OwnerText struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"ownerText"`
	LengthText struct {
		SimpleText string `json:"simpleText"`
	} `json:"lengthText"`
	ViewCountText struct {
		SimpleText string `json:"simpleText"`
	} `json:"viewCountText"`
	Thumbnail struct {
		Thumbnails []struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"thumbnails"`
	} `json:"thumbnail"`
}

func parseSearchResponse(raw []byte, limit int) ([]models.SearchResult, error) {
	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	var results []models.SearchResult
	for _, section := range parsed.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents {
		for _, item := range section.ItemSectionRenderer.Contents {
			vr := item.VideoRenderer
			if vr == nil || vr.VideoID == "" {
				continue
			}
			results = append(results, renderResult(vr))
			if len(results) >= limit {
				return results, nil
			}
		}
	}
	return results, nil
}

func renderResult(vr *videoRenderer) models.SearchResult {
	r := models.SearchResult{
		VideoID:       vr.VideoID,
		LengthSeconds: parseDuration(vr.LengthText.SimpleText),
		ViewCount:     parseViewCount(vr.ViewCountText.SimpleText),
	}
	if len(vr.Title.Runs) > 0 {
		r.Title = vr.Title.Runs[0].Text
	}
	if len(vr.OwnerText.Runs) > 0 {
		r.Author = vr.OwnerText.Runs[0].Text
	}
	for _, t := range vr.Thumbnail.Thumbnails {
		r.VideoThumbnails = append(r.VideoThumbnails, models.Thumbnail{
			URL:    t.URL,
			Width:  t.Width,
			Height: t.Height,
		})
	}
	return r
}

// parseDuration converts "1:02:34" style length text to seconds.
func parseDuration(text string) int {
	if text == "" {
		return 0
	}
	parts := strings.Split(text, ":")
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// parseViewCount converts "1,234,567 views" to its numeric value.
func parseViewCount(text string) int64 {
	digits := strings.Builder{}
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
		if r == ' ' && digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

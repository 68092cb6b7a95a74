package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/oauth2"

	"ytfree/models"
)

const dataAPIBaseURL = "https://www.googleapis.com/youtube/v3"

// Service fetches the signed-in user's playlists, liked videos and
// subscriptions from the YouTube Data API. A nil token means the mock
// demo account; those calls never leave the process.
type Service struct {
	httpc   *http.Client
	baseURL string
}

func NewService() *Service {
	return &Service{
		httpc:   &http.Client{Timeout: 15 * time.Second},
		baseURL: dataAPIBaseURL,
	}
}

// Playlists lists the user's own playlists.
func (s *Service) Playlists(ctx context.Context, token *oauth2.Token) ([]models.Playlist, error) {
	if token == nil {
		return mockPlaylists(), nil
	}

	var resp playlistListResponse
	params := url.Values{
		"part":       {"snippet,contentDetails"},
		"mine":       {"true"},
		"maxResults": {"50"},
	}
	if err := s.doGET(ctx, token, "/playlists", params, &resp); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(resp.Items))
	for _, item := range resp.Items {
		playlists = append(playlists, models.Playlist{
			ID:          item.ID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			ItemCount:   item.ContentDetails.ItemCount,
			Thumbnail:   item.Snippet.Thumbnails.Medium.URL,
		})
	}
	return playlists, nil
}

// PlaylistItems lists the videos inside one playlist.
func (s *Service) PlaylistItems(ctx context.Context, token *oauth2.Token, playlistID string) ([]models.PlaylistItem, error) {
	if token == nil {
		return mockLiked(), nil
	}

	var resp playlistItemsResponse
	params := url.Values{
		"part":       {"snippet,contentDetails"},
		"playlistId": {playlistID},
		"maxResults": {"50"},
	}
	if err := s.doGET(ctx, token, "/playlistItems", params, &resp); err != nil {
		return nil, err
	}

	items := make([]models.PlaylistItem, 0, len(resp.Items))
	for i, item := range resp.Items {
		items = append(items, models.PlaylistItem{
			VideoID:   item.Snippet.ResourceID.VideoID,
			Title:     item.Snippet.Title,
			Author:    item.Snippet.ChannelTitle,
			Thumbnail: item.Snippet.Thumbnails.Medium.URL,
			Position:  i,
		})
	}
	return items, nil
}

// Liked lists the user's liked videos.
func (s *Service) Liked(ctx context.Context, token *oauth2.Token) ([]models.PlaylistItem, error) {
	if token == nil {
		return mockLiked(), nil
	}

	var resp videoListResponse
	params := url.Values{
		"part":       {"snippet,contentDetails"},
		"myRating":   {"like"},
		"maxResults": {"50"},
	}
	if err := s.doGET(ctx, token, "/videos", params, &resp); err != nil {
		return nil, err
	}

	items := make([]models.PlaylistItem, 0, len(resp.Items))
	for i, item := range resp.Items {
		items = append(items, models.PlaylistItem{
			VideoID:   item.ID,
			Title:     item.Snippet.Title,
			Author:    item.Snippet.ChannelTitle,
			Thumbnail: item.Snippet.Thumbnails.Medium.URL,
			Position:  i,
		})
	}
	return items, nil
}

// Subscriptions lists the channels the user follows, alphabetically.
func (s *Service) Subscriptions(ctx context.Context, token *oauth2.Token) ([]models.Subscription, error) {
	if token == nil {
		return mockSubscriptions(), nil
	}

	var resp subscriptionListResponse
	params := url.Values{
		"part":       {"snippet"},
		"mine":       {"true"},
		"maxResults": {"50"},
		"order":      {"alphabetical"},
	}
	if err := s.doGET(ctx, token, "/subscriptions", params, &resp); err != nil {
		return nil, err
	}

	subs := make([]models.Subscription, 0, len(resp.Items))
	for _, item := range resp.Items {
		subs = append(subs, models.Subscription{
			ChannelID: item.Snippet.ResourceID.ChannelID,
			Title:     item.Snippet.Title,
			Thumbnail: item.Snippet.Thumbnails.Default.URL,
		})
	}
	return subs, nil
}

// Overview fetches playlists, likes and subscriptions concurrently.
// Any single feed failing fails the whole call.
func (s *Service) Overview(ctx context.Context, token *oauth2.Token) (models.LibraryOverview, error) {
	var overview models.LibraryOverview

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		playlists, err := s.Playlists(ctx, token)
		overview.Playlists = playlists
		return err
	})
	p.Go(func(ctx context.Context) error {
		liked, err := s.Liked(ctx, token)
		overview.Liked = liked
		return err
	})
	p.Go(func(ctx context.Context) error {
		subs, err := s.Subscriptions(ctx, token)
		overview.Subscriptions = subs
		return err
	})
	if err := p.Wait(); err != nil {
		return models.LibraryOverview{}, err
	}
	return overview, nil
}

func (s *Service) doGET(ctx context.Context, token *oauth2.Token, path string, params url.Values, v any) error {
	endpoint := s.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	token.SetAuthHeader(req)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("data api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		log.Printf("[library] data api %s returned %s", path, resp.Status)
		return fmt.Errorf("data api %s returned %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Data API response shapes, trimmed to the fields we surface.

type apiThumbnails struct {
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
	Medium struct {
		URL string `json:"url"`
	} `json:"medium"`
}

type playlistListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string        `json:"title"`
			Description string        `json:"description"`
			Thumbnails  apiThumbnails `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			ItemCount int `json:"itemCount"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet struct {
			Title        string        `json:"title"`
			ChannelTitle string        `json:"videoOwnerChannelTitle"`
			Thumbnails   apiThumbnails `json:"thumbnails"`
			ResourceID   struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string        `json:"title"`
			ChannelTitle string        `json:"channelTitle"`
			Thumbnails   apiThumbnails `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type subscriptionListResponse struct {
	Items []struct {
		Snippet struct {
			Title      string        `json:"title"`
			Thumbnails apiThumbnails `json:"thumbnails"`
			ResourceID struct {
				ChannelID string `json:"channelId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

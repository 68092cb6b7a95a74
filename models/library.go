package models

// Playlist is one entry in the signed-in user's playlist list.
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ItemCount   int    `json:"itemCount"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// PlaylistItem is one video inside a playlist or the liked-videos feed.
type PlaylistItem struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Position  int    `json:"position"`
}

// Subscription is one channel the signed-in user follows.
type Subscription struct {
	ChannelID string `json:"channelId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// LibraryOverview aggregates the account feeds for a single response.
type LibraryOverview struct {
	Playlists     []Playlist     `json:"playlists"`
	Liked         []PlaylistItem `json:"liked"`
	Subscriptions []Subscription `json:"subscriptions"`
}

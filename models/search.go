package models

// Thumbnail is a single thumbnail rendition for a video or channel.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SearchResult is one video entry returned by /api/search.
type SearchResult struct {
	VideoID         string      `json:"videoId"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	LengthSeconds   int         `json:"lengthSeconds"`
	ViewCount       int64       `json:"viewCount"`
	VideoThumbnails []Thumbnail `json:"videoThumbnails"`
}

package library

import "ytfree/models"

// Mock feeds served to the demo account when no Google Cloud project
// is configured. Content mirrors what a small real account looks like.

func mockPlaylists() []models.Playlist {
	return []models.Playlist{
		{
			ID:        "RDCLAK5uy_kQyOtwyvIqgWIF0t-kQ2F5-n_27S1jY7E",
			Title:     "Lofi Beats",
			ItemCount: 1,
			Thumbnail: "https://i.ytimg.com/vi/jfKfPfyJRdk/mqdefault.jpg",
		},
	}
}

func mockLiked() []models.PlaylistItem {
	return []models.PlaylistItem{
		{
			VideoID:   "jfKfPfyJRdk",
			Title:     "lofi hip hop radio \U0001F4DA beats to relax/study to",
			Author:    "Lofi Girl",
			Thumbnail: "https://i.ytimg.com/vi/jfKfPfyJRdk/mqdefault.jpg",
			Position:  0,
		},
	}
}

func mockSubscriptions() []models.Subscription {
	return []models.Subscription{
		{
			ChannelID: "UCSJ4gkVC6NrvII8umztf0Ow",
			Title:     "Lofi Girl",
			Thumbnail: "https://yt3.ggpht.com/ytc/AIdro_k6T6-uY5qH0VnRyY8FxbNq9GgVlQzVw72-5bxgKzg=s88-c-k-c0x00ffffff-no-rj",
		},
		{
			ChannelID: "UCSJ4gkVC6NrvII8umztf0Ow",
			Title:     "ChilledCow",
			Thumbnail: "https://yt3.ggpht.com/ytc/AIdro_k6T6-uY5qH0VnRyY8FxbNq9GgVlQzVw72-5bxgKzg=s88-c-k-c0x00ffffff-no-rj",
		},
	}
}

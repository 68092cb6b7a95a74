package models

// CodecNone is the sentinel for a track a format does not carry.
const CodecNone = "none"

// StreamFormat describes one playable rendition of a video as reported
// by the extractor. Codec fields use CodecNone when the track is absent,
// so a muxed format is one where both codecs are real.
type StreamFormat struct {
	Itag          int    `json:"itag"`
	URL           string `json:"url,omitempty"`
	MimeType      string `json:"mimeType"`
	VideoCodec    string `json:"videoCodec"`
	AudioCodec    string `json:"audioCodec"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	Bitrate       int    `json:"bitrate,omitempty"`
	AudioBitrate  int    `json:"audioBitrate,omitempty"` // average audio bitrate in kbps
	ContentLength int64  `json:"contentLength,omitempty"`
	QualityLabel  string `json:"qualityLabel,omitempty"`
}

// HasVideo reports whether the format carries a video track.
func (f StreamFormat) HasVideo() bool {
	return f.VideoCodec != "" && f.VideoCodec != CodecNone
}

// HasAudio reports whether the format carries an audio track.
func (f StreamFormat) HasAudio() bool {
	return f.AudioCodec != "" && f.AudioCodec != CodecNone
}

// Muxed reports whether the format carries both tracks.
func (f StreamFormat) Muxed() bool {
	return f.HasVideo() && f.HasAudio()
}

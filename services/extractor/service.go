package extractor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"ytfree/models"
)

var (
	// ErrExtractionFailure indicates the upstream provider could not
	// produce format metadata for the video (removed, region-blocked,
	// bot-detection challenge, or network failure).
	ErrExtractionFailure = errors.New("extraction failure")
	// ErrNoPlayableFormat indicates metadata was obtained but no format
	// satisfies the selection policy for the requested track kind.
	ErrNoPlayableFormat = errors.New("no playable format")
)

// Service resolves candidate delivery formats for a video ID.
type Service struct {
	client *youtube.Client
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// NewService creates an extractor backed by the YouTube innertube API.
// All upstream requests carry the given user agent; YouTube rejects
// requests without a recognized client signature.
func NewService(userAgent string) *Service {
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &userAgentTransport{
			base:      http.DefaultTransport,
			userAgent: userAgent,
		},
	}
	return &Service{
		client: &youtube.Client{HTTPClient: httpClient},
	}
}

// Resolution is the outcome of resolving one video: the descriptors
// the selection policy works on, plus the provider video needed to
// materialize an origin URL for whichever format gets picked.
type Resolution struct {
	Formats []models.StreamFormat

	video *youtube.Video
}

// Resolve fetches the current format list for a video. The list is
// ephemeral: origin URLs are short-lived signed URLs, so every stream
// request resolves fresh and nothing here is cached.
func (s *Service) Resolve(ctx context.Context, videoID string) (*Resolution, error) {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailure, err)
	}
	if len(video.Formats) == 0 {
		return nil, fmt.Errorf("%w: provider returned no formats for %s", ErrExtractionFailure, videoID)
	}

	formats := make([]models.StreamFormat, 0, len(video.Formats))
	for _, f := range video.Formats {
		formats = append(formats, describeFormat(f))
	}
	log.Printf("[extractor] resolved %d formats for %s", len(formats), videoID)
	return &Resolution{Formats: formats, video: video}, nil
}

// StreamURL materializes the origin URL for the selected format.
// Raw format payloads are not directly fetchable: cipher-protected
// formats carry no URL at all until deciphered, and even URL-bearing
// ones need their throttling parameter solved, so this must run after
// selection and before the relay touches the URL.
func (s *Service) StreamURL(ctx context.Context, res *Resolution, itag int) (string, error) {
	if res == nil || res.video == nil {
		return "", fmt.Errorf("%w: no resolved video", ErrNoPlayableFormat)
	}
	for i := range res.video.Formats {
		f := &res.video.Formats[i]
		if f.ItagNo != itag {
			continue
		}
		u, err := s.client.GetStreamURLContext(ctx, res.video, f)
		if err != nil {
			return "", fmt.Errorf("%w: itag %d: %v", ErrNoPlayableFormat, itag, err)
		}
		if u == "" {
			return "", fmt.Errorf("%w: itag %d has no origin URL", ErrNoPlayableFormat, itag)
		}
		return u, nil
	}
	return "", fmt.Errorf("%w: itag %d not in resolved set", ErrNoPlayableFormat, itag)
}

// describeFormat maps a provider format onto the descriptor shape,
// defaulting every field the payload may omit. Codecs come from the
// mimeType codecs parameter; a missing track becomes the "none" sentinel.
func describeFormat(f youtube.Format) models.StreamFormat {
	videoCodec, audioCodec := splitCodecs(f.MimeType, f.AudioChannels)

	// AverageBitrate is bits/sec; the descriptor carries kbps.
	abr := f.AverageBitrate / 1000
	if abr == 0 {
		abr = f.Bitrate / 1000
	}
	audioBitrate := 0
	if audioCodec != models.CodecNone {
		audioBitrate = abr
	}

	return models.StreamFormat{
		Itag:          f.ItagNo,
		URL:           f.URL,
		MimeType:      f.MimeType,
		VideoCodec:    videoCodec,
		AudioCodec:    audioCodec,
		Width:         f.Width,
		Height:        f.Height,
		Bitrate:       f.Bitrate,
		AudioBitrate:  audioBitrate,
		ContentLength: f.ContentLength,
		QualityLabel:  f.QualityLabel,
	}
}

// splitCodecs derives the per-track codecs from a mime type like
// `video/mp4; codecs="avc1.42001E, mp4a.40.2"`. Audio-only formats use
// an audio/* top level type; video formats list the audio codec second
// when the stream is muxed.
func splitCodecs(mimeType string, audioChannels int) (videoCodec, audioCodec string) {
	videoCodec, audioCodec = models.CodecNone, models.CodecNone

	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return videoCodec, audioCodec
	}
	var codecs []string
	for _, c := range strings.Split(params["codecs"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			codecs = append(codecs, c)
		}
	}
	if len(codecs) == 0 {
		return videoCodec, audioCodec
	}

	switch {
	case strings.HasPrefix(mediaType, "audio/"):
		audioCodec = codecs[0]
	case strings.HasPrefix(mediaType, "video/"):
		videoCodec = codecs[0]
		if len(codecs) > 1 {
			audioCodec = codecs[1]
		} else if audioChannels > 0 {
			// Some payloads report a muxed stream with a single codecs
			// entry; trust the channel count over the mime string.
			audioCodec = codecs[0]
		}
	}
	return videoCodec, audioCodec
}

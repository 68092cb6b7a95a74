package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ytfree/models"
	"ytfree/services/extractor"
)

func audioFmt(itag, abr int) models.StreamFormat {
	return models.StreamFormat{
		Itag:         itag,
		URL:          "https://origin.example/audio",
		AudioCodec:   "opus",
		VideoCodec:   models.CodecNone,
		AudioBitrate: abr,
	}
}

func muxedFmt(itag, height int) models.StreamFormat {
	return models.StreamFormat{
		Itag:       itag,
		URL:        "https://origin.example/video",
		AudioCodec: "mp4a.40.2",
		VideoCodec: "avc1.42001E",
		Height:     height,
	}
}

func videoOnlyFmt(itag, height int) models.StreamFormat {
	return models.StreamFormat{
		Itag:       itag,
		URL:        "https://origin.example/video",
		AudioCodec: models.CodecNone,
		VideoCodec: "vp9",
		Height:     height,
	}
}

func TestSelectAudioPicksHighestBitrate(t *testing.T) {
	formats := []models.StreamFormat{
		audioFmt(249, 128),
		audioFmt(251, 160),
	}
	got, err := extractor.Select(formats, extractor.TrackAudio, 720)
	require.NoError(t, err)
	require.Equal(t, 160, got.AudioBitrate)
	require.Equal(t, 251, got.Itag)
}

func TestSelectAudioTieFirstWins(t *testing.T) {
	formats := []models.StreamFormat{
		audioFmt(249, 160),
		audioFmt(251, 160),
	}
	got, err := extractor.Select(formats, extractor.TrackAudio, 720)
	require.NoError(t, err)
	require.Equal(t, 249, got.Itag)
}

func TestSelectAudioIgnoresMuxed(t *testing.T) {
	formats := []models.StreamFormat{
		muxedFmt(18, 360),
		audioFmt(249, 48),
	}
	got, err := extractor.Select(formats, extractor.TrackAudio, 720)
	require.NoError(t, err)
	require.Equal(t, 249, got.Itag)
}

func TestSelectVideoPrefersMuxedOverVideoOnly(t *testing.T) {
	formats := []models.StreamFormat{
		videoOnlyFmt(247, 720),
		muxedFmt(18, 360),
	}
	got, err := extractor.Select(formats, extractor.TrackVideo, 720)
	require.NoError(t, err)
	require.Equal(t, 18, got.Itag)
}

func TestSelectVideoHighestHeightWithinCap(t *testing.T) {
	formats := []models.StreamFormat{
		muxedFmt(18, 360),
		muxedFmt(22, 720),
		muxedFmt(37, 1080),
	}
	got, err := extractor.Select(formats, extractor.TrackVideo, 720)
	require.NoError(t, err)
	require.Equal(t, 22, got.Itag)
}

func TestSelectVideoFallsBackToVideoOnly(t *testing.T) {
	formats := []models.StreamFormat{
		muxedFmt(37, 1080),
		videoOnlyFmt(247, 720),
		videoOnlyFmt(134, 360),
	}
	got, err := extractor.Select(formats, extractor.TrackVideo, 720)
	require.NoError(t, err)
	require.Equal(t, 247, got.Itag)
}

func TestSelectVideoTieFirstWins(t *testing.T) {
	formats := []models.StreamFormat{
		muxedFmt(22, 720),
		muxedFmt(95, 720),
	}
	got, err := extractor.Select(formats, extractor.TrackVideo, 720)
	require.NoError(t, err)
	require.Equal(t, 22, got.Itag)
}

func TestSelectNoPlayableFormat(t *testing.T) {
	cases := []struct {
		name    string
		formats []models.StreamFormat
		kind    extractor.TrackKind
	}{
		{"empty list", nil, extractor.TrackVideo},
		{"all above cap", []models.StreamFormat{muxedFmt(37, 1080), videoOnlyFmt(248, 1080)}, extractor.TrackVideo},
		{"no audio track", []models.StreamFormat{muxedFmt(18, 360), videoOnlyFmt(134, 360)}, extractor.TrackAudio},
		{"no media at all", []models.StreamFormat{{Itag: 0, VideoCodec: models.CodecNone, AudioCodec: models.CodecNone}}, extractor.TrackVideo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := extractor.Select(tc.formats, tc.kind, 720)
			require.ErrorIs(t, err, extractor.ErrNoPlayableFormat)
		})
	}
}

func TestSelectProtectedFormatWithoutURL(t *testing.T) {
	// Cipher-protected formats have no URL until materialized; the
	// policy must still pick them on codec and height alone.
	f := muxedFmt(22, 720)
	f.URL = ""
	got, err := extractor.Select([]models.StreamFormat{f}, extractor.TrackVideo, 720)
	require.NoError(t, err)
	require.Equal(t, 22, got.Itag)
}

func TestSelectUnknownHeightPassesCap(t *testing.T) {
	// Height 0 means the provider omitted it; the cap must not exclude it.
	formats := []models.StreamFormat{muxedFmt(18, 0)}
	got, err := extractor.Select(formats, extractor.TrackVideo, 720)
	require.NoError(t, err)
	require.Equal(t, 18, got.Itag)
}

func TestParseTrackKindDefaultsToVideo(t *testing.T) {
	for _, raw := range []string{"", "video", "bogus", "AUDIO"} {
		if got := extractor.ParseTrackKind(raw); got != extractor.TrackVideo {
			t.Errorf("ParseTrackKind(%q) = %q, want video", raw, got)
		}
	}
	if got := extractor.ParseTrackKind("audio"); got != extractor.TrackAudio {
		t.Errorf("ParseTrackKind(audio) = %q", got)
	}
}

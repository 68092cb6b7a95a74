package extractor

import (
	"fmt"

	"ytfree/models"
)

// TrackKind is the requested track type for a stream request.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// ParseTrackKind maps the `type` query parameter onto a track kind.
// Anything unrecognized defaults to video.
func ParseTrackKind(raw string) TrackKind {
	if raw == string(TrackAudio) {
		return TrackAudio
	}
	return TrackVideo
}

// Select applies the selection policy to a resolved format list and
// returns the single format to relay. maxHeight caps video resolution;
// formats whose height is unknown (zero) pass the cap.
//
// Audio: audio-only formats only, highest average bitrate, first wins
// on ties. Video: muxed formats within the height cap, highest height;
// when no muxed format qualifies, fall back to any format carrying a
// video track within the cap. Selection never retries or re-resolves.
//
// Selection judges codecs and resolution only. A descriptor with no
// URL is still a candidate; cipher-protected formats get their origin
// URL materialized by StreamURL after the pick.
func Select(formats []models.StreamFormat, kind TrackKind, maxHeight int) (models.StreamFormat, error) {
	var chosen *models.StreamFormat

	switch kind {
	case TrackAudio:
		for i := range formats {
			f := &formats[i]
			if !f.HasAudio() || f.HasVideo() {
				continue
			}
			if chosen == nil || f.AudioBitrate > chosen.AudioBitrate {
				chosen = f
			}
		}
	default:
		for i := range formats {
			f := &formats[i]
			if !f.Muxed() || f.Height > maxHeight {
				continue
			}
			if chosen == nil || f.Height > chosen.Height {
				chosen = f
			}
		}
		if chosen == nil {
			for i := range formats {
				f := &formats[i]
				if !f.HasVideo() || f.Height > maxHeight {
					continue
				}
				if chosen == nil || f.Height > chosen.Height {
					chosen = f
				}
			}
		}
	}

	if chosen == nil {
		return models.StreamFormat{}, fmt.Errorf("%w: no %s format within policy", ErrNoPlayableFormat, kind)
	}
	return *chosen, nil
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityValue(t *testing.T) {
	assert.Equal(t, 720, Rendition{QualityLabel: "720p"}.QualityValue())
	assert.Equal(t, 720, Rendition{QualityLabel: "720p60"}.QualityValue())
	assert.Equal(t, 1080, Rendition{QualityLabel: "1080p"}.QualityValue())
	assert.Equal(t, 144, Rendition{QualityLabel: "144p"}.QualityValue())
	assert.Equal(t, 0, Rendition{QualityLabel: "hd"}.QualityValue())
	assert.Equal(t, 0, Rendition{QualityLabel: ""}.QualityValue())
}

func TestVideoCandidates(t *testing.T) {
	renditions := []Rendition{
		{QualityLabel: "360p", HasVideo: true, HasAudio: true},
		{QualityLabel: "720p", HasVideo: true, HasAudio: false},
		{QualityLabel: "720p", HasVideo: true, HasAudio: true},
		{QualityLabel: "1080p", HasVideo: true, HasAudio: false},
		{QualityLabel: "", HasVideo: true, HasAudio: false},
		{QualityLabel: "128k", HasVideo: false, HasAudio: true, Bitrate: 128000},
	}

	candidates := VideoCandidates(renditions)
	require.Len(t, candidates, 3)

	// Sorted descending by numeric quality.
	assert.Equal(t, "1080p", candidates[0].QualityLabel)
	assert.Equal(t, "720p", candidates[1].QualityLabel)
	assert.Equal(t, "360p", candidates[2].QualityLabel)

	// Duplicate label resolved in favor of the variant with audio.
	assert.True(t, candidates[1].HasAudio)
}

func TestVideoCandidatesIdempotent(t *testing.T) {
	renditions := []Rendition{
		{QualityLabel: "720p", HasVideo: true, HasAudio: false},
		{QualityLabel: "480p", HasVideo: true, HasAudio: true},
		{QualityLabel: "720p", HasVideo: true, HasAudio: true},
	}

	once := VideoCandidates(renditions)
	twice := VideoCandidates(once)
	assert.Equal(t, once, twice)
}

func TestVideoCandidatesEmpty(t *testing.T) {
	assert.Empty(t, VideoCandidates(nil))
	assert.Empty(t, VideoCandidates([]Rendition{
		{QualityLabel: "128k", HasAudio: true},
	}))
}

func TestBestAudio(t *testing.T) {
	renditions := []Rendition{
		{QualityLabel: "720p", HasVideo: true, HasAudio: true, Bitrate: 2_000_000},
		{Container: "m4a", HasAudio: true, Bitrate: 128_000},
		{Container: "webm", HasAudio: true, Bitrate: 160_000},
	}

	best, ok := BestAudio(renditions)
	require.True(t, ok)
	assert.Equal(t, "webm", best.Container)
	assert.Equal(t, 160_000, best.Bitrate)
}

func TestBestAudioNoneAvailable(t *testing.T) {
	_, ok := BestAudio([]Rendition{
		{QualityLabel: "720p", HasVideo: true, HasAudio: true},
	})
	assert.False(t, ok)
}

package infrastructure

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

func TestPickMuxedFormatTopLevelURL(t *testing.T) {
	var info ytdlpInfo
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "A clip",
		"url": "https://cdn.example.com/clip.mp4",
		"ext": "mp4"
	}`), &info))

	r, ok := pickMuxedFormat(&info)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/clip.mp4", r.SourceURL)
	assert.Equal(t, "mp4", r.Container)
	assert.True(t, r.HasAudio)
	assert.True(t, r.HasVideo)
}

func TestPickMuxedFormatBestHeight(t *testing.T) {
	var info ytdlpInfo
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "A clip",
		"formats": [
			{"url": "https://cdn/360", "ext": "mp4", "height": 360, "acodec": "aac", "vcodec": "h264", "tbr": 700},
			{"url": "https://cdn/720", "ext": "mp4", "height": 720, "acodec": "aac", "vcodec": "h264", "tbr": 1800},
			{"url": "https://cdn/video-only", "ext": "mp4", "height": 1080, "acodec": "none", "vcodec": "h264", "tbr": 4000},
			{"url": "https://cdn/audio-only", "ext": "m4a", "acodec": "aac", "vcodec": "none", "tbr": 128}
		]
	}`), &info))

	r, ok := pickMuxedFormat(&info)
	require.True(t, ok)
	assert.Equal(t, "https://cdn/720", r.SourceURL, "video-only and audio-only formats are skipped")
	assert.Equal(t, "720p", r.QualityLabel)
}

func TestPickMuxedFormatNothingUsable(t *testing.T) {
	var info ytdlpInfo
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "A clip",
		"formats": [
			{"url": "https://cdn/video-only", "ext": "mp4", "height": 1080, "acodec": "none", "vcodec": "h264"}
		]
	}`), &info))

	_, ok := pickMuxedFormat(&info)
	assert.False(t, ok)
}

func TestClassifyYTDLPError(t *testing.T) {
	tests := []struct {
		stderr   string
		expected domain.FailureKind
	}{
		{"ERROR: Unsupported URL: https://example.com", domain.KindNoMedia},
		{"ERROR: This video is private", domain.KindNoMedia},
		{"ERROR: Sign in to confirm your age", domain.KindNoMedia},
		{"ERROR: Video unavailable", domain.KindNoMedia},
		{"ERROR: 'foo' is not a valid URL", domain.KindInvalidURL},
		{"ERROR: Unable to download webpage: timed out", domain.KindTransient},
		{"", domain.KindTransient},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, classifyYTDLPError(tt.stderr), "stderr: %q", tt.stderr)
	}
}

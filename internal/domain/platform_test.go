package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Platform
	}{
		{"youtube watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", PlatformYouTube},
		{"youtube short URL", "https://youtu.be/dQw4w9WgXcQ", PlatformYouTube},
		{"youtube shorts", "https://youtube.com/shorts/abc123def45", PlatformYouTube},
		{"youtube mixed case host", "https://WWW.YouTube.com/watch?v=dQw4w9WgXcQ", PlatformYouTube},
		{"facebook video", "https://www.facebook.com/watch/?v=123456", PlatformFacebook},
		{"facebook short link", "https://fb.watch/abc123/", PlatformFacebook},
		{"linkedin post", "https://www.linkedin.com/posts/someone_video-activity-123", PlatformLinkedIn},
		{"tiktok video", "https://www.tiktok.com/@user/video/7123456789", PlatformTikTok},
		{"url embedded in text", "check this out https://youtu.be/dQw4w9WgXcQ please", PlatformYouTube},
		{"unknown site", "https://vimeo.com/12345", PlatformUnknown},
		{"plain text no url", "hello how are you", PlatformUnknown},
		{"empty string", "", PlatformUnknown},
		{"domain mentioned without path", "I like youtube.com a lot", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.text))
		})
	}
}

func TestClassifyNeverReturnsInstagram(t *testing.T) {
	// Instagram arrives through the DM bridge, not chat classification.
	assert.Equal(t, PlatformUnknown, Classify("https://www.instagram.com/reel/abc123/"))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(PlatformYouTube))
	assert.True(t, Supported(PlatformFacebook))
	assert.True(t, Supported(PlatformLinkedIn))
	assert.True(t, Supported(PlatformTikTok))
	assert.False(t, Supported(PlatformUnknown))
}

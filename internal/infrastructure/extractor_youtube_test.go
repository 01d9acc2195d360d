package infrastructure

import (
	"errors"
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

func TestMimeContainer(t *testing.T) {
	assert.Equal(t, "mp4", mimeContainer(`video/mp4; codecs="avc1.640028"`))
	assert.Equal(t, "webm", mimeContainer(`audio/webm; codecs="opus"`))
	assert.Equal(t, "3gp", mimeContainer("video/3gpp"))
	assert.Equal(t, "mp4", mimeContainer(""))
	assert.Equal(t, "mp4", mimeContainer("garbage"))
}

func TestClassifyYouTubeError(t *testing.T) {
	assert.Equal(t, domain.KindNoMedia, classifyYouTubeError(youtube.ErrVideoPrivate))
	assert.Equal(t, domain.KindNoMedia, classifyYouTubeError(youtube.ErrLoginRequired))
	assert.Equal(t, domain.KindInvalidURL, classifyYouTubeError(youtube.ErrVideoIDMinLength))
	assert.Equal(t, domain.KindTransient, classifyYouTubeError(errors.New("connection reset")))
}

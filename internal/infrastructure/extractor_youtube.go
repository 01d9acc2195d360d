package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// YouTubeExtractor resolves YouTube watch URLs into the full rendition set
// via the innertube client. Stream URLs are deciphered lazily: Extract
// leaves SourceURL empty and ResolveStreamURL fills it for the renditions
// the requester actually picked.
type YouTubeExtractor struct {
	client *youtube.Client
	logger *zap.Logger
}

// NewYouTubeExtractor creates an extractor. httpClient may be nil; passing
// one lets the caller route requests through the cookie pool transport.
func NewYouTubeExtractor(httpClient *http.Client, logger *zap.Logger) *YouTubeExtractor {
	return &YouTubeExtractor{
		client: &youtube.Client{HTTPClient: httpClient},
		logger: logger,
	}
}

func (e *YouTubeExtractor) Platform() domain.Platform {
	return domain.PlatformYouTube
}

// Extract fetches video metadata and maps every format to a rendition.
func (e *YouTubeExtractor) Extract(ctx context.Context, url string) (*domain.Extraction, error) {
	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		return nil, domain.Fail(domain.KindInvalidURL, domain.PlatformYouTube, url,
			fmt.Errorf("failed to parse video ID: %w", err))
	}

	video, err := e.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, domain.Fail(classifyYouTubeError(err), domain.PlatformYouTube, url,
			fmt.Errorf("failed to fetch video metadata: %w", err))
	}

	extraction := &domain.Extraction{Title: video.Title}
	for _, f := range video.Formats {
		extraction.Renditions = append(extraction.Renditions, domain.Rendition{
			Container:    mimeContainer(f.MimeType),
			QualityLabel: f.QualityLabel,
			HasAudio:     f.AudioChannels > 0,
			HasVideo:     f.Width > 0 || f.Height > 0,
			Bitrate:      formatBitrate(&f),
			Itag:         f.ItagNo,
		})
	}

	e.logger.Debug("YouTube extraction completed",
		zap.String("video_id", videoID),
		zap.Int("formats", len(extraction.Renditions)))
	return extraction, nil
}

// ResolveStreamURL deciphers the stream URL for one selected rendition.
func (e *YouTubeExtractor) ResolveStreamURL(ctx context.Context, sourceURL string, r domain.Rendition) (string, error) {
	videoID, err := youtube.ExtractVideoID(sourceURL)
	if err != nil {
		return "", domain.Fail(domain.KindInvalidURL, domain.PlatformYouTube, sourceURL, err)
	}

	video, err := e.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", domain.Fail(classifyYouTubeError(err), domain.PlatformYouTube, sourceURL, err)
	}

	for i := range video.Formats {
		if video.Formats[i].ItagNo != r.Itag {
			continue
		}
		streamURL, err := e.client.GetStreamURLContext(ctx, video, &video.Formats[i])
		if err != nil {
			return "", domain.Fail(domain.KindTransient, domain.PlatformYouTube, sourceURL,
				fmt.Errorf("failed to decipher stream URL for itag %d: %w", r.Itag, err))
		}
		return streamURL, nil
	}

	return "", domain.Fail(domain.KindNoMedia, domain.PlatformYouTube, sourceURL,
		fmt.Errorf("itag %d no longer offered", r.Itag))
}

// classifyYouTubeError maps library errors to failure kinds. Restricted
// content counts as no-media from the requester's point of view.
func classifyYouTubeError(err error) domain.FailureKind {
	switch {
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return domain.KindNoMedia
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return domain.KindInvalidURL
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return domain.KindNoMedia
	}
	return domain.KindTransient
}

// mimeContainer extracts the container from a mime type
// ("video/mp4; codecs=...") -> "mp4".
func mimeContainer(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	parts := strings.Split(mime, "/")
	if len(parts) != 2 || parts[1] == "" {
		return "mp4"
	}
	if parts[1] == "3gpp" {
		return "3gp"
	}
	return parts[1]
}

func formatBitrate(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return f.AverageBitrate
}

package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// YTDLPExtractor resolves direct stream URLs for platforms without a native
// client library (Facebook, LinkedIn, TikTok, Instagram) by shelling out to
// yt-dlp in metadata-only mode. The actual byte transfer stays in the HTTP
// fetcher so progress and cancellation behave the same on every platform.
type YTDLPExtractor struct {
	platform domain.Platform
	config   *domain.ResolverConfig
	logger   *zap.Logger
}

// NewYTDLPExtractor creates a resolver bound to one platform.
func NewYTDLPExtractor(platform domain.Platform, config *domain.ResolverConfig, logger *zap.Logger) *YTDLPExtractor {
	return &YTDLPExtractor{
		platform: platform,
		config:   config,
		logger:   logger,
	}
}

func (e *YTDLPExtractor) Platform() domain.Platform {
	return e.platform
}

// ytdlpInfo is the subset of yt-dlp -J output the resolver needs.
type ytdlpInfo struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Ext     string `json:"ext"`
	Formats []struct {
		URL    string  `json:"url"`
		Ext    string  `json:"ext"`
		Height int     `json:"height"`
		ACodec string  `json:"acodec"`
		VCodec string  `json:"vcodec"`
		TBR    float64 `json:"tbr"`
	} `json:"formats"`
}

// Extract runs yt-dlp -J and maps the best muxed format to a single
// rendition with both tracks.
func (e *YTDLPExtractor) Extract(ctx context.Context, url string) (*domain.Extraction, error) {
	args := []string{"-J", "--no-warnings", "--no-playlist"}
	if e.config.CookieFile != "" {
		if _, err := os.Stat(e.config.CookieFile); err == nil {
			args = append(args, "--cookies", e.config.CookieFile)
		}
	}
	args = append(args, url)

	e.logger.Debug("Resolving media URL",
		zap.String("platform", string(e.platform)),
		zap.String("command", ShellEscapeCommand(e.binary(), args...)))

	cmd := exec.CommandContext(ctx, e.binary(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domain.Fail(classifyYTDLPError(stderr.String()), e.platform, url,
			fmt.Errorf("yt-dlp failed: %w: %s", err, stderrTail(stderr.String())))
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, domain.Fail(domain.KindTransient, e.platform, url,
			fmt.Errorf("failed to parse yt-dlp output: %w", err))
	}

	rendition, ok := pickMuxedFormat(&info)
	if !ok {
		return nil, domain.Fail(domain.KindNoMedia, e.platform, url,
			fmt.Errorf("no downloadable format in yt-dlp output"))
	}

	return &domain.Extraction{
		Title:      info.Title,
		Renditions: []domain.Rendition{rendition},
	}, nil
}

func (e *YTDLPExtractor) binary() string {
	if e.config.YTDLPBinary != "" {
		return e.config.YTDLPBinary
	}
	return "yt-dlp"
}

// pickMuxedFormat prefers the top-level resolved URL, then the best format
// that carries both audio and video.
func pickMuxedFormat(info *ytdlpInfo) (domain.Rendition, bool) {
	if info.URL != "" {
		return domain.Rendition{
			SourceURL: info.URL,
			Container: defaultContainer(info.Ext),
			HasAudio:  true,
			HasVideo:  true,
		}, true
	}

	best := -1
	for i, f := range info.Formats {
		if f.URL == "" || f.ACodec == "none" || f.VCodec == "none" {
			continue
		}
		if best < 0 || f.Height > info.Formats[best].Height ||
			(f.Height == info.Formats[best].Height && f.TBR > info.Formats[best].TBR) {
			best = i
		}
	}
	if best < 0 {
		return domain.Rendition{}, false
	}

	f := info.Formats[best]
	label := ""
	if f.Height > 0 {
		label = fmt.Sprintf("%dp", f.Height)
	}
	return domain.Rendition{
		SourceURL:    f.URL,
		Container:    defaultContainer(f.Ext),
		QualityLabel: label,
		HasAudio:     true,
		HasVideo:     true,
		Bitrate:      int(f.TBR * 1000),
	}, true
}

func defaultContainer(ext string) string {
	if ext == "" {
		return "mp4"
	}
	return ext
}

// classifyYTDLPError maps known yt-dlp stderr patterns to failure kinds.
// Unknown failures stay transient so the user is told to retry.
func classifyYTDLPError(stderr string) domain.FailureKind {
	lower := strings.ToLower(stderr)
	noMediaMarkers := []string{
		"unsupported url",
		"private",
		"login",
		"sign in",
		"this content isn't available",
		"video unavailable",
		"no video formats",
	}
	for _, marker := range noMediaMarkers {
		if strings.Contains(lower, marker) {
			return domain.KindNoMedia
		}
	}
	if strings.Contains(lower, "is not a valid url") {
		return domain.KindInvalidURL
	}
	return domain.KindTransient
}

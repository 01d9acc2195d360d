package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// FFmpegMerger combines separate audio and video files into one mp4 using
// the ffmpeg binary. Output is H.264 video with AAC audio so chat clients
// play it inline.
type FFmpegMerger struct {
	binary       string
	preset       string
	audioBitrate string
	logger       *zap.Logger
}

// NewFFmpegMerger creates a merger from the merge profile config.
func NewFFmpegMerger(config *domain.MergeConfig, logger *zap.Logger) *FFmpegMerger {
	binary := config.FFmpegBinary
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegMerger{
		binary:       binary,
		preset:       config.Preset,
		audioBitrate: config.AudioBitrate,
		logger:       logger,
	}
}

// Merge runs ffmpeg over the two inputs. The process is bound to ctx so a
// superseded or timed-out pipeline kills the transcode.
func (m *FFmpegMerger) Merge(ctx context.Context, videoPath, audioPath, outputPath string) error {
	args := m.buildMergeArgs(videoPath, audioPath, outputPath)

	m.logger.Info("Merging audio and video",
		zap.String("command", ShellEscapeCommand(m.binary, args...)))

	cmd := exec.CommandContext(ctx, m.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, stderrTail(stderr.String()))
	}
	return nil
}

func (m *FFmpegMerger) buildMergeArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libx264",
		"-preset", m.preset,
		"-c:a", "aac",
		"-b:a", m.audioBitrate,
		"-movflags", "+faststart",
		outputPath,
	}
}

// stderrTail keeps the last few lines of ffmpeg output, which is where the
// actual failure reason lands.
func stderrTail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " | ")
}

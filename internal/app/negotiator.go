package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

const (
	choiceAudioOnly = 0
	choiceVideo     = 1
)

// Negotiator drives the interactive format selection: audio-only versus
// video first, then a quality pick for video. Each question issues a fresh
// single-use choice token scoped to the requester.
type Negotiator struct {
	choices   *ChoiceTable
	messenger domain.Messenger
	logger    *zap.Logger
}

// NewNegotiator creates a format negotiator.
func NewNegotiator(choices *ChoiceTable, messenger domain.Messenger, logger *zap.Logger) *Negotiator {
	return &Negotiator{
		choices:   choices,
		messenger: messenger,
		logger:    logger,
	}
}

// Negotiate resolves the requester's selection against the extracted
// rendition set and fills in job.Video / job.Audio. A rendition without an
// audio track additionally selects the best audio-only rendition so the
// pipeline can merge the two.
func (n *Negotiator) Negotiate(ctx context.Context, job *domain.DownloadJob, extraction *domain.Extraction) error {
	job.SetStatus(domain.StatusNegotiating)

	typeChoice := n.choices.Issue(job.RequesterID, 2)
	options := []string{"Audio only", "Video"}
	if err := n.messenger.PresentChoices(job.RequesterID, "What would you like to download?", options, typeChoice.Token); err != nil {
		n.choices.Invalidate(typeChoice.Token)
		return fmt.Errorf("failed to present type choice: %w", err)
	}

	selected, err := typeChoice.Await(ctx)
	if err != nil {
		// The pipeline died or timed out; its token must not stay
		// consumable from the dead keyboard.
		n.choices.Invalidate(typeChoice.Token)
		return err
	}

	if selected == choiceAudioOnly {
		audio, ok := domain.BestAudio(extraction.Renditions)
		if !ok {
			return domain.Fail(domain.KindNoMedia, job.Platform, job.SourceURL, fmt.Errorf("no audio-only rendition available"))
		}
		job.Audio = &audio
		n.logger.Info("Format resolved",
			zap.String("job", job.ID),
			zap.String("selection", "audio"),
			zap.Int("bitrate", audio.Bitrate))
		return nil
	}

	candidates := domain.VideoCandidates(extraction.Renditions)
	if len(candidates) == 0 {
		return domain.Fail(domain.KindNoMedia, job.Platform, job.SourceURL, fmt.Errorf("no video renditions available"))
	}

	labels := make([]string, len(candidates))
	for i, r := range candidates {
		labels[i] = r.QualityLabel
		if !r.HasAudio {
			labels[i] += " (merged audio)"
		}
	}

	qualityChoice := n.choices.Issue(job.RequesterID, len(candidates))
	if err := n.messenger.PresentChoices(job.RequesterID, "Pick a quality:", labels, qualityChoice.Token); err != nil {
		n.choices.Invalidate(qualityChoice.Token)
		return fmt.Errorf("failed to present quality choice: %w", err)
	}

	idx, err := qualityChoice.Await(ctx)
	if err != nil {
		n.choices.Invalidate(qualityChoice.Token)
		return err
	}

	chosen := candidates[idx]
	job.Video = &chosen
	if !chosen.HasAudio {
		audio, ok := domain.BestAudio(extraction.Renditions)
		if !ok {
			return domain.Fail(domain.KindNoMedia, job.Platform, job.SourceURL, fmt.Errorf("rendition %s has no audio and no audio-only rendition exists", chosen.QualityLabel))
		}
		job.Audio = &audio
	}

	n.logger.Info("Format resolved",
		zap.String("job", job.ID),
		zap.String("selection", "video"),
		zap.String("quality", chosen.QualityLabel),
		zap.Bool("needs_merge", job.NeedsMerge()))
	return nil
}

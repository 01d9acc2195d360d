package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// FailureNotifier receives operational failure notices (admin channel).
type FailureNotifier interface {
	NotifyPipelineFailed(platform domain.Platform, url string, err error)
}

// Orchestrator runs one download pipeline per inbound URL:
// classify -> extract -> (negotiate) -> fetch -> (merge) -> deliver ->
// cleanup. Every exit path reaches cleanup exactly once, and the requester
// receives exactly one terminal message.
type Orchestrator struct {
	extractors map[domain.Platform]domain.Extractor
	fetcher    domain.Fetcher
	merger     domain.Merger
	messenger  domain.Messenger
	negotiator *Negotiator
	choices    *ChoiceTable
	repo       domain.UserLinkRepository
	notifier   FailureNotifier
	config     *domain.DownloadConfig
	logger     *zap.Logger

	mu     sync.Mutex
	active map[int64]*activeJob
}

type activeJob struct {
	job    *domain.DownloadJob
	cancel context.CancelFunc
}

// NewOrchestrator creates a session orchestrator.
func NewOrchestrator(
	extractors map[domain.Platform]domain.Extractor,
	fetcher domain.Fetcher,
	merger domain.Merger,
	messenger domain.Messenger,
	negotiator *Negotiator,
	choices *ChoiceTable,
	repo domain.UserLinkRepository,
	notifier FailureNotifier,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		extractors: extractors,
		fetcher:    fetcher,
		merger:     merger,
		messenger:  messenger,
		negotiator: negotiator,
		choices:    choices,
		repo:       repo,
		notifier:   notifier,
		config:     config,
		logger:     logger,
		active:     make(map[int64]*activeJob),
	}
}

// HandleRequest processes one inbound message. Unsupported links get the
// static guidance reply; supported links run the full pipeline. Intended to
// be called on its own goroutine per message.
func (o *Orchestrator) HandleRequest(ctx context.Context, requesterID int64, username, text string) {
	if _, err := o.repo.EnsureUser(requesterID); err != nil {
		o.logger.Error("Failed to ensure user record",
			zap.Int64("requester", requesterID),
			zap.Error(err))
	}

	platform := domain.Classify(text)
	if platform == domain.PlatformUnknown {
		if err := o.messenger.SendText(requesterID, msgUnsupported); err != nil {
			o.logger.Error("Failed to send guidance message", zap.Error(err))
		}
		return
	}

	job := domain.NewDownloadJob(requesterID, platform, text)
	o.runPipeline(ctx, job, username, func(runCtx context.Context) error {
		return o.download(runCtx, job, username)
	})
}

// DeliverDirect fetches an already-resolved media URL and sends it to the
// chat. Used by the Instagram bridge and the HTTP relay endpoint.
func (o *Orchestrator) DeliverDirect(ctx context.Context, requesterID int64, mediaURL, caption string) error {
	job := domain.NewDownloadJob(requesterID, domain.PlatformInstagram, mediaURL)
	job.Video = &domain.Rendition{SourceURL: mediaURL, Container: "mp4", HasAudio: true, HasVideo: true}

	var runErr error
	o.runPipeline(ctx, job, "", func(runCtx context.Context) error {
		runErr = o.fetchAndDeliver(runCtx, job, caption)
		return runErr
	})
	return runErr
}

// runPipeline wraps a job execution with supersede registration, the
// pipeline deadline, terminal messaging, and guaranteed cleanup.
func (o *Orchestrator) runPipeline(ctx context.Context, job *domain.DownloadJob, username string, run func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, o.config.PipelineTimeout)
	o.register(job, cancel)

	defer func() {
		o.unregister(job)
		cancel()
		if err := job.Cleanup(); err != nil {
			o.logger.Warn("Temp file cleanup failed",
				zap.String("job", job.ID),
				zap.Error(err))
		}
	}()

	err := run(runCtx)
	if err == nil {
		job.SetStatus(domain.StatusCompleted)
		return
	}

	superseded := job.Status() == domain.StatusSuperseded
	if !superseded {
		job.SetStatus(domain.StatusFailed)
	}

	o.logger.Error("Pipeline failed",
		zap.String("job", job.ID),
		zap.String("platform", string(job.Platform)),
		zap.String("url", job.SourceURL),
		zap.Int64("requester", job.RequesterID),
		zap.String("kind", string(domain.KindOf(err))),
		zap.Bool("superseded", superseded),
		zap.Error(err))

	// A superseded job was abandoned by its own requester; stay silent so
	// the replacement pipeline owns the conversation.
	if superseded {
		return
	}

	if o.notifier != nil {
		o.notifier.NotifyPipelineFailed(job.Platform, job.SourceURL, err)
	}
	if sendErr := o.messenger.SendText(job.RequesterID, UserMessage(err, job.Platform)); sendErr != nil {
		o.logger.Error("Failed to send failure message", zap.Error(sendErr))
	}
}

// download is the full pipeline for a classified chat URL.
func (o *Orchestrator) download(ctx context.Context, job *domain.DownloadJob, username string) error {
	extractor, ok := o.extractors[job.Platform]
	if !ok {
		return fmt.Errorf("no extractor registered for platform %s", job.Platform)
	}

	if err := o.messenger.SendText(job.RequesterID, fmt.Sprintf("Processing your %s download request...", job.Platform)); err != nil {
		o.logger.Warn("Failed to send acknowledgement", zap.Error(err))
	}

	job.SetStatus(domain.StatusExtracting)
	extraction, err := extractor.Extract(ctx, job.SourceURL)
	if err != nil {
		return err
	}
	if len(extraction.Renditions) == 0 {
		return domain.Fail(domain.KindNoMedia, job.Platform, job.SourceURL, errors.New("extractor returned no renditions"))
	}
	job.Title = extraction.Title

	if job.Platform == domain.PlatformYouTube {
		if err := o.negotiator.Negotiate(ctx, job, extraction); err != nil {
			return err
		}
	} else {
		r := extraction.Renditions[0]
		job.Video = &r
	}

	if err := o.resolveStreamURLs(ctx, extractor, job); err != nil {
		return err
	}

	caption := job.Title
	if username != "" {
		caption = fmt.Sprintf("%s\n\nRequested by: @%s", job.Title, username)
	}
	return o.fetchAndDeliver(ctx, job, caption)
}

// resolveStreamURLs fills in lazily-deciphered stream URLs for the selected
// renditions.
func (o *Orchestrator) resolveStreamURLs(ctx context.Context, extractor domain.Extractor, job *domain.DownloadJob) error {
	resolver, ok := extractor.(domain.StreamResolver)
	for _, r := range []*domain.Rendition{job.Video, job.Audio} {
		if r == nil || r.SourceURL != "" {
			continue
		}
		if !ok {
			return fmt.Errorf("rendition has no stream URL and extractor cannot resolve one")
		}
		streamURL, err := resolver.ResolveStreamURL(ctx, job.SourceURL, *r)
		if err != nil {
			return err
		}
		r.SourceURL = streamURL
	}
	return nil
}

// fetchAndDeliver runs fetch, optional merge, delivery, and history append.
func (o *Orchestrator) fetchAndDeliver(ctx context.Context, job *domain.DownloadJob, caption string) error {
	if err := os.MkdirAll(o.config.TempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	status, statusErr := o.messenger.SendStatus(job.RequesterID, "Starting download... 0%")
	editStatus := func(text string) {
		if statusErr != nil {
			return
		}
		if err := o.messenger.EditStatus(status, text); err != nil {
			o.logger.Debug("Failed to edit status message", zap.Error(err))
		}
	}

	job.SetStatus(domain.StatusFetching)
	var reqs []domain.FetchRequest
	var deliverPath, videoPath, audioPath string

	if job.Video != nil {
		videoPath = o.tempPath(job, "video", job.Video.Container)
		job.AddTempPath(videoPath)
		deliverPath = videoPath
		reqs = append(reqs, domain.FetchRequest{
			URL:      job.Video.SourceURL,
			DestPath: videoPath,
			// Only the video stream drives the visible progress; the audio
			// leg is small and would make the percentage jump around.
			Progress: func(written, total int64) {
				editStatus(progressText(written, total))
			},
		})
	}
	if job.Audio != nil {
		audioPath = o.tempPath(job, "audio", job.Audio.Container)
		job.AddTempPath(audioPath)
		req := domain.FetchRequest{URL: job.Audio.SourceURL, DestPath: audioPath}
		if job.Video == nil {
			deliverPath = audioPath
			req.Progress = func(written, total int64) {
				editStatus(progressText(written, total))
			}
		}
		reqs = append(reqs, req)
	}

	if err := o.fetcher.FetchAll(ctx, reqs); err != nil {
		return err
	}

	if job.NeedsMerge() {
		job.SetStatus(domain.StatusMerging)
		editStatus("Merging audio and video...")
		merged := o.tempPath(job, "merged", "mp4")
		job.AddTempPath(merged)
		if err := o.merger.Merge(ctx, videoPath, audioPath, merged); err != nil {
			return domain.Fail(domain.KindMergeFailed, job.Platform, job.SourceURL, err)
		}
		deliverPath = merged
	}

	job.SetStatus(domain.StatusDelivering)
	editStatus("Download complete! Uploading...")
	if err := o.messenger.SendFile(ctx, job.RequesterID, deliverPath, caption); err != nil {
		return fmt.Errorf("failed to deliver file: %w", err)
	}

	if err := o.repo.AppendDownloadRecord(job.RequesterID, job.SourceURL, job.Platform); err != nil {
		o.logger.Warn("Failed to append download record",
			zap.Int64("requester", job.RequesterID),
			zap.Error(err))
	}

	editStatus("Done! File delivered.")
	return nil
}

// register makes job the single active job for its requester, superseding
// and cleaning up any prior one.
func (o *Orchestrator) register(job *domain.DownloadJob, cancel context.CancelFunc) {
	o.mu.Lock()
	prev := o.active[job.RequesterID]
	o.active[job.RequesterID] = &activeJob{job: job, cancel: cancel}
	o.mu.Unlock()

	if prev == nil {
		return
	}

	prev.job.SetStatus(domain.StatusSuperseded)
	prev.cancel()
	o.choices.InvalidateRequester(job.RequesterID)
	if err := prev.job.Cleanup(); err != nil {
		o.logger.Warn("Superseded job cleanup failed",
			zap.String("job", prev.job.ID),
			zap.Error(err))
	}
	o.logger.Info("Superseded active job",
		zap.String("old_job", prev.job.ID),
		zap.String("new_job", job.ID),
		zap.Int64("requester", job.RequesterID))
}

func (o *Orchestrator) unregister(job *domain.DownloadJob) {
	o.mu.Lock()
	if cur, ok := o.active[job.RequesterID]; ok && cur.job.ID == job.ID {
		delete(o.active, job.RequesterID)
	}
	o.mu.Unlock()
}

// LinkInstagram records the Instagram account for a requester, creating the
// user record first so the upsert always has a row to land on.
func (o *Orchestrator) LinkInstagram(requesterID int64, instagramID string) error {
	if _, err := o.repo.EnsureUser(requesterID); err != nil {
		return err
	}
	return o.repo.UpsertLink(requesterID, instagramID)
}

// ActiveJobs returns the number of running pipelines.
func (o *Orchestrator) ActiveJobs() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.active)
}

func (o *Orchestrator) tempPath(job *domain.DownloadJob, part, container string) string {
	if container == "" {
		container = "mp4"
	}
	return filepath.Join(o.config.TempDir, fmt.Sprintf("%s-%s.%s", job.ID, part, container))
}

func progressText(written, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("Downloading: %.1f MB", float64(written)/(1024*1024))
	}
	return fmt.Sprintf("Downloading: %.1f%%", float64(written)/float64(total)*100)
}

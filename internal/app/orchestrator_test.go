package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// fakeExtractor returns a canned extraction or error.
type fakeExtractor struct {
	platform   domain.Platform
	extraction *domain.Extraction
	err        error
	block      chan struct{}
}

func (f *fakeExtractor) Platform() domain.Platform { return f.platform }

func (f *fakeExtractor) Extract(ctx context.Context, url string) (*domain.Extraction, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.extraction, nil
}

// fakeFetcher writes a marker byte to each destination path.
type fakeFetcher struct {
	mu      sync.Mutex
	fetched []string
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, req domain.FetchRequest) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.fetched = append(f.fetched, req.URL)
	f.mu.Unlock()
	if req.Progress != nil {
		req.Progress(1, 1)
	}
	return os.WriteFile(req.DestPath, []byte("x"), 0644)
}

func (f *fakeFetcher) FetchAll(ctx context.Context, reqs []domain.FetchRequest) error {
	for _, req := range reqs {
		if err := f.Fetch(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// fakeMerger writes the output file.
type fakeMerger struct {
	mu     sync.Mutex
	merged int
	err    error
}

func (m *fakeMerger) Merge(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.merged++
	m.mu.Unlock()
	return os.WriteFile(outputPath, []byte("merged"), 0644)
}

// fakeRepo is an in-memory UserLinkRepository.
type fakeRepo struct {
	mu      sync.Mutex
	users   map[int64]*domain.UserLink
	records []*domain.DownloadRecord
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[int64]*domain.UserLink)}
}

func (r *fakeRepo) EnsureUser(requesterID int64) (*domain.UserLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[requesterID]; ok {
		return u, nil
	}
	u := &domain.UserLink{RequesterID: requesterID}
	r.users[requesterID] = u
	return u, nil
}

func (r *fakeRepo) FindByRequester(requesterID int64) (*domain.UserLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[requesterID], nil
}

func (r *fakeRepo) FindByInstagram(instagramID string) (*domain.UserLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.InstagramID == instagramID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) UpsertLink(requesterID int64, instagramID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[requesterID]
	if !ok {
		u = &domain.UserLink{RequesterID: requesterID}
		r.users[requesterID] = u
	}
	u.InstagramID = instagramID
	return nil
}

func (r *fakeRepo) AppendDownloadRecord(requesterID int64, url string, platform domain.Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, &domain.DownloadRecord{RequesterID: requesterID, URL: url, Platform: platform})
	return nil
}

func (r *fakeRepo) RecentDownloads(limit int) ([]*domain.DownloadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.DownloadRecord(nil), r.records...), nil
}

func (r *fakeRepo) Stats() (*domain.RelayStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.RelayStats{Users: int64(len(r.users)), Downloads: int64(len(r.records))}, nil
}

func (r *fakeRepo) recordCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeNotifier records pipeline failure notices.
type fakeNotifier struct {
	mu       sync.Mutex
	failures int
}

func (n *fakeNotifier) NotifyPipelineFailed(platform domain.Platform, url string, err error) {
	n.mu.Lock()
	n.failures++
	n.mu.Unlock()
}

func (n *fakeNotifier) failureCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.failures
}

type orchestratorFixture struct {
	orchestrator *Orchestrator
	messenger    *scriptedMessenger
	fetcher      *fakeFetcher
	merger       *fakeMerger
	repo         *fakeRepo
	notifier     *fakeNotifier
	tempDir      string
}

func newOrchestratorFixture(t *testing.T, extractors map[domain.Platform]domain.Extractor, answers ...int) *orchestratorFixture {
	t.Helper()

	table := NewChoiceTable(time.Minute)
	messenger := newScriptedMessenger(table, answers...)
	fetcher := &fakeFetcher{}
	merger := &fakeMerger{}
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	tempDir := t.TempDir()

	config := &domain.DownloadConfig{
		TempDir:          tempDir,
		PipelineTimeout:  10 * time.Second,
		ProgressInterval: time.Millisecond,
		ChoiceTTL:        time.Minute,
	}
	negotiator := NewNegotiator(table, messenger, zap.NewNop())
	orchestrator := NewOrchestrator(extractors, fetcher, merger, messenger, negotiator, table, repo, notifier, config, zap.NewNop())

	return &orchestratorFixture{
		orchestrator: orchestrator,
		messenger:    messenger,
		fetcher:      fetcher,
		merger:       merger,
		repo:         repo,
		notifier:     notifier,
		tempDir:      tempDir,
	}
}

func tempDirEmpty(t *testing.T, dir string) bool {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries) == 0
}

func TestHandleRequestYouTubeMergePath(t *testing.T) {
	extractors := map[domain.Platform]domain.Extractor{
		domain.PlatformYouTube: &fakeExtractor{
			platform: domain.PlatformYouTube,
			extraction: &domain.Extraction{
				Title: "Test Video",
				Renditions: []domain.Rendition{
					{SourceURL: "https://cdn/video", QualityLabel: "1080p", HasVideo: true, Container: "mp4"},
					{SourceURL: "https://cdn/audio", Container: "m4a", HasAudio: true, Bitrate: 128_000},
				},
			},
		},
	}
	// Video, then the only quality.
	f := newOrchestratorFixture(t, extractors, choiceVideo, 0)

	f.orchestrator.HandleRequest(context.Background(), 10, "alice", "https://youtu.be/abc")

	assert.Equal(t, 1, f.merger.merged, "separate streams must be merged")
	assert.Equal(t, 1, f.repo.recordCount())
	assert.True(t, tempDirEmpty(t, f.tempDir), "temp files must be removed after delivery")
	require.Len(t, f.messenger.files, 1)
	assert.Zero(t, f.notifier.failureCount())
}

func TestHandleRequestDirectPlatform(t *testing.T) {
	extractors := map[domain.Platform]domain.Extractor{
		domain.PlatformTikTok: &fakeExtractor{
			platform: domain.PlatformTikTok,
			extraction: &domain.Extraction{
				Title: "Dance",
				Renditions: []domain.Rendition{
					{SourceURL: "https://cdn/clip.mp4", Container: "mp4", HasVideo: true, HasAudio: true},
				},
			},
		},
	}
	f := newOrchestratorFixture(t, extractors)

	f.orchestrator.HandleRequest(context.Background(), 11, "bob", "https://www.tiktok.com/@u/video/123")

	assert.Zero(t, f.merger.merged, "muxed rendition needs no merge")
	assert.Empty(t, f.messenger.prompts, "no format negotiation outside YouTube")
	assert.Equal(t, 1, f.repo.recordCount())
	assert.True(t, tempDirEmpty(t, f.tempDir))
}

func TestHandleRequestUnsupportedLink(t *testing.T) {
	f := newOrchestratorFixture(t, map[domain.Platform]domain.Extractor{})

	f.orchestrator.HandleRequest(context.Background(), 12, "carol", "https://vimeo.com/999")

	texts := f.messenger.sentTexts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "not supported")
	assert.True(t, tempDirEmpty(t, f.tempDir), "guidance path creates no files")
	assert.Zero(t, f.repo.recordCount())
	assert.Zero(t, f.notifier.failureCount(), "unsupported platform is not a failure")
}

func TestHandleRequestNoMediaFailure(t *testing.T) {
	extractors := map[domain.Platform]domain.Extractor{
		domain.PlatformFacebook: &fakeExtractor{
			platform: domain.PlatformFacebook,
			err:      domain.Fail(domain.KindNoMedia, domain.PlatformFacebook, "u", errors.New("private")),
		},
	}
	f := newOrchestratorFixture(t, extractors)

	f.orchestrator.HandleRequest(context.Background(), 13, "dave", "https://fb.watch/abc/")

	texts := f.messenger.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[len(texts)-1], "Facebook")
	assert.Equal(t, 1, f.notifier.failureCount())
	assert.Zero(t, f.repo.recordCount())
	assert.True(t, tempDirEmpty(t, f.tempDir))
}

func TestHandleRequestEmptyRenditions(t *testing.T) {
	extractors := map[domain.Platform]domain.Extractor{
		domain.PlatformLinkedIn: &fakeExtractor{
			platform:   domain.PlatformLinkedIn,
			extraction: &domain.Extraction{Title: "Post"},
		},
	}
	f := newOrchestratorFixture(t, extractors)

	f.orchestrator.HandleRequest(context.Background(), 14, "erin", "https://linkedin.com/posts/x")

	texts := f.messenger.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[len(texts)-1], "LinkedIn")
	assert.Equal(t, 1, f.notifier.failureCount())
}

func TestNewRequestSupersedesActiveJob(t *testing.T) {
	block := make(chan struct{})
	extractors := map[domain.Platform]domain.Extractor{
		domain.PlatformTikTok: &fakeExtractor{
			platform: domain.PlatformTikTok,
			block:    block,
			extraction: &domain.Extraction{
				Title: "Clip",
				Renditions: []domain.Rendition{
					{SourceURL: "https://cdn/a.mp4", Container: "mp4", HasVideo: true, HasAudio: true},
				},
			},
		},
	}
	f := newOrchestratorFixture(t, extractors)

	first := make(chan struct{})
	go func() {
		f.orchestrator.HandleRequest(context.Background(), 15, "frank", "https://www.tiktok.com/@u/video/1")
		close(first)
	}()

	require.Eventually(t, func() bool { return f.orchestrator.ActiveJobs() == 1 }, time.Second, 5*time.Millisecond)

	// Second request for the same requester; unblock the extractor so both
	// pipelines can run to completion.
	second := make(chan struct{})
	go func() {
		f.orchestrator.HandleRequest(context.Background(), 15, "frank", "https://www.tiktok.com/@u/video/2")
		close(second)
	}()
	require.Eventually(t, func() bool { return f.orchestrator.ActiveJobs() >= 1 }, time.Second, 5*time.Millisecond)
	close(block)

	<-first
	<-second

	assert.Zero(t, f.orchestrator.ActiveJobs())
	assert.True(t, tempDirEmpty(t, f.tempDir))
	// The superseded pipeline must not produce a failure notice.
	for _, text := range f.messenger.sentTexts() {
		assert.NotContains(t, text, "something went wrong")
	}
}

func TestDeliverDirect(t *testing.T) {
	f := newOrchestratorFixture(t, map[domain.Platform]domain.Extractor{})

	err := f.orchestrator.DeliverDirect(context.Background(), 16, "https://cdn.instagram.com/v.mp4", "Forwarded")
	require.NoError(t, err)

	require.Len(t, f.messenger.files, 1)
	assert.Equal(t, 1, f.repo.recordCount())
	assert.True(t, tempDirEmpty(t, f.tempDir))
}

func TestLinkInstagram(t *testing.T) {
	f := newOrchestratorFixture(t, map[domain.Platform]domain.Extractor{})

	require.NoError(t, f.orchestrator.LinkInstagram(17, "grace_ig"))

	link, err := f.repo.FindByInstagram("grace_ig")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, int64(17), link.RequesterID)
}

package domain

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current phase of a download pipeline
type JobStatus string

const (
	StatusClassified  JobStatus = "classified"
	StatusExtracting  JobStatus = "extracting"
	StatusNegotiating JobStatus = "negotiating"
	StatusFetching    JobStatus = "fetching"
	StatusMerging     JobStatus = "merging"
	StatusDelivering  JobStatus = "delivering"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusSuperseded  JobStatus = "superseded"
)

// DownloadJob is one pipeline execution for one inbound URL. It exclusively
// owns the temp files it registers; Cleanup removes them all and is safe to
// call from any exit path, any number of times.
type DownloadJob struct {
	ID          string
	RequesterID int64
	Platform    Platform
	SourceURL   string
	Title       string

	Video *Rendition
	Audio *Rendition

	mu        sync.Mutex
	status    JobStatus
	tempPaths []string
	createdAt time.Time
}

// NewDownloadJob creates a job for a classified URL.
func NewDownloadJob(requesterID int64, platform Platform, url string) *DownloadJob {
	return &DownloadJob{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		Platform:    platform,
		SourceURL:   url,
		status:      StatusClassified,
		createdAt:   time.Now(),
	}
}

// SetStatus advances the pipeline phase.
func (j *DownloadJob) SetStatus(s JobStatus) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

// Status returns the current pipeline phase.
func (j *DownloadJob) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// IsTerminal reports whether the job reached a final state.
func (j *DownloadJob) IsTerminal() bool {
	switch j.Status() {
	case StatusCompleted, StatusFailed, StatusSuperseded:
		return true
	}
	return false
}

// NeedsMerge reports whether separate video and audio streams were selected.
func (j *DownloadJob) NeedsMerge() bool {
	return j.Video != nil && !j.Video.HasAudio && j.Audio != nil
}

// AddTempPath registers a file for removal when the job terminates.
func (j *DownloadJob) AddTempPath(path string) {
	j.mu.Lock()
	j.tempPaths = append(j.tempPaths, path)
	j.mu.Unlock()
}

// TempPaths returns a copy of the registered temp file paths.
func (j *DownloadJob) TempPaths() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.tempPaths))
	copy(out, j.tempPaths)
	return out
}

// Cleanup removes every registered temp file. Missing files are not an
// error; the first real removal failure is returned after all paths were
// attempted.
func (j *DownloadJob) Cleanup() error {
	j.mu.Lock()
	paths := j.tempPaths
	j.tempPaths = nil
	j.mu.Unlock()

	var firstErr error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

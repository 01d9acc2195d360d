package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/domain"
)

// HTTPFetcher streams media URLs to local files. A single instance is shared
// by all pipelines; per-transfer state lives on the stack.
type HTTPFetcher struct {
	// client has no overall timeout: large transfers are bounded by the
	// pipeline context, not by a fixed duration.
	client           *http.Client
	userAgent        string
	progressInterval time.Duration
	logger           *zap.Logger
}

// NewHTTPFetcher creates a fetcher with the given progress throttle.
func NewHTTPFetcher(userAgent string, progressInterval time.Duration, logger *zap.Logger) *HTTPFetcher {
	if progressInterval <= 0 {
		progressInterval = 2 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		userAgent:        userAgent,
		progressInterval: progressInterval,
		logger:           logger,
	}
}

// Fetch streams one URL to its destination path, emitting throttled
// progress. A partially written file is left at the destination on failure;
// the owning job's cleanup removes it.
func (f *HTTPFetcher) Fetch(ctx context.Context, req domain.FetchRequest) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return domain.Fail(domain.KindInvalidURL, "", req.URL, err)
	}
	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return domain.Fail(domain.KindTransient, "", req.URL, fmt.Errorf("fetch request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return domain.Fail(domain.KindNoMedia, "", req.URL, fmt.Errorf("source returned %d", resp.StatusCode))
	default:
		return domain.Fail(domain.KindTransient, "", req.URL, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	out, err := os.Create(req.DestPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", req.DestPath, err)
	}

	total := resp.ContentLength
	written, copyErr := f.copyWithProgress(ctx, out, resp.Body, total, req.Progress)
	closeErr := out.Close()

	if copyErr != nil {
		return domain.Fail(domain.KindTransient, "", req.URL, fmt.Errorf("stream aborted after %d bytes: %w", written, copyErr))
	}
	if closeErr != nil {
		return fmt.Errorf("failed to flush %s: %w", req.DestPath, closeErr)
	}

	f.logger.Debug("Fetch completed",
		zap.String("dest", req.DestPath),
		zap.Int64("bytes", written))
	return nil
}

// FetchAll runs the requests concurrently. The first failure cancels the
// rest; every started transfer is awaited so no goroutine outlives the call
// and every partial file stays owned by its job.
func (f *HTTPFetcher) FetchAll(ctx context.Context, reqs []domain.FetchRequest) error {
	if len(reqs) == 0 {
		return errors.New("no fetch requests")
	}
	if len(reqs) == 1 {
		return f.Fetch(ctx, reqs[0])
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for _, req := range reqs {
		wg.Add(1)
		go func(req domain.FetchRequest) {
			defer wg.Done()
			if err := f.Fetch(fetchCtx, req); err != nil {
				// The first failure wins; sibling transfers then abort
				// with cancellation errors that would mask the cause.
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				cancel()
			}
		}(req)
	}
	wg.Wait()

	return firstErr
}

// copyWithProgress copies body to out, reporting progress at most once per
// progress interval plus a final report on completion.
func (f *HTTPFetcher) copyWithProgress(ctx context.Context, out io.Writer, body io.Reader, total int64, progress domain.ProgressFunc) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	lastReport := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			wn, writeErr := out.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if progress != nil && time.Since(lastReport) >= f.progressInterval {
				progress(written, total)
				lastReport = time.Now()
			}
		}
		if readErr == io.EOF {
			if progress != nil {
				progress(written, total)
			}
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

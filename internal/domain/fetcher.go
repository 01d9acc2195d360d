package domain

import "context"

// ProgressFunc receives fetch progress. total is -1 when the source does
// not declare a size.
type ProgressFunc func(written, total int64)

// FetchRequest describes one stream-to-disk transfer.
type FetchRequest struct {
	URL      string
	DestPath string
	Progress ProgressFunc
}

// Fetcher streams remote media to local files.
type Fetcher interface {
	// Fetch streams one URL to its destination path
	Fetch(ctx context.Context, req FetchRequest) error

	// FetchAll runs the requests concurrently and waits for all of them.
	// The first failure cancels the remaining transfers; every started
	// transfer is awaited before returning.
	FetchAll(ctx context.Context, reqs []FetchRequest) error
}

// Merger combines a video-only and an audio-only file into one playable
// output via external transcoding.
type Merger interface {
	Merge(ctx context.Context, videoPath, audioPath, outputPath string) error
}

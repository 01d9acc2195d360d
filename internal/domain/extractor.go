package domain

import "context"

// Extraction is the result of resolving a source URL on its platform.
// YouTube yields the full rendition set; direct-resolution platforms yield
// a single rendition with both tracks.
type Extraction struct {
	Title      string
	Renditions []Rendition
}

// Extractor resolves a URL into downloadable renditions.
type Extractor interface {
	// Platform returns the platform this extractor handles
	Platform() Platform

	// Extract fetches metadata and the available renditions. Failures are
	// classified via PipelineError (invalid URL, no media, transient).
	Extract(ctx context.Context, url string) (*Extraction, error)
}

// StreamResolver is implemented by extractors whose renditions carry an
// empty SourceURL until the stream URL is deciphered on demand.
type StreamResolver interface {
	ResolveStreamURL(ctx context.Context, sourceURL string, r Rendition) (string, error)
}

package domain

import (
	"errors"
	"fmt"
)

// FailureKind buckets pipeline failures for user messaging and retry policy
type FailureKind string

const (
	// KindInvalidURL means the URL is syntactically not a media URL.
	KindInvalidURL FailureKind = "invalid_url"
	// KindNoMedia means the content exists but nothing downloadable was found
	// (private, removed, or a post without media). Retrying will not help.
	KindNoMedia FailureKind = "no_media"
	// KindTransient covers network errors and timeouts; a retry may succeed.
	KindTransient FailureKind = "transient"
	// KindMergeFailed means the external audio/video merge step failed.
	KindMergeFailed FailureKind = "merge_failed"
	// KindStaleChoice means a format choice arrived for a token that was
	// already consumed, superseded, or never existed.
	KindStaleChoice FailureKind = "stale_choice"
)

// PipelineError carries the failure bucket plus enough context to diagnose
// a download without replaying the request.
type PipelineError struct {
	Kind     FailureKind
	Platform Platform
	URL      string
	Err      error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Platform, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Kind, e.Platform)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Fail wraps err into a PipelineError with the given bucket.
func Fail(kind FailureKind, platform Platform, url string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Platform: platform, URL: url, Err: err}
}

// KindOf extracts the failure bucket from an error chain. Unclassified
// errors default to transient: suggesting a retry is the safer guess.
func KindOf(err error) FailureKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

// Retryable reports whether a retry of the same request could succeed.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}

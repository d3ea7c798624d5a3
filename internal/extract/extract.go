package extract

// Package extract contains text extraction abstractions for scanned warranty
// documents. Two implementations exist: an in-process PDF extractor for
// bounded documents and an async OCR service client for unbounded ones.

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedFormat marks documents the extractor cannot read.
	// Not fatal for the pipeline: the document is skipped, not retried.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrJobTimeout marks an async extraction job still running past the
	// configured deadline. Retryable.
	ErrJobTimeout = errors.New("extraction job timed out")

	// ErrJobFailed marks an async extraction job the service reported as failed.
	ErrJobFailed = errors.New("extraction job failed")
)

// Ref identifies a document in object storage for extraction.
type Ref struct {
	Bucket      string
	Key         string
	ContentType string
}

// Extractor converts a stored raw document into plain text, one string per page.
type Extractor interface {
	Extract(ctx context.Context, ref Ref) ([]string, error)
}

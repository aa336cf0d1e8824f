package repository

import (
	"context"
	"image"
)

// FrameRepository supplies frames from an external source. A source that
// cannot supply a frame is a resource failure surfaced to the caller with a
// typed error; it is never retried here beyond the fetcher's own transient
// retries.
type FrameRepository interface {
	FetchFrame(ctx context.Context, frameURL string) (image.Image, error)
	ValidateFrameURL(frameURL string) error
}

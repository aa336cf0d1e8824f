package repository

import (
	"context"
	"image"
	"net/url"

	apperrors "go-id-capture/internal/errors"
	"go-id-capture/internal/storage"
)

type httpFrameRepository struct {
	fetcher storage.ImageFetcher
}

// NewHTTPFrameRepository creates a frame repository over an HTTP image
// fetcher.
func NewHTTPFrameRepository(fetcher storage.ImageFetcher) FrameRepository {
	return &httpFrameRepository{fetcher: fetcher}
}

func (r *httpFrameRepository) FetchFrame(ctx context.Context, frameURL string) (image.Image, error) {
	if err := r.ValidateFrameURL(frameURL); err != nil {
		return nil, err
	}

	img, err := r.fetcher.FetchImage(ctx, frameURL)
	if err != nil {
		return nil, apperrors.NewResourceError("frame source unavailable", err)
	}
	return img, nil
}

func (r *httpFrameRepository) ValidateFrameURL(frameURL string) error {
	parsed, err := url.Parse(frameURL)
	if err != nil {
		return apperrors.NewValidationError("invalid frame URL", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return apperrors.NewValidationError("frame URL must use http or https", nil)
	}
	if parsed.Host == "" {
		return apperrors.NewValidationError("frame URL must have a host", nil)
	}
	return nil
}

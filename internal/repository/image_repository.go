package repository

import (
	"context"
	"fmt"
	"image"

	"github.com/anime-shed/frame-scanner-go/internal/storage"
	"github.com/anime-shed/frame-scanner-go/pkg/validation"
)

// imageRepository fetches over HTTP, routing URLs on the configured blob
// account to blob storage instead
type imageRepository struct {
	fetcher   storage.ImageFetcher
	blobs     storage.BlobStorage
	validator *validation.URLValidator
}

// NewImageRepository creates an image repository. blobs may be nil.
func NewImageRepository(fetcher storage.ImageFetcher, blobs storage.BlobStorage) ImageRepository {
	return &imageRepository{
		fetcher:   fetcher,
		blobs:     blobs,
		validator: validation.NewURLValidator(),
	}
}

// FetchImage retrieves an image from a URL
func (r *imageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if r.blobs != nil && r.blobs.Owns(imageURL) {
		return r.blobs.GetImage(ctx, imageURL)
	}
	return r.fetcher.FetchImage(ctx, imageURL)
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *imageRepository) ValidateImageURL(imageURL string) error {
	if err := r.validator.ValidateImageURL(imageURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImageURL, err)
	}
	if r.blobs == nil && validation.IsBlobStorageURL(imageURL) {
		return ErrStorageUnavailable
	}
	return nil
}

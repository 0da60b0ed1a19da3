package repository

import (
	"context"
	"image"

	"github.com/anime-shed/frame-scanner-go/pkg/models"
)

// ImageRepository defines the interface for loading images to scan
type ImageRepository interface {
	// FetchImage retrieves an image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// ScanRepository stores scan results
type ScanRepository interface {
	// Save stores a result, assigning an id when it has none
	Save(ctx context.Context, result *models.ScanResult) error

	// Get retrieves a stored result
	Get(ctx context.Context, id string) (*models.ScanResult, error)

	// List returns up to limit results, newest first. A limit of zero or
	// less returns everything retained.
	List(ctx context.Context, limit int) ([]*models.ScanResult, error)
}

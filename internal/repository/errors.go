package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid image URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrScanNotFound indicates no stored scan has the requested id
	ErrScanNotFound = errors.New("scan not found")

	// ErrStorageUnavailable indicates a blob URL arrived with no blob storage configured
	ErrStorageUnavailable = errors.New("blob storage not configured")
)

package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobStorage reads frames from and archives snapshots to a blob container
type BlobStorage interface {
	GetImage(ctx context.Context, blobURL string) (image.Image, error)
	PutImage(ctx context.Context, container, name string, data []byte) (string, error)
	Owns(imageURL string) bool
}

type azureStorage struct {
	client   *azblob.Client
	host     string
	maxBytes int64
}

// NewAzureStorage creates a shared key client for the account. Blob URLs on
// any other host are not served by it.
func NewAzureStorage(accountName, accountKey string, maxBytes int64) (BlobStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credentials: %w", err)
	}

	host := fmt.Sprintf("%s.blob.core.windows.net", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential("https://"+host, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &azureStorage{client: client, host: host, maxBytes: maxBytes}, nil
}

// Owns reports whether imageURL points into this storage account
func (s *azureStorage) Owns(imageURL string) bool {
	u, err := url.Parse(imageURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, s.host)
}

// GetImage downloads and decodes the blob addressed by blobURL, in the form
// https://<account>.blob.core.windows.net/<container>/<blob>
func (s *azureStorage) GetImage(ctx context.Context, blobURL string) (image.Image, error) {
	container, blob, err := SplitBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	if s.maxBytes > 0 && resp.ContentLength != nil && *resp.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("blob too large: %d bytes (limit %d)", *resp.ContentLength, s.maxBytes)
	}

	reader := io.Reader(body)
	if s.maxBytes > 0 {
		reader = io.LimitReader(body, s.maxBytes)
	}
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode blob image: %w", err)
	}
	return img, nil
}

// PutImage uploads encoded image data and returns the blob URL
func (s *azureStorage) PutImage(ctx context.Context, container, name string, data []byte) (string, error) {
	if _, err := s.client.UploadBuffer(ctx, container, name, data, nil); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return url.JoinPath(s.client.URL(), container, name)
}

// SplitBlobURL extracts the container and blob names from a blob URL
func SplitBlobURL(blobURL string) (container, blob string, err error) {
	parts, err := azblob.ParseURL(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}
	if parts.ContainerName == "" || parts.BlobName == "" {
		return "", "", fmt.Errorf("invalid blob URL %q: container and blob name are required", blobURL)
	}
	return parts.ContainerName, parts.BlobName, nil
}

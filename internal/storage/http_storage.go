package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"
)

// ImageFetcher loads a still image to be scanned as a single frame
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)
}

const maxFetchAttempts = 3

// HTTPImageFetcher implements ImageFetcher over plain HTTP(S)
type HTTPImageFetcher struct {
	client   *http.Client
	maxBytes int64
	backoff  time.Duration
}

// NewHTTPImageFetcher creates an HTTP image fetcher. Bodies larger than
// maxBytes are rejected before decoding.
func NewHTTPImageFetcher(timeout time.Duration, maxBytes int64) *HTTPImageFetcher {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: maxBytes,
		backoff:  time.Second,
	}
}

// WithBackoff sets the base delay between retries. Attempt n waits n times
// the base.
func (h *HTTPImageFetcher) WithBackoff(d time.Duration) *HTTPImageFetcher {
	h.backoff = d
	return h
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	var lastErr error

	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		img, retry, err := h.fetchOnce(ctx, imageURL)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", maxFetchAttempts, lastErr)
}

// fetchOnce performs one request. The boolean reports whether a failure is
// transient.
func (h *HTTPImageFetcher) fetchOnce(ctx context.Context, imageURL string) (image.Image, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, */*")
	req.Header.Set("User-Agent", "Frame-Scanner-Go/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	}

	if h.maxBytes > 0 && resp.ContentLength > h.maxBytes {
		return nil, false, fmt.Errorf("image too large: %d bytes (limit %d)", resp.ContentLength, h.maxBytes)
	}

	body := io.Reader(resp.Body)
	if h.maxBytes > 0 {
		body = io.LimitReader(resp.Body, h.maxBytes)
	}
	img, _, err := image.Decode(body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, false, nil
}

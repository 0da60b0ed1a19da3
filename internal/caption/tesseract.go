// Package caption reads the human-readable text printed near a symbol.
package caption

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// TesseractReader runs Tesseract OCR. One engine instance is shared and
// calls are serialized.
type TesseractReader struct {
	mu       sync.Mutex
	client   *gosseract.Client
	language string
}

// NewTesseractReader creates a reader for the given Tesseract language code
func NewTesseractReader(language string) (*TesseractReader, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language %q: %w", language, err)
	}
	// Captions are a single line or a short block
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return &TesseractReader{client: client, language: language}, nil
}

// Language returns the configured language code
func (r *TesseractReader) Language() string {
	return r.language
}

// ReadText returns the text found in img with whitespace collapsed
func (r *TesseractReader) ReadText(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode caption region: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to load caption region: %w", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// Close releases the OCR engine
func (r *TesseractReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}

package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anime-shed/frame-scanner-go/internal/config"
	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	"github.com/anime-shed/frame-scanner-go/internal/frame"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "0",
		LogLevel:           "error",
		RequestTimeout:     5 * time.Second,
		ImageFetchTimeout:  time.Second,
		MaxRequestBodySize: 1 << 20,
		ScanFormats:        []decoder.Format{decoder.FormatQRCode, decoder.FormatCode128},
		ScanEncodings:      []frame.PixelEncoding{frame.EncodingYUV420},
		ScanTryHarder:      true,
		ScanWorkers:        2,
		HistoryLimit:       10,
	}
}

func TestAnalyzerOptions(t *testing.T) {
	opts := AnalyzerOptions(testConfig())

	if len(opts.Formats) != 2 || opts.Formats[1] != decoder.FormatCode128 {
		t.Errorf("Expected configured formats, got %v", opts.Formats)
	}
	if len(opts.AcceptedEncodings) != 1 || opts.AcceptedEncodings[0] != frame.EncodingYUV420 {
		t.Errorf("Expected configured encodings, got %v", opts.AcceptedEncodings)
	}
	if !opts.TryHarder {
		t.Error("Expected try harder to be enabled")
	}
}

func TestNewContainer(t *testing.T) {
	c, err := NewContainer(testConfig())
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	data, err := c.ScanService().RenderSymbol("container", decoder.FormatQRCode, 128)
	if err != nil || len(data) == 0 {
		t.Errorf("Expected wired scan service to render, got %v", err)
	}
}

func TestNewContainer_InvalidOptions(t *testing.T) {
	cfg := testConfig()
	cfg.ScanFormats = nil
	if _, err := NewContainer(cfg); err == nil {
		t.Error("Expected error for empty format list")
	}
}

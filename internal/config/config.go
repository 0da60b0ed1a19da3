package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	"github.com/anime-shed/frame-scanner-go/internal/frame"
)

type Config struct {
	Host               string
	Port               string
	LogLevel           string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	ScanTimeout        time.Duration
	MaxRequestBodySize int64

	// Scanner
	ScanFormats   []decoder.Format
	ScanEncodings []frame.PixelEncoding
	ScanTryHarder bool
	ScanWorkers   int
	HistoryLimit  int

	// Blob storage, enabled when both are set
	AzureStorageAccount string
	AzureStorageKey     string

	// Caption OCR
	OCREnabled  bool
	OCRLanguage string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob storage credentials are configured
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:   parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		ScanTimeout:         parseDurationOrDefault("SCAN_TIMEOUT", 20*time.Second),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		ScanTryHarder:       parseBoolOrDefault("SCAN_TRY_HARDER", false),
		ScanWorkers:         int(parseIntOrDefault("SCAN_WORKERS", 4)),
		HistoryLimit:        int(parseIntOrDefault("SCAN_HISTORY_LIMIT", 500)),
		AzureStorageAccount: strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
		AzureStorageKey:     strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),
		OCREnabled:          parseBoolOrDefault("OCR_ENABLED", false),
		OCRLanguage:         getEnvOrDefault("OCR_LANGUAGE", "eng"),
	}

	formats, err := decoder.ParseFormats(getEnvOrDefault("SCAN_FORMATS", string(decoder.FormatQRCode)))
	if err != nil {
		return nil, fmt.Errorf("invalid SCAN_FORMATS: %w", err)
	}
	cfg.ScanFormats = formats

	encodings, err := frame.ParseEncodings(getEnvOrDefault("SCAN_ENCODINGS", "YUV_420_888,YUV_422_888,YUV_444_888"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCAN_ENCODINGS: %w", err)
	}
	cfg.ScanEncodings = encodings

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.ScanWorkers <= 0 {
		return nil, fmt.Errorf("SCAN_WORKERS must be > 0 (got %d)", cfg.ScanWorkers)
	}
	if cfg.HistoryLimit <= 0 {
		return nil, fmt.Errorf("SCAN_HISTORY_LIMIT must be > 0 (got %d)", cfg.HistoryLimit)
	}
	if len(cfg.ScanFormats) == 0 || len(cfg.ScanEncodings) == 0 {
		return nil, fmt.Errorf("SCAN_FORMATS and SCAN_ENCODINGS must not be empty")
	}
	for _, enc := range cfg.ScanEncodings {
		if !enc.IsPlanarYUV() {
			return nil, fmt.Errorf("invalid SCAN_ENCODINGS: %s has no leading luminance plane", enc)
		}
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

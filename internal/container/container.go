package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anime-shed/frame-scanner-go/internal/analyzer"
	"github.com/anime-shed/frame-scanner-go/internal/caption"
	"github.com/anime-shed/frame-scanner-go/internal/config"
	"github.com/anime-shed/frame-scanner-go/internal/factory"
	"github.com/anime-shed/frame-scanner-go/internal/logger"
	"github.com/anime-shed/frame-scanner-go/internal/observer"
	"github.com/anime-shed/frame-scanner-go/internal/repository"
	"github.com/anime-shed/frame-scanner-go/internal/service"
	"github.com/anime-shed/frame-scanner-go/internal/stream"
	"github.com/anime-shed/frame-scanner-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config      *config.Config
	factory     *factory.ComponentFactory
	publisher   *observer.EventPublisher
	metrics     *observer.MetricsObserver
	hub         *stream.Hub
	captions    *caption.TesseractReader
	scanService service.ScanService
	handler     http.Handler
}

// AnalyzerOptions derives the base analyzer options from configuration
func AnalyzerOptions(cfg *config.Config) analyzer.Options {
	opts := analyzer.DefaultOptions().
		WithEncodings(cfg.ScanEncodings...).
		WithFormats(cfg.ScanFormats...)
	if cfg.ScanTryHarder {
		opts = opts.WithTryHarder()
	}
	return opts
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.Logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	// Build dependency graph
	components, err := factory.NewComponentFactory(AnalyzerOptions(cfg), factory.StorageConfig{
		FetchTimeout:  cfg.ImageFetchTimeout,
		MaxImageBytes: cfg.MaxRequestBodySize,
		AzureAccount:  cfg.AzureStorageAccount,
		AzureKey:      cfg.AzureStorageKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create components: %w", err)
	}

	blobs, err := components.StorageFactory.CreateBlobStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to create blob storage: %w", err)
	}
	imageRepository := repository.NewImageRepository(components.StorageFactory.CreateFetcher(), blobs)
	scanRepository := repository.NewMemoryScanRepository(cfg.HistoryLimit)

	metrics := observer.NewMetricsObserver()
	hub := stream.NewHub()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)
	publisher.Subscribe(hub)

	c := &Container{
		config:    cfg,
		factory:   components,
		publisher: publisher,
		metrics:   metrics,
		hub:       hub,
	}

	// A nil *TesseractReader must not reach the service as a non-nil interface
	var captions service.CaptionReader
	if cfg.OCREnabled {
		reader, err := caption.NewTesseractReader(cfg.OCRLanguage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize caption OCR: %w", err)
		}
		c.captions = reader
		captions = reader
	}

	c.scanService = service.NewScanService(imageRepository, scanRepository, components.AnalyzerFactory, captions, publisher, service.Config{
		FetchTimeout: cfg.ImageFetchTimeout,
		BatchWorkers: cfg.ScanWorkers,
	})
	c.handler = transport.NewHandler(c.scanService, metrics, hub, cfg)

	logger.WithField("storage", components.StorageFactory.Type()).Info("Container initialized")
	return c, nil
}

// Start runs background components until ctx ends
func (c *Container) Start(ctx context.Context) {
	go c.hub.Run(ctx)
}

// Close flushes pending events and releases the OCR engine
func (c *Container) Close() error {
	c.publisher.Flush()
	if c.captions != nil {
		return c.captions.Close()
	}
	return nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// ScanService returns the scan service
func (c *Container) ScanService() service.ScanService {
	return c.scanService
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/anime-shed/frame-scanner-go/internal/analyzer"
	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	"github.com/anime-shed/frame-scanner-go/internal/storage"
)

// Profile names a preset symbology selection
type Profile string

const (
	// ProfileQR decodes QR codes only
	ProfileQR Profile = "qr"
	// ProfileMatrix decodes every 2D symbology
	ProfileMatrix Profile = "matrix"
	// ProfileAll decodes every supported symbology
	ProfileAll Profile = "all"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// ScanProfile narrows a single analyzer. Zero values fall back to the
// factory's base options.
type ScanProfile struct {
	Formats   []decoder.Format
	TryHarder bool
}

// AnalyzerFactory creates frame analyzers
type AnalyzerFactory interface {
	CreateAnalyzer(profile ScanProfile, onResult analyzer.ResultHandler) (*analyzer.FrameAnalyzer, error)
	BaseOptions() analyzer.Options
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateFetcher() storage.ImageFetcher
	CreateBlobStorage() (storage.BlobStorage, error)
	Type() StorageType
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	base analyzer.Options
}

// NewAnalyzerFactory creates a factory whose analyzers start from base
func NewAnalyzerFactory(base analyzer.Options) (AnalyzerFactory, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return &analyzerFactory{base: base}, nil
}

// OptionsForProfile returns the preset options for a named profile
func OptionsForProfile(name string) (analyzer.Options, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(name))) {
	case ProfileQR, "":
		return analyzer.DefaultOptions(), nil
	case ProfileMatrix:
		return analyzer.MatrixOptions(), nil
	case ProfileAll:
		return analyzer.AllFormatsOptions(), nil
	default:
		return analyzer.Options{}, fmt.Errorf("unsupported scan profile: %s", name)
	}
}

// CreateAnalyzer creates an analyzer for one scan
func (f *analyzerFactory) CreateAnalyzer(profile ScanProfile, onResult analyzer.ResultHandler) (*analyzer.FrameAnalyzer, error) {
	opts := f.base
	if len(profile.Formats) > 0 {
		opts = opts.WithFormats(profile.Formats...)
	}
	if profile.TryHarder {
		opts = opts.WithTryHarder()
	}
	return analyzer.NewFrameAnalyzer(opts, onResult)
}

// BaseOptions returns the options analyzers start from
func (f *analyzerFactory) BaseOptions() analyzer.Options {
	return f.base
}

// StorageConfig carries what the storage backends need
type StorageConfig struct {
	FetchTimeout  time.Duration
	MaxImageBytes int64
	AzureAccount  string
	AzureKey      string
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg StorageConfig
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg StorageConfig) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// Type reports the richest backend the configuration allows
func (f *storageFactory) Type() StorageType {
	if f.cfg.AzureAccount != "" && f.cfg.AzureKey != "" {
		return AzureStorage
	}
	return HTTPStorage
}

// CreateFetcher creates the HTTP fetcher
func (f *storageFactory) CreateFetcher() storage.ImageFetcher {
	return storage.NewHTTPImageFetcher(f.cfg.FetchTimeout, f.cfg.MaxImageBytes)
}

// CreateBlobStorage creates the blob backend, or returns nil without error
// when none is configured
func (f *storageFactory) CreateBlobStorage() (storage.BlobStorage, error) {
	if f.Type() != AzureStorage {
		return nil, nil
	}
	return storage.NewAzureStorage(f.cfg.AzureAccount, f.cfg.AzureKey, f.cfg.MaxImageBytes)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(base analyzer.Options, storageCfg StorageConfig) (*ComponentFactory, error) {
	analyzers, err := NewAnalyzerFactory(base)
	if err != nil {
		return nil, err
	}
	return &ComponentFactory{
		AnalyzerFactory: analyzers,
		StorageFactory:  NewStorageFactory(storageCfg),
	}, nil
}

package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/frame-scanner-go/internal/analyzer"
	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	apperrors "github.com/anime-shed/frame-scanner-go/internal/errors"
	"github.com/anime-shed/frame-scanner-go/internal/factory"
	"github.com/anime-shed/frame-scanner-go/internal/frame"
	"github.com/anime-shed/frame-scanner-go/internal/logger"
	"github.com/anime-shed/frame-scanner-go/internal/observer"
	"github.com/anime-shed/frame-scanner-go/internal/repository"
	"github.com/anime-shed/frame-scanner-go/pkg/models"
	"github.com/anime-shed/frame-scanner-go/pkg/validation"
)

// ScanService scans still images the same way a camera frame is scanned
type ScanService interface {
	// ScanURL fetches an image and scans it
	ScanURL(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error)

	// ScanImage scans an image already in memory, such as an upload
	ScanImage(ctx context.Context, img image.Image, source string, opts models.ScanOptions) (*models.ScanResult, error)

	// ScanBatch scans several URLs concurrently
	ScanBatch(ctx context.Context, req models.BatchScanRequest) (*models.BatchScanResponse, error)

	// GetScan returns a stored scan
	GetScan(ctx context.Context, id string) (*models.ScanResult, error)

	// History lists stored scans, newest first
	History(ctx context.Context, limit int) ([]*models.ScanResult, error)

	// RenderSymbol encodes text as a PNG symbol
	RenderSymbol(text string, format decoder.Format, size int) ([]byte, error)
}

// CaptionReader reads printed text from an image region
type CaptionReader interface {
	ReadText(ctx context.Context, img image.Image) (string, error)
	Language() string
}

// Config tunes the scan service
type Config struct {
	FetchTimeout time.Duration
	BatchWorkers int
}

const (
	minRenderSize = 64
	maxRenderSize = 2048
)

// scanService implements ScanService
type scanService struct {
	imageRepo repository.ImageRepository
	scanRepo  repository.ScanRepository
	analyzers factory.AnalyzerFactory
	captions  CaptionReader
	events    observer.Subject
	stats     analyzer.LuminanceStatsCalculator
	finder    analyzer.FinderPatternDetector
	quality   *validation.QualityValidator
	cfg       Config
	log       *logrus.Entry
}

// NewScanService creates a new scan service. captions may be nil, in which
// case caption requests report OCR as disabled.
func NewScanService(
	imageRepo repository.ImageRepository,
	scanRepo repository.ScanRepository,
	analyzers factory.AnalyzerFactory,
	captions CaptionReader,
	events observer.Subject,
	cfg Config,
) ScanService {
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 4
	}
	return &scanService{
		imageRepo: imageRepo,
		scanRepo:  scanRepo,
		analyzers: analyzers,
		captions:  captions,
		events:    events,
		stats:     analyzer.NewLuminanceStatsCalculator(),
		finder:    analyzer.NewFinderPatternDetector(),
		quality:   validation.NewQualityValidator(),
		cfg:       cfg,
		log:       logger.Component("scan_service"),
	}
}

// ScanURL fetches an image and scans it
func (s *scanService) ScanURL(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error) {
	if err := s.imageRepo.ValidateImageURL(req.URL); err != nil {
		return nil, apperrors.NewValidationError("invalid image URL", err)
	}

	fetchCtx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	img, err := s.imageRepo.FetchImage(fetchCtx, req.URL)
	if err != nil {
		s.events.NotifyObservers(ctx, observer.ScanEvent{
			EventType:      observer.ImageFetchFailed,
			Source:         req.URL,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("timed out fetching image", err)
		}
		return nil, apperrors.NewNetworkError("failed to fetch image", err)
	}

	return s.ScanImage(ctx, img, req.URL, req.ScanOptions)
}

// ScanImage converts img to a frame and runs it through a fresh analyzer
func (s *scanService) ScanImage(ctx context.Context, img image.Image, source string, opts models.ScanOptions) (*models.ScanResult, error) {
	profile, err := s.profileFor(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s.events.NotifyObservers(ctx, observer.ScanEvent{EventType: observer.ScanStarted, Source: source})

	f, err := frame.FromImage(img)
	if err != nil {
		s.events.NotifyObservers(ctx, observer.ScanEvent{
			EventType:    observer.FrameRejected,
			Source:       source,
			ErrorMessage: err.Error(),
		})
		return nil, apperrors.NewUnsupportedMediaError("image cannot be converted to a frame", err)
	}

	// Read the luminance before the analyzer releases the frame
	gray, err := f.Image()
	if err != nil {
		f.Close()
		return nil, apperrors.NewProcessingError("failed to read frame luminance", err)
	}
	frameInfo := models.FrameInfo{Width: f.Width, Height: f.Height, Encoding: f.Encoding.String()}

	a, err := s.analyzers.CreateAnalyzer(profile, nil)
	if err != nil {
		f.Close()
		return nil, apperrors.NewInternalError("failed to create analyzer", err)
	}
	decoded, outcome := a.Decode(f)

	result := &models.ScanResult{
		Source:    source,
		Timestamp: time.Now().UTC(),
		Outcome:   outcome.String(),
		Decoded:   outcome == analyzer.OutcomeDecoded,
		Frame:     frameInfo,
	}
	s.attachQuality(result, gray)

	if decoded != nil {
		result.Symbol = toSymbol(decoded)
		if opts.ExpectedText != "" {
			result.Verification = verifyPayload(opts.ExpectedText, decoded.Text)
		}
	} else {
		result.FinderPatternsSeen = s.finder.HasFinderPatterns(gray)
		result.Errors = append(result.Errors, dropReason(outcome))
	}

	if opts.Caption {
		result.Caption = s.readCaption(ctx, gray, result.Symbol)
	}

	result.ProcessingTimeSec = time.Since(start).Seconds()
	if err := s.scanRepo.Save(ctx, result); err != nil {
		return nil, apperrors.NewInternalError("failed to store scan", err)
	}

	s.events.NotifyObservers(ctx, scanEvent(result, time.Since(start)))
	return result, nil
}

// ScanBatch scans several URLs on the worker pool. Results keep the order
// of the request; fetch or scan failures are reported per URL.
func (s *scanService) ScanBatch(ctx context.Context, req models.BatchScanRequest) (*models.BatchScanResponse, error) {
	if len(req.URLs) == 0 {
		return nil, apperrors.NewValidationError("at least one URL is required", nil)
	}
	if _, err := s.profileFor(req.ScanOptions); err != nil {
		return nil, err
	}

	pool := analyzer.NewWorkerPool(min(s.cfg.BatchWorkers, len(req.URLs)))
	pool.Start()
	defer pool.Close()

	results := make([]*models.ScanResult, len(req.URLs))
	failures := make([]error, len(req.URLs))
	var mu sync.Mutex

	for i, u := range req.URLs {
		i, u := i, u
		err := pool.Submit(ctx, func() {
			result, err := s.ScanURL(ctx, models.ScanRequest{URL: u, ScanOptions: req.ScanOptions})
			mu.Lock()
			results[i], failures[i] = result, err
			mu.Unlock()
		})
		if err != nil {
			pool.Wait()
			return nil, apperrors.NewTimeoutError("batch scan canceled", err)
		}
	}
	pool.Wait()

	response := &models.BatchScanResponse{Results: make([]*models.ScanResult, 0, len(req.URLs))}
	for i, u := range req.URLs {
		if failures[i] != nil {
			response.Failed = append(response.Failed, models.BatchFailure{URL: u, Error: failures[i].Error()})
			continue
		}
		response.Results = append(response.Results, results[i])
		if results[i].Decoded {
			response.Decoded++
		}
	}

	s.log.WithFields(logrus.Fields{
		"urls":    len(req.URLs),
		"decoded": response.Decoded,
		"failed":  len(response.Failed),
	}).Info("Batch scan completed")
	return response, nil
}

// GetScan returns a stored scan
func (s *scanService) GetScan(ctx context.Context, id string) (*models.ScanResult, error) {
	result, err := s.scanRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrScanNotFound) {
			return nil, apperrors.NewNotFoundError("scan not found", err)
		}
		return nil, apperrors.NewInternalError("failed to load scan", err)
	}
	return result, nil
}

// History lists stored scans, newest first
func (s *scanService) History(ctx context.Context, limit int) ([]*models.ScanResult, error) {
	results, err := s.scanRepo.List(ctx, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list scans", err)
	}
	return results, nil
}

// RenderSymbol encodes text as a square PNG symbol
func (s *scanService) RenderSymbol(text string, format decoder.Format, size int) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("text cannot be empty", nil)
	}
	if size < minRenderSize || size > maxRenderSize {
		return nil, apperrors.NewValidationError("size out of range", nil).
			WithDetails("size must be between 64 and 2048 pixels")
	}

	symbol, err := decoder.Render(text, format, size, size)
	if err != nil {
		if errors.Is(err, decoder.ErrUnsupportedFormat) {
			return nil, apperrors.NewValidationError("format cannot be rendered", err)
		}
		return nil, apperrors.NewProcessingError("failed to render symbol", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, symbol); err != nil {
		return nil, apperrors.NewInternalError("failed to encode PNG", err)
	}
	return buf.Bytes(), nil
}

func (s *scanService) profileFor(opts models.ScanOptions) (factory.ScanProfile, error) {
	profile := factory.ScanProfile{TryHarder: opts.TryHarder}
	if len(opts.Formats) == 0 {
		return profile, nil
	}
	formats, err := decoder.ParseFormats(strings.Join(opts.Formats, ","))
	if err != nil {
		return profile, apperrors.NewValidationError("invalid formats", err)
	}
	profile.Formats = formats
	return profile, nil
}

func (s *scanService) attachQuality(result *models.ScanResult, gray *image.Gray) {
	stats := s.stats.Calculate(gray)
	issues := s.quality.ValidateFrame(validation.FrameQualityMetrics{
		Width:         result.Frame.Width,
		Height:        result.Frame.Height,
		MeanLuminance: stats.Mean,
		StdDev:        stats.StdDev,
		LaplacianVar:  stats.LaplacianVar,
		DarkRatio:     stats.DarkRatio,
		BrightRatio:   stats.BrightRatio,
	})

	result.Quality = models.QualityMetrics{
		MeanLuminance: stats.Mean,
		StdDev:        stats.StdDev,
		LaplacianVar:  stats.LaplacianVar,
		DarkRatio:     stats.DarkRatio,
		BrightRatio:   stats.BrightRatio,
		TooDark:       validation.HasIssue(issues, validation.IssueTooDark),
		TooBright:     validation.HasIssue(issues, validation.IssueTooBright),
		LowContrast:   validation.HasIssue(issues, validation.IssueLowContrast),
		Blurry:        validation.HasIssue(issues, validation.IssueBlurry),
	}

	// Quality hints only matter when nothing decoded
	if !result.Decoded {
		result.Errors = append(result.Errors, s.quality.ConvertIssuesToMessages(issues)...)
	}
}

func (s *scanService) readCaption(ctx context.Context, gray *image.Gray, symbol *models.Symbol) *models.Caption {
	if s.captions == nil {
		return &models.Caption{Error: "caption OCR is disabled"}
	}

	var points []models.Point
	if symbol != nil {
		points = symbol.Points
	}
	caption := &models.Caption{Language: s.captions.Language()}
	text, err := s.captions.ReadText(ctx, captionRegion(gray, points))
	if err != nil {
		s.log.WithError(err).Warn("Caption OCR failed")
		caption.Error = err.Error()
		return caption
	}
	caption.Text = text
	return caption
}

func toSymbol(r *decoder.Result) *models.Symbol {
	symbol := &models.Symbol{
		Text:     r.Text,
		Format:   string(r.Format),
		RawBytes: r.RawBytes,
		Metadata: r.Metadata,
	}
	for _, p := range r.Points {
		symbol.Points = append(symbol.Points, models.Point{X: p.X, Y: p.Y})
	}
	return symbol
}

func dropReason(outcome analyzer.Outcome) string {
	switch outcome {
	case analyzer.OutcomeNotFound:
		return "No symbol found in the image."
	case analyzer.OutcomeUnreadable:
		return "A symbol was found but could not be read."
	case analyzer.OutcomeUnsupportedEncoding:
		return "The image's pixel encoding is not accepted by this scanner."
	default:
		return "The image could not be analyzed."
	}
}

func scanEvent(result *models.ScanResult, elapsed time.Duration) observer.ScanEvent {
	event := observer.ScanEvent{
		ScanID:         result.ID,
		Source:         result.Source,
		ProcessingTime: elapsed,
		Outcome:        result.Outcome,
	}
	switch result.Outcome {
	case analyzer.OutcomeDecoded.String():
		event.EventType = observer.SymbolDecoded
		event.Format = result.Symbol.Format
		event.Text = result.Symbol.Text
	case analyzer.OutcomeNotFound.String(), analyzer.OutcomeUnreadable.String():
		event.EventType = observer.SymbolNotFound
	default:
		event.EventType = observer.FrameRejected
	}
	return event
}

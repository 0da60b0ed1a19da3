package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/frame-scanner-go/internal/analyzer"
	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	"github.com/anime-shed/frame-scanner-go/internal/frame"
	"github.com/anime-shed/frame-scanner-go/internal/logger"
)

// Detection is a decoded symbol together with the frame it came from
type Detection struct {
	Result   *decoder.Result
	Sequence uint64
	Captured time.Time

	// Image is the frame's luminance, set only when Config.KeepImages is on
	Image *image.Gray
}

// Handler receives detections on the analysis goroutine
type Handler func(Detection)

// Config configures a Pipeline
type Config struct {
	Analyzer   analyzer.Options
	KeepImages bool
}

// Stats counts frames as they move through a pipeline
type Stats struct {
	Captured uint64 `json:"captured"`
	Analyzed uint64 `json:"analyzed"`
	Dropped  uint64 `json:"dropped"`
	Decoded  uint64 `json:"decoded"`
}

// Pipeline feeds frames from a Source to a FrameAnalyzer with
// keep-only-latest backpressure: while the analyzer is busy, a newer frame
// replaces the waiting one and the older frame is released unanalyzed.
type Pipeline struct {
	source     Source
	analyzer   analyzer.Analyzer
	handler    Handler
	keepImages bool

	inbox    chan *frame.Frame
	detached chan struct{}
	detach   sync.Once
	running  atomic.Bool

	// in flight on the analysis goroutine only
	current *frame.Frame

	captured atomic.Uint64
	analyzed atomic.Uint64
	dropped  atomic.Uint64
	decoded  atomic.Uint64

	log *logrus.Entry
}

// NewPipeline creates a pipeline that reports detections to handler
func NewPipeline(source Source, cfg Config, handler Handler) (*Pipeline, error) {
	if handler == nil {
		return nil, errors.New("detection handler is required")
	}

	p := &Pipeline{
		source:     source,
		handler:    handler,
		keepImages: cfg.KeepImages,
		inbox:      make(chan *frame.Frame, 1),
		detached:   make(chan struct{}),
		log:        logger.Component("capture_pipeline"),
	}

	a, err := analyzer.NewFrameAnalyzer(cfg.Analyzer, p.onResult)
	if err != nil {
		return nil, err
	}
	p.analyzer = a
	return p, nil
}

// Run captures and analyzes frames until the source is exhausted, ctx is
// canceled, or the pipeline is detached. It returns after every captured
// frame has been released.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return errors.New("pipeline already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.detached:
			cancel()
		case <-ctx.Done():
		}
	}()

	done := make(chan struct{})
	go p.analyze(done)

	err := p.capture(ctx)
	close(p.inbox)
	<-done

	stats := p.Stats()
	p.log.WithFields(logrus.Fields{
		"captured": stats.Captured,
		"analyzed": stats.Analyzed,
		"dropped":  stats.Dropped,
		"decoded":  stats.Decoded,
	}).Info("Capture pipeline stopped")
	return err
}

// Detach stops frame delivery to the analyzer. Frames already waiting are
// released without analysis. It is safe to call from a Handler.
func (p *Pipeline) Detach() {
	p.detach.Do(func() {
		close(p.detached)
	})
}

// Stats returns a snapshot of the frame counters
func (p *Pipeline) Stats() Stats {
	return Stats{
		Captured: p.captured.Load(),
		Analyzed: p.analyzed.Load(),
		Dropped:  p.dropped.Load(),
		Decoded:  p.decoded.Load(),
	}
}

func (p *Pipeline) isDetached() bool {
	select {
	case <-p.detached:
		return true
	default:
		return false
	}
}

func (p *Pipeline) capture(ctx context.Context) error {
	var sequence uint64
	for {
		f, err := p.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("capture frame: %w", err)
		}

		sequence++
		p.captured.Add(1)
		f.Sequence = sequence
		if f.Timestamp.IsZero() {
			f.Timestamp = time.Now()
		}

		if p.isDetached() {
			f.Close()
			p.dropped.Add(1)
			return nil
		}
		p.offer(f)
	}
}

// offer places f in the inbox, evicting a frame the analyzer has not
// picked up yet. Only the capture goroutine sends, so the final send never
// blocks.
func (p *Pipeline) offer(f *frame.Frame) {
	select {
	case p.inbox <- f:
		return
	default:
	}

	select {
	case stale := <-p.inbox:
		stale.Close()
		p.dropped.Add(1)
	default:
	}
	p.inbox <- f
}

func (p *Pipeline) analyze(done chan<- struct{}) {
	defer close(done)
	for f := range p.inbox {
		if p.isDetached() {
			f.Close()
			p.dropped.Add(1)
			continue
		}
		p.current = f
		p.analyzer.Analyze(f)
		p.current = nil
		p.analyzed.Add(1)
	}
}

// onResult runs inside Analyze, before the frame is released
func (p *Pipeline) onResult(result *decoder.Result) {
	p.decoded.Add(1)

	det := Detection{Result: result}
	if f := p.current; f != nil {
		det.Sequence = f.Sequence
		det.Captured = f.Timestamp
		if p.keepImages {
			img, err := f.Image()
			if err != nil {
				p.log.WithError(err).Warn("Failed to keep frame image")
			}
			det.Image = img
		}
	}
	p.handler(det)
}

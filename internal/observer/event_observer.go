package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ScanEvent represents a scan event
type ScanEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ScanID         string                 `json:"scan_id,omitempty"`
	Source         string                 `json:"source"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Outcome        string                 `json:"outcome,omitempty"`
	Format         string                 `json:"format,omitempty"`
	Text           string                 `json:"text,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of scan event
type EventType string

const (
	// ScanStarted when a scan begins
	ScanStarted EventType = "scan_started"
	// SymbolDecoded when a frame produced a result
	SymbolDecoded EventType = "symbol_decoded"
	// SymbolNotFound when a frame was analyzed but nothing decoded
	SymbolNotFound EventType = "symbol_not_found"
	// FrameRejected when a frame could not be analyzed at all
	FrameRejected EventType = "frame_rejected"
	// ImageFetchFailed when the image to scan could not be loaded
	ImageFetchFailed EventType = "image_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ScanEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ScanEvent)
}

// LoggingObserver logs scan events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles scan events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ScanEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"source":          event.Source,
		"processing_time": event.ProcessingTime,
	}
	if event.ScanID != "" {
		fields["scan_id"] = event.ScanID
	}
	if event.Outcome != "" {
		fields["outcome"] = event.Outcome
	}
	if event.Format != "" {
		fields["format"] = event.Format
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case ScanStarted:
		entry.Debug("Scan started")
	case SymbolDecoded:
		entry.Info("Symbol decoded")
	case SymbolNotFound:
		entry.Info("No symbol found")
	case FrameRejected:
		entry.Warn("Frame rejected")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	default:
		entry.Info("Scan event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from scan events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalScans          int64
	decoded             int64
	fetchFailures       int64
	outcomes            map[string]int64
	formats             map[string]int64
	completedScans      int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		outcomes: make(map[string]int64),
		formats:  make(map[string]int64),
	}
}

// OnEvent handles scan events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event ScanEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ScanStarted:
		o.totalScans++
		return
	case ImageFetchFailed:
		o.fetchFailures++
		return
	case SymbolDecoded:
		o.decoded++
		if event.Format != "" {
			o.formats[event.Format]++
		}
	}

	if event.Outcome != "" {
		o.outcomes[event.Outcome]++
	}
	o.completedScans++
	o.totalProcessingTime += event.ProcessingTime
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.completedScans > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.completedScans)
	}

	outcomes := make(map[string]int64, len(o.outcomes))
	for k, v := range o.outcomes {
		outcomes[k] = v
	}
	formats := make(map[string]int64, len(o.formats))
	for k, v := range o.formats {
		formats[k] = v
	}

	return map[string]interface{}{
		"total_scans":            o.totalScans,
		"completed_scans":        o.completedScans,
		"decoded":                o.decoded,
		"image_fetch_failures":   o.fetchFailures,
		"outcomes":               outcomes,
		"formats":                formats,
		"avg_processing_time_ms": float64(avgProcessingTime.Microseconds()) / 1000,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event concurrently
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ScanEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Flush blocks until every notification sent so far has been handled
func (p *EventPublisher) Flush() {
	p.wg.Wait()
}

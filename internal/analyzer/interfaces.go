package analyzer

import (
	"image"

	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	"github.com/anime-shed/frame-scanner-go/internal/frame"
)

// Analyzer consumes camera frames one at a time. It owns each frame for the
// duration of the call and releases it before returning.
type Analyzer interface {
	Analyze(f *frame.Frame)
}

// FrameDecoder is the explicit form of Analyzer: it returns the result and
// outcome instead of invoking a callback
type FrameDecoder interface {
	Decode(f *frame.Frame) (*decoder.Result, Outcome)
}

// ResultHandler receives each decoded symbol
type ResultHandler func(result *decoder.Result)

// LuminanceStatsCalculator handles frame luminance statistics
type LuminanceStatsCalculator interface {
	Calculate(gray *image.Gray) LuminanceStats
}

// FinderPatternDetector handles the quick QR finder pattern heuristic
type FinderPatternDetector interface {
	HasFinderPatterns(gray *image.Gray) bool
}

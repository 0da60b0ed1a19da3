package models

import "time"

// ScanResult is the stored record of one scanned image or frame
type ScanResult struct {
	ID                string    `json:"id"`
	Source            string    `json:"source"`
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTimeSec float64   `json:"processing_time_sec"`

	// Outcome is one of decoded, not_found, unreadable,
	// unsupported_encoding or malformed_frame
	Outcome string  `json:"outcome"`
	Decoded bool    `json:"decoded"`
	Symbol  *Symbol `json:"symbol,omitempty"`

	Frame   FrameInfo      `json:"frame"`
	Quality QualityMetrics `json:"quality"`

	// Set when a finder pattern was seen but nothing decoded
	FinderPatternsSeen bool `json:"finder_patterns_seen,omitempty"`

	Verification *Verification `json:"verification,omitempty"`
	Caption      *Caption      `json:"caption,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// Symbol is a decoded barcode
type Symbol struct {
	Text     string            `json:"text"`
	Format   string            `json:"format"`
	RawBytes []byte            `json:"raw_bytes,omitempty"`
	Points   []Point           `json:"points,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Point is a symbol corner or finder pattern center in frame pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FrameInfo describes the frame that was analyzed
type FrameInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Encoding string `json:"encoding"`
}

// QualityMetrics are luminance statistics with the flags derived from them
type QualityMetrics struct {
	MeanLuminance float64 `json:"mean_luminance"`
	StdDev        float64 `json:"std_dev"`
	LaplacianVar  float64 `json:"laplacian_variance"`
	DarkRatio     float64 `json:"dark_ratio"`
	BrightRatio   float64 `json:"bright_ratio"`

	TooDark     bool `json:"too_dark,omitempty"`
	TooBright   bool `json:"too_bright,omitempty"`
	LowContrast bool `json:"low_contrast,omitempty"`
	Blurry      bool `json:"blurry,omitempty"`
}

// Verification compares the decoded text with the payload the caller expected
type Verification struct {
	Expected     string  `json:"expected"`
	Match        bool    `json:"match"`
	Similarity   float64 `json:"similarity"`
	EditDistance int     `json:"edit_distance"`
	WER          float64 `json:"word_error_rate"`
}

// Caption is the printed text read from around the symbol
type Caption struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Error    string `json:"error,omitempty"`
}

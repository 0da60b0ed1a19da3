package analyzer

import (
	"fmt"

	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	"github.com/anime-shed/frame-scanner-go/internal/frame"
)

// Options is the analyzer configuration. It is copied at construction, so
// changing an Options value afterwards never affects a running analyzer.
type Options struct {
	// Pixel encodings the analyzer will attempt to decode
	AcceptedEncodings []frame.PixelEncoding

	// Symbologies the decoder is restricted to
	Formats []decoder.Format

	// Decoder tuning
	TryHarder   bool
	PureBarcode bool
}

// DefaultOptions accepts the three planar YUV variants and decodes QR codes only
func DefaultOptions() Options {
	return Options{
		AcceptedEncodings: []frame.PixelEncoding{
			frame.EncodingYUV420,
			frame.EncodingYUV422,
			frame.EncodingYUV444,
		},
		Formats: []decoder.Format{decoder.FormatQRCode},
	}
}

// MatrixOptions decodes every 2D symbology
func MatrixOptions() Options {
	return DefaultOptions().WithFormats(decoder.MatrixFormats...)
}

// AllFormatsOptions decodes every supported symbology and spends more time
// per frame
func AllFormatsOptions() Options {
	return DefaultOptions().WithFormats(decoder.AllFormats()...).WithTryHarder()
}

// WithFormats returns options restricted to the given symbologies
func (opts Options) WithFormats(formats ...decoder.Format) Options {
	opts.Formats = append([]decoder.Format(nil), formats...)
	return opts
}

// WithEncodings returns options accepting exactly the given encodings
func (opts Options) WithEncodings(encodings ...frame.PixelEncoding) Options {
	opts.AcceptedEncodings = append([]frame.PixelEncoding(nil), encodings...)
	return opts
}

// WithTryHarder enables the slower, more thorough decode mode
func (opts Options) WithTryHarder() Options {
	opts.TryHarder = true
	return opts
}

// WithPureBarcode hints that frames contain only a symbol with no background
func (opts Options) WithPureBarcode() Options {
	opts.PureBarcode = true
	return opts
}

// Validate checks that the options can build an analyzer
func (opts Options) Validate() error {
	if len(opts.AcceptedEncodings) == 0 {
		return fmt.Errorf("at least one accepted encoding is required")
	}
	for _, enc := range opts.AcceptedEncodings {
		if !enc.IsPlanarYUV() {
			return fmt.Errorf("encoding %s has no leading luminance plane", enc)
		}
	}
	if len(opts.Formats) == 0 {
		return decoder.ErrNoFormats
	}
	for _, f := range opts.Formats {
		if !f.Valid() {
			return fmt.Errorf("%w: %q", decoder.ErrUnsupportedFormat, f)
		}
	}
	return nil
}

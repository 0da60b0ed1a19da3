package decoder

import (
	"errors"
	"fmt"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var (
	// ErrNotFound indicates that no symbol was located in the image
	ErrNotFound = errors.New("no symbol found")

	// ErrUnreadable indicates a symbol was located but failed checksum or
	// format validation
	ErrUnreadable = errors.New("symbol unreadable")

	// ErrUnsupportedFormat indicates a symbology this package does not handle
	ErrUnsupportedFormat = errors.New("unsupported symbol format")

	// ErrNoFormats indicates a decoder configured without any symbology
	ErrNoFormats = errors.New("no symbol formats configured")
)

// Point is a location of interest reported by the detector, such as a
// finder pattern center
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is a decoded symbol
type Result struct {
	Text      string            `json:"text"`
	RawBytes  []byte            `json:"raw_bytes,omitempty"`
	Format    Format            `json:"format"`
	Points    []Point           `json:"points,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Decoder turns luminance data into a symbol. Implementations are not safe
// for concurrent use; give each goroutine its own.
type Decoder interface {
	Decode(source gozxing.LuminanceSource) (*Result, error)
	Formats() []Format
}

// Options configures a Decoder
type Options struct {
	Formats     []Format
	TryHarder   bool
	PureBarcode bool
}

type formatReader struct {
	format Format
	reader gozxing.Reader
}

// multiFormatDecoder tries one reader per enabled format in order
type multiFormatDecoder struct {
	readers []formatReader
	hints   map[gozxing.DecodeHintType]interface{}
}

// New creates a decoder restricted to opts.Formats
func New(opts Options) (Decoder, error) {
	if len(opts.Formats) == 0 {
		return nil, ErrNoFormats
	}

	d := &multiFormatDecoder{
		hints: make(map[gozxing.DecodeHintType]interface{}),
	}

	possible := make([]gozxing.BarcodeFormat, 0, len(opts.Formats))
	for _, f := range opts.Formats {
		reader, err := newReader(f)
		if err != nil {
			return nil, err
		}
		d.readers = append(d.readers, formatReader{format: f, reader: reader})
		possible = append(possible, zxingFormats[f])
	}

	d.hints[gozxing.DecodeHintType_POSSIBLE_FORMATS] = possible
	if opts.TryHarder {
		d.hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	if opts.PureBarcode {
		d.hints[gozxing.DecodeHintType_PURE_BARCODE] = true
	}
	return d, nil
}

func newReader(f Format) (gozxing.Reader, error) {
	switch f {
	case FormatQRCode:
		return qrcode.NewQRCodeReader(), nil
	case FormatDataMatrix:
		return datamatrix.NewDataMatrixReader(), nil
	case FormatAztec:
		return aztec.NewAztecReader(), nil
	case FormatCode128:
		return oned.NewCode128Reader(), nil
	case FormatCode39:
		return oned.NewCode39Reader(), nil
	case FormatEAN13:
		return oned.NewEAN13Reader(), nil
	case FormatEAN8:
		return oned.NewEAN8Reader(), nil
	case FormatUPCA:
		return oned.NewUPCAReader(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Formats returns the enabled symbologies in dispatch order
func (d *multiFormatDecoder) Formats() []Format {
	formats := make([]Format, len(d.readers))
	for i, r := range d.readers {
		formats[i] = r.format
	}
	return formats
}

// Decode binarizes source with the hybrid binarizer and runs each reader
// until one succeeds. When all fail, an unreadable symbol is reported in
// preference to not found.
func (d *multiFormatDecoder) Decode(source gozxing.LuminanceSource) (*Result, error) {
	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(source))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var lastErr error
	for _, r := range d.readers {
		result, err := r.reader.Decode(bitmap, d.hints)
		r.reader.Reset()
		if err == nil {
			return convertResult(result), nil
		}

		classified := classify(err)
		if lastErr == nil || errors.Is(classified, ErrUnreadable) {
			lastErr = classified
		}
	}
	return nil, lastErr
}

func classify(err error) error {
	switch err.(type) {
	case gozxing.NotFoundException:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case gozxing.ChecksumException, gozxing.FormatException:
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreadable, err)
}

func convertResult(r *gozxing.Result) *Result {
	result := &Result{
		Text:      r.GetText(),
		RawBytes:  r.GetRawBytes(),
		Format:    fromZXing(r.GetBarcodeFormat()),
		Timestamp: time.Now(),
	}

	for _, p := range r.GetResultPoints() {
		if p == nil {
			continue
		}
		result.Points = append(result.Points, Point{X: p.GetX(), Y: p.GetY()})
	}

	if md := r.GetResultMetadata(); len(md) > 0 {
		result.Metadata = make(map[string]string, len(md))
		for k, v := range md {
			result.Metadata[fmt.Sprint(k)] = fmt.Sprint(v)
		}
	}
	return result
}

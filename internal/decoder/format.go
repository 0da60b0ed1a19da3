package decoder

import (
	"fmt"
	"strings"

	"github.com/makiuchi-d/gozxing"
)

// Format names a barcode symbology
type Format string

const (
	FormatQRCode     Format = "QR_CODE"
	FormatDataMatrix Format = "DATA_MATRIX"
	FormatAztec      Format = "AZTEC"
	FormatCode128    Format = "CODE_128"
	FormatCode39     Format = "CODE_39"
	FormatEAN13      Format = "EAN_13"
	FormatEAN8       Format = "EAN_8"
	FormatUPCA       Format = "UPC_A"
)

var zxingFormats = map[Format]gozxing.BarcodeFormat{
	FormatQRCode:     gozxing.BarcodeFormat_QR_CODE,
	FormatDataMatrix: gozxing.BarcodeFormat_DATA_MATRIX,
	FormatAztec:      gozxing.BarcodeFormat_AZTEC,
	FormatCode128:    gozxing.BarcodeFormat_CODE_128,
	FormatCode39:     gozxing.BarcodeFormat_CODE_39,
	FormatEAN13:      gozxing.BarcodeFormat_EAN_13,
	FormatEAN8:       gozxing.BarcodeFormat_EAN_8,
	FormatUPCA:       gozxing.BarcodeFormat_UPC_A,
}

// MatrixFormats are the 2D symbologies
var MatrixFormats = []Format{FormatQRCode, FormatDataMatrix, FormatAztec}

// LinearFormats are the 1D symbologies
var LinearFormats = []Format{FormatCode128, FormatCode39, FormatEAN13, FormatEAN8, FormatUPCA}

// AllFormats lists every supported symbology in dispatch order
func AllFormats() []Format {
	all := make([]Format, 0, len(MatrixFormats)+len(LinearFormats))
	all = append(all, MatrixFormats...)
	return append(all, LinearFormats...)
}

// IsMatrix reports whether f is a 2D symbology
func (f Format) IsMatrix() bool {
	for _, m := range MatrixFormats {
		if f == m {
			return true
		}
	}
	return false
}

// Valid reports whether f is a supported symbology
func (f Format) Valid() bool {
	_, ok := zxingFormats[f]
	return ok
}

// ParseFormat resolves a symbology name. "QR" and "qrcode" style aliases are
// accepted.
func ParseFormat(name string) (Format, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "QR", "QRCODE":
		return FormatQRCode, nil
	case "DATAMATRIX":
		return FormatDataMatrix, nil
	case "CODE128":
		return FormatCode128, nil
	case "CODE39":
		return FormatCode39, nil
	case "EAN13":
		return FormatEAN13, nil
	case "EAN8":
		return FormatEAN8, nil
	case "UPCA":
		return FormatUPCA, nil
	}
	f := Format(normalized)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	return f, nil
}

// ParseFormats parses a comma separated list. The keywords "matrix",
// "linear" and "all" expand to their groups.
func ParseFormats(list string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	add := func(fs ...Format) {
		for _, f := range fs {
			if !seen[f] {
				seen[f] = true
				formats = append(formats, f)
			}
		}
	}

	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		switch strings.ToLower(part) {
		case "":
			continue
		case "matrix", "2d":
			add(MatrixFormats...)
		case "linear", "1d":
			add(LinearFormats...)
		case "all":
			add(AllFormats()...)
		default:
			f, err := ParseFormat(part)
			if err != nil {
				return nil, err
			}
			add(f)
		}
	}
	return formats, nil
}

func fromZXing(bf gozxing.BarcodeFormat) Format {
	for f, z := range zxingFormats {
		if z == bf {
			return f
		}
	}
	return Format(bf.String())
}
